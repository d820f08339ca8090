// Package notify e-mails the site owners about new contact submissions.
package notify

import (
	"context"
	"errors"
	"fmt"
	htmltpl "html/template"
	texttpl "text/template"
	"time"

	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"
)

const sendTimeout = 20 * time.Second

var ErrNotConfigured = errors.New("SMTP is not configured")

// ContactNotifier delivers one contact submission to the site owners.
type ContactNotifier interface {
	NotifyContact(ctx context.Context, c models.Contact) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// Secure selects implicit TLS; otherwise STARTTLS is used when offered.
	Secure   bool
	FromName string
	FromAddr string
	To       string
}

func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.To != "" && (c.FromAddr != "" || c.Username != "")
}

type SMTPNotifier struct {
	cfg SMTPConfig
}

// NewNotifier returns an SMTP notifier, or one that fails every send with
// ErrNotConfigured when the host or recipients are missing.
func NewNotifier(cfg SMTPConfig) ContactNotifier {
	if !cfg.Configured() {
		logrus.Warn("SMTP is not configured; contact e-mails are disabled")
		return disabled{}
	}
	if cfg.Port == 0 {
		cfg.Port = 465
	}
	if cfg.FromName == "" {
		cfg.FromName = "HasakePlay Website"
	}
	if cfg.FromAddr == "" {
		cfg.FromAddr = cfg.Username
	}
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithTimeout(sendTimeout),
	}
	if n.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.Username),
			mail.WithPassword(n.cfg.Password),
		)
	}
	if n.cfg.Secure {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSOpportunistic))
	}
	return mail.NewClient(n.cfg.Host, opts...)
}

// Message builds the e-mail for c without sending it.
func (n *SMTPNotifier) Message(c models.Contact) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(n.cfg.FromName, n.cfg.FromAddr); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := m.To(n.cfg.To); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	if err := m.ReplyTo(c.Email); err != nil {
		return nil, fmt.Errorf("reply-to: %w", err)
	}
	m.Subject(Subject(c))

	data := templateData{Subject: Subject(c), Contact: c}
	if err := m.SetBodyTextTemplate(textBody, data); err != nil {
		return nil, fmt.Errorf("text body: %w", err)
	}
	if err := m.AddAlternativeHTMLTemplate(htmlBody, data); err != nil {
		return nil, fmt.Errorf("html body: %w", err)
	}
	return m, nil
}

func (n *SMTPNotifier) NotifyContact(ctx context.Context, c models.Contact) error {
	m, err := n.Message(c)
	if err != nil {
		return err
	}
	client, err := n.client()
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	logrus.WithField("contact", c.ID.Hex()).Info("Contact e-mail sent")
	return nil
}

type disabled struct{}

func (disabled) NotifyContact(context.Context, models.Contact) error {
	return ErrNotConfigured
}

func Subject(c models.Contact) string {
	return "[HasakePlay] New contact from " + c.FullName
}

type templateData struct {
	Subject string
	Contact models.Contact
}

var htmlBody = htmltpl.Must(htmltpl.New("contact.html").Parse(`<!DOCTYPE html>
<html lang="en"><head><meta charset="UTF-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>{{.Subject}}</title></head>
<body>
<div style="font-family: Helvetica, Arial, sans-serif; line-height: 1.6; margin: 0; padding: 24px; background:#f6f7f9;">
  <div style="max-width:720px;margin:0 auto;background:#fff;border:1px solid #eee;border-radius:8px;overflow:hidden;">
    <div style="padding:16px 20px;border-bottom:1px solid #eee;">
      <span style="font-size:18px;font-weight:600;color:#00466a;">HasakePlay Contact Form</span>
    </div>
    <div style="padding:20px;">
      <p style="margin:0 0 12px;">You've received a new contact from the website.</p>
      <table cellspacing="0" cellpadding="8" style="width:100%;border-collapse:collapse;background:#fafbfc;">
        <tr><td style="width:180px;"><b>Full name</b></td><td>{{.Contact.FullName}}</td></tr>
        <tr><td><b>Email</b></td><td>{{.Contact.Email}}</td></tr>
        {{- if .Contact.Organisation}}
        <tr><td><b>Organization</b></td><td>{{.Contact.Organisation}}</td></tr>
        {{- end}}
        {{- if .Contact.Phone}}
        <tr><td><b>Phone</b></td><td>{{.Contact.Phone}}</td></tr>
        {{- end}}
        <tr><td><b>City</b></td><td>{{.Contact.City}}</td></tr>
        <tr><td><b>Country</b></td><td>{{.Contact.Country}}</td></tr>
        <tr><td><b>Address</b></td><td>{{.Contact.Address}}</td></tr>
      </table>
      <h3 style="margin:16px 0 8px;font-size:16px;">Message</h3>
      <div style="white-space:pre-wrap;background:#fff;border:1px solid #eee;padding:12px;border-radius:6px;">{{.Contact.Message}}</div>
    </div>
    <div style="padding:14px 20px;border-top:1px solid #eee;color:#777;font-size:12px;">
      This email was sent automatically from HasakePlay.com.vn. Click Reply to respond directly to the sender.
    </div>
  </div>
</div>
</body></html>
`))

var textBody = texttpl.Must(texttpl.New("contact.txt").Parse(`{{.Subject}}

Full name: {{.Contact.FullName}}
Email: {{.Contact.Email}}
{{if .Contact.Organisation}}Organization: {{.Contact.Organisation}}
{{end}}{{if .Contact.Phone}}Phone: {{.Contact.Phone}}
{{end}}City: {{.Contact.City}}
Country: {{.Contact.Country}}
Address: {{.Contact.Address}}

Message:
{{.Contact.Message}}
`))
