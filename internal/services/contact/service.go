package contact

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hasakeplay/cms-backend/internal/adapters/repository"
	"github.com/hasakeplay/cms-backend/internal/core/domain"
	"github.com/hasakeplay/cms-backend/internal/metrics"
	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/hasakeplay/cms-backend/internal/services/notify"
	"github.com/hasakeplay/cms-backend/pkg/pagination"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultLimit = 20
	notifyBudget = 30 * time.Second
)

var (
	errNotFound       = domain.NotFound("Contact")
	ErrDeliveryFailed = domain.Internal("Failed to deliver contact e-mail", nil)
)

// Result describes what happened to a submission. Spam submissions are
// acknowledged but never stored.
type Result struct {
	ID   string
	Spam bool
}

type Query struct {
	Q        string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     pagination.Params
}

type Service interface {
	Submit(ctx context.Context, in models.ContactInput) (Result, error)
	Get(ctx context.Context, id string) (*models.Contact, error)
	List(ctx context.Context, q Query) (models.Page[models.Contact], error)
	// Wait blocks until background notifications have finished.
	Wait()
}

type Options struct {
	// EnforceDelivery makes Submit wait for the e-mail and fail when it cannot be sent.
	EnforceDelivery bool
}

type service struct {
	repo     repository.ContactRepository
	notifier notify.ContactNotifier
	opts     Options
	inflight sync.WaitGroup
}

func NewService(repo repository.ContactRepository, notifier notify.ContactNotifier, opts Options) Service {
	return &service{repo: repo, notifier: notifier, opts: opts}
}

func trim(in *models.ContactInput) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Organisation = strings.TrimSpace(in.Organisation)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Message = strings.TrimSpace(in.Message)
	in.City = strings.TrimSpace(in.City)
	in.Country = strings.TrimSpace(in.Country)
	in.Address = strings.TrimSpace(in.Address)
}

func (s *service) Submit(ctx context.Context, in models.ContactInput) (Result, error) {
	// 1. Bots fill the hidden field
	if in.IsSpam() {
		metrics.ContactSubmissionsTotal.WithLabelValues("spam").Inc()
		logrus.Info("Contact honeypot triggered, discarding submission")
		return Result{Spam: true}, nil
	}

	// 2. Validate and persist
	trim(&in)
	if err := models.Validate(in); err != nil {
		return Result{}, err
	}
	c := &models.Contact{
		FullName:     in.FullName,
		Email:        in.Email,
		Organisation: in.Organisation,
		Phone:        in.Phone,
		Message:      in.Message,
		City:         in.City,
		Country:      in.Country,
		Address:      in.Address,
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return Result{}, domain.Internal("Failed to save contact", err)
	}
	metrics.ContactSubmissionsTotal.WithLabelValues("stored").Inc()
	res := Result{ID: c.ID.Hex()}

	// 3. Notify
	if s.opts.EnforceDelivery {
		if err := s.notifier.NotifyContact(ctx, *c); err != nil {
			metrics.MailDeliveryErrorsTotal.Inc()
			logrus.WithError(err).WithField("contact", res.ID).Error("Contact e-mail failed")
			return res, &domain.Error{Kind: domain.KindInternal, Message: ErrDeliveryFailed.Message, Cause: err}
		}
		return res, nil
	}

	s.inflight.Add(1)
	go func(c models.Contact) {
		defer s.inflight.Done()
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyBudget)
		defer cancel()
		if err := s.notifier.NotifyContact(bg, c); err != nil {
			metrics.MailDeliveryErrorsTotal.Inc()
			logrus.WithError(err).WithField("contact", c.ID.Hex()).Error("Contact e-mail failed")
		}
	}(*c)
	return res, nil
}

func (s *service) Wait() {
	s.inflight.Wait()
}

func (s *service) Get(ctx context.Context, id string) (*models.Contact, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	c, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, domain.Internal("Failed to load contact", err)
	}
	if c == nil {
		return nil, errNotFound
	}
	return c, nil
}

func (s *service) List(ctx context.Context, q Query) (models.Page[models.Contact], error) {
	page, err := s.repo.List(ctx, repository.ContactListQuery{
		Q:        strings.TrimSpace(q.Q),
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
		Page:     q.Page.WithDefaults(DefaultLimit),
	})
	if err != nil {
		return page, domain.Internal("Failed to list contacts", err)
	}
	return page, nil
}
