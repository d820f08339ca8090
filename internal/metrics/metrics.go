// Package metrics holds the Prometheus instruments shared by the API. All
// collectors are registered with the default registry and served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"})

	ContactSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Contact form submissions by outcome (stored, spam).",
		}, []string{"outcome"})

	MailDeliveryErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mail_delivery_errors_total",
			Help: "Contact notification e-mails that failed to send.",
		})

	SlugRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "slug_retries_total",
			Help: "Writes retried after losing a slug to a concurrent writer.",
		})

	MediaUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_uploads_total",
			Help: "Cloudinary uploads by resource type and result.",
		}, []string{"resource_type", "result"})

	LoginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_login_attempts_total",
			Help: "Admin login attempts by result.",
		}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ContactSubmissionsTotal,
		MailDeliveryErrorsTotal,
		SlugRetriesTotal,
		MediaUploadsTotal,
		LoginAttemptsTotal,
	)
}
