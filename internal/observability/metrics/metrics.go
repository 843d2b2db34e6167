package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	VariantAssignmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_variant_assignments_total",
			Help: "Root-path visits by variant, split into new and returning visitors.",
		},
		[]string{"variant", "kind"},
	)

	EmailCapturesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_email_captures_total",
			Help: "Email capture attempts by variant and outcome code.",
		},
		[]string{"variant", "result"},
	)

	EmailVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_email_verifications_total",
			Help: "Verification attempts by outcome.",
		},
		[]string{"result"},
	)

	VerificationEmailsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_verification_emails_total",
			Help: "Verification emails handed to the provider.",
		},
		[]string{"variant", "result"},
	)

	AdminAuthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_admin_auth_attempts_total",
			Help: "Admin bearer token checks by outcome.",
		},
		[]string{"result"},
	)

	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_events_published_total",
			Help: "Analytics events published per sink.",
		},
		[]string{"sink", "event", "result"},
	)
)

// MustRegister registers every collector on the default registry with a
// constant service label.
func MustRegister(serviceName string) {
	reg := prometheus.WrapRegistererWith(prometheus.Labels{"service": serviceName}, prometheus.DefaultRegisterer)
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		VariantAssignmentsTotal,
		EmailCapturesTotal,
		EmailVerificationsTotal,
		VerificationEmailsTotal,
		AdminAuthAttemptsTotal,
		EventsPublishedTotal,
	)
}
