package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

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

	AuthRegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "Total number of registration attempts.",
		},
		[]string{"result"},
	)

	AuthLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Total number of login attempts.",
		},
		[]string{"result"},
	)

	LedgerRedemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_redemptions_total",
			Help: "Verification and reset token redemptions by outcome.",
		},
		[]string{"kind", "result"},
	)

	MailSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_sent_total",
			Help: "Outgoing notification deliveries.",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// MustRegister adds every collector to the default registry. Safe to call twice.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			AuthRegistrationsTotal,
			AuthLoginsTotal,
			LedgerRedemptionsTotal,
			MailSentTotal,
		)
	})
}

// Handler exposes the default registry at /metrics for processes without a router.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
