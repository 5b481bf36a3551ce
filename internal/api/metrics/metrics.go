// Package metrics defines the Prometheus metrics of the account API.
//
// Metrics are registered against the Registerer handed to New, so tests can
// build as many routers as they like on private registries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "account"

// Outcome labels shared by the counters below.
const (
	ResultSuccess         = "success"
	ResultRejected        = "rejected"
	ResultNotFound        = "not_found"
	ResultInvalidPassword = "invalid_password"
	ResultInvalid         = "invalid"
	ResultError           = "error"
)

type Metrics struct {
	// RegistrationsTotal counts registration attempts.
	// Label:
	//   - result: "success", "rejected" (validation or conflict) or "error"
	RegistrationsTotal *prometheus.CounterVec

	// LoginsTotal counts login attempts.
	// Label:
	//   - result: "success", "not_found", "invalid_password", "rejected" or "error"
	LoginsTotal *prometheus.CounterVec

	// SessionChecksTotal counts gate decisions on session cookies.
	// Label:
	//   - result: "success", "invalid" or "error"
	SessionChecksTotal *prometheus.CounterVec

	// AccountsDeletedTotal counts accounts removed by their owner.
	AccountsDeletedTotal prometheus.Counter
}

// New creates and registers every metric on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RegistrationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Total number of registration attempts, by result.",
			},
			[]string{"result"},
		),
		LoginsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Total number of login attempts, by result.",
			},
			[]string{"result"},
		),
		SessionChecksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_checks_total",
				Help:      "Total number of session cookie checks, by result.",
			},
			[]string{"result"},
		),
		AccountsDeletedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_deleted_total",
			Help:      "Total number of accounts deleted by their owner.",
		}),
	}
}
