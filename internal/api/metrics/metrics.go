// Package metrics defines and registers the custom Prometheus metrics of the
// user-directory API. HTTP request metrics come from echoprometheus; the
// counters here track directory outcomes by operation.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/99minutos/user-directory/internal/core/domain"
)

const namespace = "directory"

// Outcome labels that are not a domain.Reason.
const (
	OutcomeSuccess     = "success"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// OperationsTotal counts directory operations.
// Labels:
//   - operation: register, authenticate, get, list, update, change_password, change_username, delete
//   - outcome: "success", a rejection reason (e.g. "email_taken"), "unavailable" or "error"
var OperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Total number of directory operations, by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

// UsersRegisteredTotal counts successful registrations.
var UsersRegisteredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total number of users registered.",
	},
)

// UsersDeletedTotal counts successful deletions.
var UsersDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_deleted_total",
		Help:      "Total number of users deleted.",
	},
)

// Outcome maps the result of a directory operation to its label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case domain.IsRuleViolation(err):
		return string(domain.ReasonOf(err))
	case errors.Is(err, domain.ErrStoreUnavailable):
		return OutcomeUnavailable
	default:
		return OutcomeError
	}
}

// Observe records one directory operation.
func Observe(operation string, err error) {
	OperationsTotal.WithLabelValues(operation, Outcome(err)).Inc()
	if err != nil {
		return
	}
	switch operation {
	case "register":
		UsersRegisteredTotal.Inc()
	case "delete":
		UsersDeletedTotal.Inc()
	}
}
