package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/99minutos/user-directory/internal/core/domain"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestOutcome(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, OutcomeSuccess},
		{"rule violation", domain.ErrEmailTaken, "email_taken"},
		{"invalid id", domain.ErrInvalidID, "invalid_id"},
		{"unavailable", fmt.Errorf("find: %w", domain.ErrStoreUnavailable), OutcomeUnavailable},
		{"other", errors.New("boom"), OutcomeError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Outcome(tc.err); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestObserve(t *testing.T) {
	ops := OperationsTotal.WithLabelValues("register", OutcomeSuccess)
	rejected := OperationsTotal.WithLabelValues("register", "username_taken")
	beforeOps := counterValue(t, ops)
	beforeRejected := counterValue(t, rejected)
	beforeRegistered := counterValue(t, UsersRegisteredTotal)

	Observe("register", nil)
	Observe("register", domain.ErrUsernameTaken)

	if got := counterValue(t, ops) - beforeOps; got != 1 {
		t.Fatalf("expected 1 successful register, got %v", got)
	}
	if got := counterValue(t, rejected) - beforeRejected; got != 1 {
		t.Fatalf("expected 1 rejected register, got %v", got)
	}
	if got := counterValue(t, UsersRegisteredTotal) - beforeRegistered; got != 1 {
		t.Fatalf("expected registered counter to advance once, got %v", got)
	}
}
