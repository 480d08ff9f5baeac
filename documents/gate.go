package documents

import (
	"context"
	"log/slog"
	"time"

	ierr "github.com/satheeshds/portal/errors"
	"github.com/satheeshds/portal/metrics"
	"github.com/satheeshds/portal/models"
	"github.com/sony/gobreaker"
)

const (
	defaultTimeout          = 2 * time.Second
	defaultBreakerFailures  = 5
	defaultBreakerCooldown  = 30 * time.Second
	breakerHalfOpenRequests = 1
)

// Evaluator produces the payment status a gate decision is based on.
type Evaluator interface {
	Evaluate(ctx context.Context, clientID string) (models.PaymentStatusSummary, error)
}

type GateConfig struct {
	// Timeout bounds one evaluation.
	Timeout time.Duration
	// BreakerFailures is the number of consecutive evaluation failures that
	// open the breaker.
	BreakerFailures uint32
	// BreakerCooldown is how long the breaker stays open before probing.
	BreakerCooldown time.Duration
}

// Gate decides whether a client may read their documents. Only a confirmed
// overdue invoice blocks; when billing cannot be evaluated the gate allows
// the request and logs it.
type Gate struct {
	evaluator Evaluator
	breaker   *gobreaker.CircuitBreaker
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *metrics.Collector
}

func NewGate(evaluator Evaluator, cfg GateConfig, logger *slog.Logger, m *metrics.Collector) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = defaultBreakerFailures
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = defaultBreakerCooldown
	}

	g := &Gate{
		evaluator: evaluator,
		timeout:   cfg.Timeout,
		logger:    logger,
		metrics:   m,
	}
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "payment-status",
		MaxRequests: breakerHalfOpenRequests,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String())
		},
	})
	return g
}

// Authorize returns nil when the client may access documents and an
// ErrAccessBlocked error when at least one invoice is overdue. A caller that
// has already gone away gets its context error back; that never counts
// against the breaker.
func (g *Gate) Authorize(ctx context.Context, clientID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Only the gate timeout ends an evaluation. The caller's cancellation
	// must not look like a billing outage to the breaker.
	v, err := g.breaker.Execute(func() (any, error) {
		evalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()
		return g.evaluator.Evaluate(evalCtx, clientID)
	})
	if err != nil {
		g.metrics.GateDecision(metrics.DecisionFailOpen)
		g.logger.Warn("payment status unavailable, allowing document access",
			"client_id", clientID,
			"breaker_state", g.breaker.State().String(),
			"error", err)
		return nil
	}

	summary := v.(models.PaymentStatusSummary)
	if summary.HasFileAccess {
		g.metrics.GateDecision(metrics.DecisionAllowed)
		return nil
	}

	g.metrics.GateDecision(metrics.DecisionBlocked)
	g.logger.Info("document access blocked",
		"client_id", clientID,
		"overdue_invoices", summary.OverdueInvoices)
	return ierr.NewError("document access blocked").
		WithHintf("access to documents is blocked: %d overdue invoice(s) outstanding", summary.OverdueInvoices).
		WithReportableDetails(map[string]any{
			"overdue_invoices":  summary.OverdueInvoices,
			"total_outstanding": summary.TotalOutstanding.String(),
		}).
		Mark(ierr.ErrAccessBlocked)
}
