package billing

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	ierr "github.com/satheeshds/portal/errors"
	"github.com/satheeshds/portal/metrics"
	"github.com/satheeshds/portal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Evaluator computes a client's payment status summary and file-access
// decision from persisted invoices. It only reads.
type Evaluator struct {
	invoices InvoiceReader
	logger   *slog.Logger
	metrics  *metrics.Collector
	now      func() time.Time
	group    singleflight.Group
	// reads orders caller arrivals against the start of shared reads.
	reads atomic.Uint64
}

// readTimeout bounds a shared read, which no single caller can cancel.
const readTimeout = 10 * time.Second

type snapshot struct {
	started uint64
	summary models.PaymentStatusSummary
	err     error
}

func NewEvaluator(invoices InvoiceReader, logger *slog.Logger, m *metrics.Collector, now func() time.Time) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Evaluator{invoices: invoices, logger: logger, metrics: m, now: now}
}

// Evaluate summarizes the client's invoices as of one read. Concurrent calls
// for the same client share that read, but a caller only accepts a read that
// started after it arrived, so a write committed before the call is always
// visible. Any failure to read is reported as ErrUpstreamUnavailable.
func (e *Evaluator) Evaluate(ctx context.Context, clientID string) (models.PaymentStatusSummary, error) {
	start := time.Now()
	defer e.metrics.ObserveEvaluation(start)

	arrived := e.reads.Add(1)
	for {
		ch := e.group.DoChan(clientID, func() (any, error) {
			return e.read(context.WithoutCancel(ctx), clientID), nil
		})
		select {
		case <-ctx.Done():
			err := ctx.Err()
			if ierr.Is(err, context.DeadlineExceeded) {
				return models.PaymentStatusSummary{}, ierr.WithError(err).
					WithHint("billing data is temporarily unavailable").
					Mark(ierr.ErrUpstreamUnavailable)
			}
			return models.PaymentStatusSummary{}, err
		case res := <-ch:
			snap := res.Val.(snapshot)
			if snap.started < arrived {
				continue
			}
			if snap.err != nil {
				return models.PaymentStatusSummary{}, snap.err
			}
			return snap.summary, nil
		}
	}
}

func (e *Evaluator) read(ctx context.Context, clientID string) snapshot {
	snap := snapshot{started: e.reads.Add(1)}
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	invoices, err := e.invoices.ListInvoices(ctx, models.InvoiceFilter{ClientID: clientID})
	if err != nil {
		e.logger.Error("payment status read failed", "client_id", clientID, "error", err)
		snap.err = ierr.WithError(err).
			WithHint("billing data is temporarily unavailable").
			Mark(ierr.ErrUpstreamUnavailable)
		return snap
	}
	snap.summary = Summarize(clientID, invoices, e.now())
	return snap
}

// Overview summarizes every client's invoices together. HasFileAccess has no
// meaning across clients and is left false.
func (e *Evaluator) Overview(ctx context.Context) (models.PaymentStatusSummary, []*models.Invoice, error) {
	invoices, err := e.invoices.ListInvoices(ctx, models.InvoiceFilter{})
	if err != nil {
		return models.PaymentStatusSummary{}, nil, ierr.WithError(err).
			WithHint("billing data is temporarily unavailable").
			Mark(ierr.ErrUpstreamUnavailable)
	}
	s := Summarize("", invoices, e.now())
	s.HasFileAccess = false
	return s, invoices, nil
}

// Summarize aggregates invoices as of now. Cancelled invoices are ignored.
// Access is granted only when no invoice is past due with a positive balance.
func Summarize(clientID string, invoices []*models.Invoice, now time.Time) models.PaymentStatusSummary {
	s := models.PaymentStatusSummary{
		ClientID:         clientID,
		TotalOutstanding: decimal.Zero,
		OverdueDetails:   []models.OverdueDetail{},
	}
	for _, inv := range invoices {
		if inv.Status == models.InvoiceStatusCancelled {
			continue
		}
		s.TotalInvoices++
		switch inv.Status {
		case models.InvoiceStatusPaid:
			s.PaidInvoices++
		case models.InvoiceStatusPending, models.InvoiceStatusPartial:
			s.PendingInvoices++
		}
		s.TotalOutstanding = s.TotalOutstanding.Add(inv.BalanceAmount)
		if inv.IsOverdue(now) {
			s.OverdueDetails = append(s.OverdueDetails, models.OverdueDetail{
				InvoiceNumber: inv.InvoiceNumber,
				DueDate:       inv.DueDate,
				BalanceAmount: inv.BalanceAmount,
			})
		}
	}
	slices.SortFunc(s.OverdueDetails, func(a, b models.OverdueDetail) int {
		return a.DueDate.Compare(b.DueDate)
	})
	s.OverdueInvoices = len(s.OverdueDetails)
	s.HasFileAccess = s.OverdueInvoices == 0
	return s
}
