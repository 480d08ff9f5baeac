package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	ierr "github.com/satheeshds/portal/errors"
	"github.com/satheeshds/portal/metrics"
	"github.com/satheeshds/portal/models"
)

const defaultMutationRetries = 3

// Params wires a Manager.
type Params struct {
	Store   Store
	Logger  *slog.Logger
	Metrics *metrics.Collector
	Company models.CompanyProfile
	// Retries bounds how often a mutation that lost a version race is
	// re-read and re-applied before ErrConflict is returned.
	Retries uint64
	Now     func() time.Time
}

// Manager owns the invoice lifecycle and its payment ledger. Every mutation is
// a read-modify-write against one invoice guarded by the stored version.
type Manager struct {
	store    Store
	composer *Composer
	logger   *slog.Logger
	metrics  *metrics.Collector
	company  models.CompanyProfile
	retries  uint64
	now      func() time.Time
}

func NewManager(p Params) *Manager {
	m := &Manager{
		store:    p.Store,
		composer: NewComposer(p.Store),
		logger:   p.Logger,
		metrics:  p.Metrics,
		company:  p.Company.WithDefaults(),
		retries:  p.Retries,
		now:      p.Now,
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.retries == 0 {
		m.retries = defaultMutationRetries
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Get returns one invoice.
func (m *Manager) Get(ctx context.Context, id string) (*models.Invoice, error) {
	return m.store.GetInvoice(ctx, id)
}

// List returns invoices, newest first.
func (m *Manager) List(ctx context.Context, filter models.InvoiceFilter) ([]*models.Invoice, error) {
	return m.store.ListInvoices(ctx, filter)
}

// View joins an invoice with its client and the issuing company.
func (m *Manager) View(ctx context.Context, id string) (*models.InvoiceView, error) {
	inv, err := m.store.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	client, err := m.store.GetClient(ctx, inv.ClientID)
	if err != nil {
		return nil, err
	}
	return &models.InvoiceView{Invoice: inv, Client: client.Ref(), Issuer: m.company}, nil
}

// Create validates the client and items and stores a new PENDING invoice.
// Without an explicit number one is drawn from the monthly sequence.
func (m *Manager) Create(ctx context.Context, in *models.InvoiceInput) (inv *models.Invoice, err error) {
	defer func() { m.metrics.Mutation("create", err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := m.store.GetClient(ctx, in.ClientID); err != nil {
		return nil, err
	}
	items, _, err := m.composer.Compose(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	now := m.now()
	issueDate := now
	if in.IssueDate != nil {
		issueDate = in.IssueDate.Time
	}
	inv = &models.Invoice{
		ID:        models.NewID(models.IDPrefixInvoice),
		ClientID:  in.ClientID,
		Items:     items,
		Tax:       in.Tax.Round(2),
		Payments:  []models.Payment{},
		IssueDate: issueDate,
		DueDate:   in.DueDate.Time,
		Notes:     in.Notes,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	settle(inv)

	if in.InvoiceNumber != nil && *in.InvoiceNumber != "" {
		inv.InvoiceNumber = *in.InvoiceNumber
		if err := m.store.CreateInvoice(ctx, inv); err != nil {
			return nil, err
		}
	} else if err := m.createNumbered(ctx, inv); err != nil {
		return nil, err
	}

	m.logger.Info("invoice created",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"client_id", inv.ClientID,
		"total_amount", inv.TotalAmount.String())
	return inv, nil
}

// createNumbered assigns the next sequence number and inserts. A generated
// number can collide with one a caller chose by hand, so collisions draw again.
func (m *Manager) createNumbered(ctx context.Context, inv *models.Invoice) error {
	period := m.now().Format("200601")
	for attempt := uint64(0); ; attempt++ {
		seq, err := m.store.NextInvoiceSequence(ctx, period)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = fmt.Sprintf("INV-%s-%05d", period, seq)

		err = m.store.CreateInvoice(ctx, inv)
		if err == nil || !ierr.IsConflict(err) || attempt >= m.retries {
			return err
		}
		m.logger.Warn("generated invoice number already taken", "invoice_number", inv.InvoiceNumber)
	}
}

// Update edits items, tax, due date or notes. Payments are untouched; totals
// and status are recomputed. Client and number cannot change, and cancelled
// invoices are frozen.
func (m *Manager) Update(ctx context.Context, id string, in *models.InvoiceUpdateInput) (inv *models.Invoice, err error) {
	defer func() { m.metrics.Mutation("update", err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	var items []models.InvoiceItem
	if in.Items != nil {
		if items, _, err = m.composer.Compose(ctx, in.Items); err != nil {
			return nil, err
		}
	}

	return m.mutate(ctx, id, "update", func(inv *models.Invoice) (bool, error) {
		if in.Version != nil && *in.Version != inv.Version {
			return false, ierr.NewError("stale invoice version").
				WithHintf("invoice was modified (version %d, expected %d); reload and retry", inv.Version, *in.Version).
				Mark(ierr.ErrConflict)
		}
		if in.ClientID != nil && *in.ClientID != inv.ClientID {
			return false, ierr.NewError("client change").
				WithHint("client_id cannot be changed after creation").
				Mark(ierr.ErrInvalidArgument)
		}
		if in.InvoiceNumber != nil && *in.InvoiceNumber != inv.InvoiceNumber {
			return false, ierr.NewError("number change").
				WithHint("invoice_number cannot be changed after creation").
				Mark(ierr.ErrInvalidArgument)
		}
		if inv.Status == models.InvoiceStatusCancelled {
			return false, errCancelled(inv)
		}

		if items != nil {
			inv.Items = items
		}
		if in.Tax != nil {
			inv.Tax = in.Tax.Round(2)
		}
		if in.DueDate != nil {
			inv.DueDate = in.DueDate.Time
		}
		if in.Notes != nil {
			inv.Notes = in.Notes
		}
		settle(inv)
		return true, nil
	})
}

// SetStatus is the manual override. CANCELLED sticks until another status is
// set here; any other value is advisory and is replaced by the derived status
// on the next payment change.
func (m *Manager) SetStatus(ctx context.Context, id string, status models.InvoiceStatus) (inv *models.Invoice, err error) {
	defer func() { m.metrics.Mutation("set_status", err) }()

	if err := status.Validate(); err != nil {
		return nil, err
	}
	return m.mutate(ctx, id, "set_status", func(inv *models.Invoice) (bool, error) {
		if inv.Status == status {
			return false, nil
		}
		m.logger.Info("invoice status overridden",
			"invoice_id", inv.ID,
			"from", inv.Status,
			"to", status)
		inv.Status = status
		return true, nil
	})
}

// Delete removes the invoice and its payments for good.
func (m *Manager) Delete(ctx context.Context, id string) (err error) {
	defer func() { m.metrics.Mutation("delete", err) }()

	if err := m.store.DeleteInvoice(ctx, id); err != nil {
		return err
	}
	m.logger.Info("invoice deleted", "invoice_id", id)
	return nil
}

// mutate loads the invoice, applies fn and writes it back conditionally on
// the version it read. Lost races are retried from a fresh read; errors from
// fn end the loop. fn returns false when there is nothing to write.
func (m *Manager) mutate(ctx context.Context, id, op string, fn func(inv *models.Invoice) (bool, error)) (*models.Invoice, error) {
	var result *models.Invoice

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 100 * time.Millisecond

	err := backoff.Retry(func() error {
		inv, err := m.store.GetInvoice(ctx, id)
		if err != nil {
			return backoff.Permanent(err)
		}
		changed, err := fn(inv)
		if err != nil {
			return backoff.Permanent(err)
		}
		if changed {
			inv.UpdatedAt = m.now()
			if err := m.store.UpdateInvoice(ctx, inv); err != nil {
				if ierr.IsConflict(err) {
					m.metrics.Conflict(op)
					m.logger.Debug("invoice version conflict, retrying", "invoice_id", id, "operation", op)
					return err
				}
				return backoff.Permanent(err)
			}
		}
		result = inv
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(b, m.retries), ctx))
	if err != nil {
		return nil, err
	}
	return result, nil
}

func errCancelled(inv *models.Invoice) error {
	return ierr.NewError("invoice cancelled").
		WithHintf("invoice %s is cancelled; set a non-cancelled status before changing it", inv.InvoiceNumber).
		Mark(ierr.ErrInvalidState)
}
