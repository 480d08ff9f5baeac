package billing

import (
	"context"

	"github.com/samber/lo"
	ierr "github.com/satheeshds/portal/errors"
	"github.com/satheeshds/portal/models"
)

// AddPayment appends a payment to the invoice ledger and recomputes paid,
// balance and status in the same write. Re-submitting a payment ID that is
// already on the ledger returns the invoice unchanged.
func (m *Manager) AddPayment(ctx context.Context, invoiceID string, in *models.PaymentInput) (inv *models.Invoice, err error) {
	defer func() { m.metrics.Mutation("add_payment", err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := m.now()
	payment := models.Payment{
		ID:            lo.FromPtrOr(in.ID, ""),
		Amount:        in.Amount.Round(2),
		Date:          now,
		Method:        in.Method,
		TransactionID: in.TransactionID,
		Note:          in.Note,
		CreatedAt:     now,
	}
	if payment.ID == "" {
		payment.ID = models.NewID(models.IDPrefixPayment)
	}
	if in.Date != nil {
		payment.Date = in.Date.Time
	}
	if !payment.Amount.IsPositive() {
		return nil, ierr.NewError("payment rounds to zero").
			WithHint("amount must be at least 0.01").
			Mark(ierr.ErrInvalidArgument)
	}

	inv, err = m.mutate(ctx, invoiceID, "add_payment", func(inv *models.Invoice) (bool, error) {
		if inv.Status == models.InvoiceStatusCancelled {
			return false, errCancelled(inv)
		}
		if lo.ContainsBy(inv.Payments, func(p models.Payment) bool { return p.ID == payment.ID }) {
			return false, nil
		}
		inv.Payments = append(inv.Payments, payment)
		settle(inv)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("payment recorded",
		"invoice_id", inv.ID,
		"payment_id", payment.ID,
		"amount", payment.Amount.String(),
		"status", inv.Status)
	return inv, nil
}

// DeletePayment removes one payment from the ledger and recomputes.
func (m *Manager) DeletePayment(ctx context.Context, invoiceID, paymentID string) (inv *models.Invoice, err error) {
	defer func() { m.metrics.Mutation("delete_payment", err) }()

	inv, err = m.mutate(ctx, invoiceID, "delete_payment", func(inv *models.Invoice) (bool, error) {
		idx := lo.IndexOf(lo.Map(inv.Payments, func(p models.Payment, _ int) string { return p.ID }), paymentID)
		if idx < 0 {
			return false, ierr.NewError("payment not found").
				WithHintf("payment %s is not recorded on invoice %s", paymentID, inv.InvoiceNumber).
				Mark(ierr.ErrNotFound)
		}
		if inv.Status == models.InvoiceStatusCancelled {
			return false, errCancelled(inv)
		}
		inv.Payments = append(inv.Payments[:idx:idx], inv.Payments[idx+1:]...)
		settle(inv)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("payment removed",
		"invoice_id", inv.ID,
		"payment_id", paymentID,
		"status", inv.Status)
	return inv, nil
}
