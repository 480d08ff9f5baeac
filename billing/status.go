package billing

import (
	"github.com/satheeshds/portal/models"
	"github.com/shopspring/decimal"
)

// Derive maps an invoice's totals and manual override to its status.
// CANCELLED is the only override that survives; everything else follows
// from the paid amount.
func Derive(total, paid decimal.Decimal, override *models.InvoiceStatus) models.InvoiceStatus {
	switch {
	case override != nil && *override == models.InvoiceStatusCancelled:
		return models.InvoiceStatusCancelled
	case !paid.IsPositive():
		return models.InvoiceStatusPending
	case paid.LessThan(total):
		return models.InvoiceStatusPartial
	default:
		return models.InvoiceStatusPaid
	}
}

// manualOverride returns the sticky override carried by inv, if any.
func manualOverride(inv *models.Invoice) *models.InvoiceStatus {
	if inv.Status == models.InvoiceStatusCancelled {
		s := models.InvoiceStatusCancelled
		return &s
	}
	return nil
}

// settle recomputes every derived field of inv from its items, tax and
// payments, then re-derives the status.
func settle(inv *models.Invoice) {
	inv.Subtotal = decimal.Zero
	for _, item := range inv.Items {
		inv.Subtotal = inv.Subtotal.Add(item.Amount)
	}
	inv.TotalAmount = inv.Subtotal.Add(inv.Tax)

	inv.PaidAmount = decimal.Zero
	for _, p := range inv.Payments {
		inv.PaidAmount = inv.PaidAmount.Add(p.Amount)
	}
	inv.BalanceAmount = decimal.Max(inv.TotalAmount.Sub(inv.PaidAmount), decimal.Zero)

	inv.Status = Derive(inv.TotalAmount, inv.PaidAmount, manualOverride(inv))
}
