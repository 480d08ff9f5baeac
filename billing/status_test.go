package billing

import (
	"testing"

	"github.com/samber/lo"
	"github.com/satheeshds/portal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDerive(t *testing.T) {
	d := decimal.RequireFromString
	cancelled := lo.ToPtr(models.InvoiceStatusCancelled)
	paid := lo.ToPtr(models.InvoiceStatusPaid)

	tests := []struct {
		name     string
		total    decimal.Decimal
		paid     decimal.Decimal
		override *models.InvoiceStatus
		want     models.InvoiceStatus
	}{
		{"nothing paid", d("1350"), d("0"), nil, models.InvoiceStatusPending},
		{"part paid", d("1350"), d("500"), nil, models.InvoiceStatusPartial},
		{"fully paid", d("1350"), d("1350"), nil, models.InvoiceStatusPaid},
		{"overpaid", d("1350"), d("1400"), nil, models.InvoiceStatusPaid},
		{"zero total with no payments", d("0"), d("0"), nil, models.InvoiceStatusPending},
		{"cancelled wins over payments", d("1350"), d("1350"), cancelled, models.InvoiceStatusCancelled},
		{"other overrides do not stick", d("1350"), d("0"), paid, models.InvoiceStatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Derive(tt.total, tt.paid, tt.override))
		})
	}
}

func TestSettle(t *testing.T) {
	inv := &models.Invoice{
		Items: []models.InvoiceItem{
			{Name: "Bookkeeping", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(500), Amount: decimal.NewFromInt(1000)},
			{Name: "GST return", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(300), Amount: decimal.NewFromInt(300)},
		},
		Tax:    decimal.NewFromInt(50),
		Status: models.InvoiceStatusPaid,
		Payments: []models.Payment{
			{ID: "pay_1", Amount: decimal.NewFromInt(1000)},
			{ID: "pay_2", Amount: decimal.NewFromInt(500)},
		},
	}

	settle(inv)

	assert.True(t, decimal.NewFromInt(1300).Equal(inv.Subtotal))
	assert.True(t, decimal.NewFromInt(1350).Equal(inv.TotalAmount))
	assert.True(t, decimal.NewFromInt(1500).Equal(inv.PaidAmount))
	assert.True(t, inv.BalanceAmount.IsZero(), "balance is floored at zero")
	assert.Equal(t, models.InvoiceStatusPaid, inv.Status)

	inv.Status = models.InvoiceStatusCancelled
	inv.Payments = nil
	settle(inv)
	assert.Equal(t, models.InvoiceStatusCancelled, inv.Status)
	assert.True(t, decimal.NewFromInt(1350).Equal(inv.BalanceAmount))
}
