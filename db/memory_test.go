package db

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	ierr "github.com/satheeshds/portal/errors"
	"github.com/satheeshds/portal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedClient(t *testing.T, m *Memory, id string) {
	t.Helper()
	require.NoError(t, m.CreateClient(context.Background(), &models.Client{ID: id, Name: "Client " + id}))
}

func sampleInvoice(id, number, clientID string) *models.Invoice {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &models.Invoice{
		ID:            id,
		InvoiceNumber: number,
		ClientID:      clientID,
		Items: []models.InvoiceItem{{
			ServiceID: lo.ToPtr("svc_1"),
			Name:      "GST filing",
			Quantity:  decimal.NewFromInt(1),
			UnitPrice: decimal.NewFromInt(500),
			Amount:    decimal.NewFromInt(500),
		}},
		TotalAmount:   decimal.NewFromInt(500),
		BalanceAmount: decimal.NewFromInt(500),
		Status:        models.InvoiceStatusPending,
		DueDate:       now.AddDate(0, 0, 30),
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestMemory_CreateInvoice(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	t.Run("unknown client", func(t *testing.T) {
		err := m.CreateInvoice(ctx, sampleInvoice("inv_1", "INV-1", "cli_missing"))
		assert.True(t, ierr.IsNotFound(err))
	})

	seedClient(t, m, "cli_1")

	t.Run("duplicate number", func(t *testing.T) {
		require.NoError(t, m.CreateInvoice(ctx, sampleInvoice("inv_1", "INV-1", "cli_1")))
		err := m.CreateInvoice(ctx, sampleInvoice("inv_2", "INV-1", "cli_1"))
		assert.True(t, ierr.IsConflict(err))
	})

	t.Run("number is free again after delete", func(t *testing.T) {
		require.NoError(t, m.DeleteInvoice(ctx, "inv_1"))
		assert.NoError(t, m.CreateInvoice(ctx, sampleInvoice("inv_2", "INV-1", "cli_1")))
	})
}

func TestMemory_UpdateInvoiceVersion(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedClient(t, m, "cli_1")
	require.NoError(t, m.CreateInvoice(ctx, sampleInvoice("inv_1", "INV-1", "cli_1")))

	first, err := m.GetInvoice(ctx, "inv_1")
	require.NoError(t, err)
	second, err := m.GetInvoice(ctx, "inv_1")
	require.NoError(t, err)

	first.Notes = lo.ToPtr("first writer")
	require.NoError(t, m.UpdateInvoice(ctx, first))
	assert.Equal(t, 2, first.Version)

	second.Notes = lo.ToPtr("second writer")
	err = m.UpdateInvoice(ctx, second)
	assert.True(t, ierr.IsConflict(err))

	stored, err := m.GetInvoice(ctx, "inv_1")
	require.NoError(t, err)
	assert.Equal(t, "first writer", *stored.Notes)
	assert.Equal(t, 2, stored.Version)
}

func TestMemory_UpdateInvoiceKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedClient(t, m, "cli_1")
	require.NoError(t, m.CreateInvoice(ctx, sampleInvoice("inv_1", "INV-1", "cli_1")))

	inv, err := m.GetInvoice(ctx, "inv_1")
	require.NoError(t, err)
	inv.ClientID = "cli_other"
	inv.InvoiceNumber = "INV-2"
	require.NoError(t, m.UpdateInvoice(ctx, inv))

	stored, err := m.GetInvoice(ctx, "inv_1")
	require.NoError(t, err)
	assert.Equal(t, "cli_1", stored.ClientID)
	assert.Equal(t, "INV-1", stored.InvoiceNumber)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedClient(t, m, "cli_1")
	require.NoError(t, m.CreateInvoice(ctx, sampleInvoice("inv_1", "INV-1", "cli_1")))

	inv, err := m.GetInvoice(ctx, "inv_1")
	require.NoError(t, err)
	inv.Items[0].Name = "mutated"
	inv.Payments = append(inv.Payments, models.Payment{ID: "pay_1"})

	stored, err := m.GetInvoice(ctx, "inv_1")
	require.NoError(t, err)
	assert.Equal(t, "GST filing", stored.Items[0].Name)
	assert.Empty(t, stored.Payments)
}

func TestMemory_ListInvoicesFilter(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedClient(t, m, "cli_1")
	seedClient(t, m, "cli_2")

	a := sampleInvoice("inv_a", "INV-A", "cli_1")
	b := sampleInvoice("inv_b", "INV-B", "cli_1")
	b.Status = models.InvoiceStatusPaid
	b.CreatedAt = a.CreatedAt.Add(time.Hour)
	c := sampleInvoice("inv_c", "INV-C", "cli_2")
	for _, inv := range []*models.Invoice{a, b, c} {
		require.NoError(t, m.CreateInvoice(ctx, inv))
	}

	got, err := m.ListInvoices(ctx, models.InvoiceFilter{ClientID: "cli_1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "inv_b", got[0].ID, "newest first")

	got, err = m.ListInvoices(ctx, models.InvoiceFilter{Status: lo.ToPtr(models.InvoiceStatusPaid)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "inv_b", got[0].ID)
}

func TestMemory_NextInvoiceSequence(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for want := int64(1); want <= 3; want++ {
		got, err := m.NextInvoiceSequence(ctx, "202403")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	got, err := m.NextInvoiceSequence(ctx, "202404")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got, "each period has its own counter")
}

func TestMemory_ServiceInUse(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedClient(t, m, "cli_1")
	require.NoError(t, m.CreateService(ctx, &models.ServiceItem{ID: "svc_1", Name: "GST filing", IsActive: true}))
	require.NoError(t, m.CreateService(ctx, &models.ServiceItem{ID: "svc_2", Name: "Audit", IsActive: true}))
	require.NoError(t, m.CreateInvoice(ctx, sampleInvoice("inv_1", "INV-1", "cli_1")))

	used, err := m.ServiceInUse(ctx, "svc_1")
	require.NoError(t, err)
	assert.True(t, used)

	used, err = m.ServiceInUse(ctx, "svc_2")
	require.NoError(t, err)
	assert.False(t, used)
}

func TestMemory_ListServicesFilter(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.CreateService(ctx, &models.ServiceItem{ID: "svc_1", Name: "GST return", Category: models.ServiceCategoryGST, IsActive: true}))
	require.NoError(t, m.CreateService(ctx, &models.ServiceItem{ID: "svc_2", Name: "ITR filing", Category: models.ServiceCategoryITR, IsActive: false}))

	active, err := m.ListServices(ctx, models.ServiceFilter{Active: lo.ToPtr(true)})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "svc_1", active[0].ID)

	itr, err := m.ListServices(ctx, models.ServiceFilter{Category: lo.ToPtr(models.ServiceCategoryITR)})
	require.NoError(t, err)
	require.Len(t, itr, 1)
	assert.Equal(t, "svc_2", itr[0].ID)
}

func TestMemory_Clients(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.CreateClient(ctx, &models.Client{ID: "cli_1", Name: "Asha Traders", Email: lo.ToPtr("accounts@asha.example")}))
	require.NoError(t, m.CreateClient(ctx, &models.Client{ID: "cli_2", Name: "Bharat Stores"}))

	t.Run("search matches email", func(t *testing.T) {
		got, err := m.ListClients(ctx, "ASHA.example")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "cli_1", got[0].ID)
	})

	t.Run("referenced client cannot be deleted", func(t *testing.T) {
		require.NoError(t, m.CreateInvoice(ctx, sampleInvoice("inv_1", "INV-1", "cli_1")))
		err := m.DeleteClient(ctx, "cli_1")
		assert.True(t, ierr.IsInvalidState(err))
	})

	t.Run("unreferenced client is deleted", func(t *testing.T) {
		require.NoError(t, m.DeleteClient(ctx, "cli_2"))
		_, err := m.GetClient(ctx, "cli_2")
		assert.True(t, ierr.IsNotFound(err))
	})
}
