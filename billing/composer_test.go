package billing_test

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/satheeshds/portal/billing"
	"github.com/satheeshds/portal/db"
	ierr "github.com/satheeshds/portal/errors"
	"github.com/satheeshds/portal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCatalog(t *testing.T) (*db.Memory, *billing.Catalog, *models.ServiceItem, *models.ServiceItem) {
	t.Helper()
	ctx := context.Background()
	store := db.NewMemory()
	catalog := billing.NewCatalog(store, nil)

	gst, err := catalog.Create(ctx, &models.ServiceItemInput{
		Name:        "GST return",
		Description: "Monthly GSTR-1 and GSTR-3B",
		BasePrice:   money("1500"),
		Category:    models.ServiceCategoryGST,
	})
	require.NoError(t, err)
	retired, err := catalog.Create(ctx, &models.ServiceItemInput{
		Name:      "Manual ledger",
		BasePrice: money("200"),
		IsActive:  lo.ToPtr(false),
	})
	require.NoError(t, err)
	return store, catalog, gst, retired
}

func TestComposer(t *testing.T) {
	ctx := context.Background()
	store, _, gst, retired := seedCatalog(t)
	composer := billing.NewComposer(store)

	t.Run("fills name, price and description from the catalog", func(t *testing.T) {
		items, subtotal, err := composer.Compose(ctx, []models.InvoiceItemInput{
			{ServiceID: lo.ToPtr(gst.ID), Quantity: money("3")},
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "GST return", items[0].Name)
		assert.Equal(t, "Monthly GSTR-1 and GSTR-3B", *items[0].Description)
		assertMoney(t, "1500", items[0].UnitPrice, "unit price")
		assertMoney(t, "4500", items[0].Amount, "amount")
		assertMoney(t, "4500", subtotal, "subtotal")
	})

	t.Run("explicit values win over the catalog", func(t *testing.T) {
		items, _, err := composer.Compose(ctx, []models.InvoiceItemInput{
			{ServiceID: lo.ToPtr(gst.ID), Name: "GST return (Q4)", Quantity: money("1"), UnitPrice: lo.ToPtr(money("1200"))},
		})
		require.NoError(t, err)
		assert.Equal(t, "GST return (Q4)", items[0].Name)
		assertMoney(t, "1200", items[0].UnitPrice, "unit price")
	})

	t.Run("line amounts round to cents", func(t *testing.T) {
		items, _, err := composer.Compose(ctx, []models.InvoiceItemInput{
			{Name: "Hourly advisory", Quantity: money("1.5"), UnitPrice: lo.ToPtr(money("333.333"))},
		})
		require.NoError(t, err)
		assertMoney(t, "500", items[0].Amount, "amount")
	})

	t.Run("inactive service needs an explicit price", func(t *testing.T) {
		_, _, err := composer.Compose(ctx, []models.InvoiceItemInput{
			{ServiceID: lo.ToPtr(retired.ID), Quantity: money("1")},
		})
		assert.True(t, ierr.IsInvalidArgument(err))

		items, _, err := composer.Compose(ctx, []models.InvoiceItemInput{
			{ServiceID: lo.ToPtr(retired.ID), Quantity: money("1"), UnitPrice: lo.ToPtr(money("250"))},
		})
		require.NoError(t, err)
		assert.Equal(t, "Manual ledger", items[0].Name)
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name  string
			input models.InvoiceItemInput
			check func(error) bool
		}{
			{"unknown service", models.InvoiceItemInput{ServiceID: lo.ToPtr("svc_missing"), Quantity: money("1")}, ierr.IsNotFound},
			{"custom item without name", models.InvoiceItemInput{Quantity: money("1"), UnitPrice: lo.ToPtr(money("10"))}, ierr.IsInvalidArgument},
			{"custom item without price", models.InvoiceItemInput{Name: "Notary", Quantity: money("1")}, ierr.IsInvalidArgument},
			{"negative price", models.InvoiceItemInput{Name: "Notary", Quantity: money("1"), UnitPrice: lo.ToPtr(money("-1"))}, ierr.IsInvalidArgument},
			{"zero quantity", models.InvoiceItemInput{Name: "Notary", Quantity: money("0"), UnitPrice: lo.ToPtr(money("10"))}, ierr.IsInvalidArgument},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, _, err := composer.Compose(ctx, []models.InvoiceItemInput{tt.input})
				assert.True(t, tt.check(err), "got %v", err)
			})
		}

		_, _, err := composer.Compose(ctx, nil)
		assert.True(t, ierr.IsInvalidArgument(err))
	})
}

func TestCatalogEditsDoNotTouchIssuedInvoices(t *testing.T) {
	ctx := context.Background()
	store, catalog, gst, _ := seedCatalog(t)
	require.NoError(t, store.CreateClient(ctx, &models.Client{ID: "cli_1", Name: "One"}))
	manager := billing.NewManager(billing.Params{Store: store})

	inv, err := manager.Create(ctx, &models.InvoiceInput{
		ClientID: "cli_1",
		Items:    []models.InvoiceItemInput{{ServiceID: lo.ToPtr(gst.ID), Quantity: money("1")}},
		DueDate:  lo.ToPtr(models.NewDate(testNow)),
	})
	require.NoError(t, err)

	_, err = catalog.Update(ctx, gst.ID, &models.ServiceItemInput{
		Name:      "GST return (revised)",
		BasePrice: money("1800"),
		Category:  models.ServiceCategoryGST,
	})
	require.NoError(t, err)

	stored, err := manager.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "GST return", stored.Items[0].Name)
	assertMoney(t, "1500", stored.Items[0].UnitPrice, "unit price")
	assertMoney(t, "1500", stored.TotalAmount, "total")
}
