package billing

import (
	"context"

	ierr "github.com/satheeshds/portal/errors"
	"github.com/satheeshds/portal/models"
	"github.com/shopspring/decimal"
)

// Composer turns item inputs into priced invoice items.
type Composer struct {
	catalog CatalogReader
}

func NewComposer(catalog CatalogReader) *Composer {
	return &Composer{catalog: catalog}
}

// Compose validates inputs, fills catalog-backed fields and returns the items
// with their subtotal. Catalog values are copied, so later catalog edits do
// not touch items that already carry a unit price.
func (c *Composer) Compose(ctx context.Context, inputs []models.InvoiceItemInput) ([]models.InvoiceItem, decimal.Decimal, error) {
	if len(inputs) == 0 {
		return nil, decimal.Zero, ierr.NewError("no items").
			WithHint("an invoice needs at least one item").
			Mark(ierr.ErrInvalidArgument)
	}

	items := make([]models.InvoiceItem, 0, len(inputs))
	subtotal := decimal.Zero
	for _, in := range inputs {
		item, err := c.composeItem(ctx, in)
		if err != nil {
			return nil, decimal.Zero, err
		}
		items = append(items, item)
		subtotal = subtotal.Add(item.Amount)
	}
	return items, subtotal, nil
}

func (c *Composer) composeItem(ctx context.Context, in models.InvoiceItemInput) (models.InvoiceItem, error) {
	item := models.InvoiceItem{
		ServiceID:   in.ServiceID,
		Name:        in.Name,
		Description: in.Description,
		Quantity:    in.Quantity,
	}

	if in.ServiceID != nil {
		svc, err := c.catalog.GetService(ctx, *in.ServiceID)
		if err != nil {
			return item, err
		}
		if in.UnitPrice == nil && !svc.IsActive {
			return item, ierr.NewError("inactive service").
				WithHintf("service %s is no longer offered", svc.Name).
				Mark(ierr.ErrInvalidArgument)
		}
		if item.Name == "" {
			item.Name = svc.Name
		}
		if in.UnitPrice == nil {
			p := svc.BasePrice
			in.UnitPrice = &p
		}
		if item.Description == nil && svc.Description != "" {
			d := svc.Description
			item.Description = &d
		}
	}

	if item.Name == "" {
		return item, ierr.NewError("missing item name").
			WithHint("custom items need a name").
			Mark(ierr.ErrInvalidArgument)
	}
	if in.UnitPrice == nil {
		return item, ierr.NewError("missing unit price").
			WithHintf("item %q needs a unit_price", item.Name).
			Mark(ierr.ErrInvalidArgument)
	}
	if in.UnitPrice.IsNegative() {
		return item, ierr.NewError("negative unit price").
			WithHintf("item %q: unit_price must be non-negative", item.Name).
			Mark(ierr.ErrInvalidArgument)
	}
	if !in.Quantity.IsPositive() {
		return item, ierr.NewError("non-positive quantity").
			WithHintf("item %q: quantity must be positive", item.Name).
			Mark(ierr.ErrInvalidArgument)
	}

	item.UnitPrice = *in.UnitPrice
	item.Amount = lineAmount(item.Quantity, item.UnitPrice)
	return item, nil
}

func lineAmount(qty, unitPrice decimal.Decimal) decimal.Decimal {
	return qty.Mul(unitPrice).Round(2)
}
