package billing

import (
	"context"

	"github.com/satheeshds/portal/models"
)

// InvoiceReader is the read side used by the access gate.
type InvoiceReader interface {
	// ListInvoices returns the matching invoices from a single consistent read.
	ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]*models.Invoice, error)
}

// InvoiceStore persists invoices as whole aggregates (items and payments
// included), so every write is atomic with respect to the derived totals.
type InvoiceStore interface {
	InvoiceReader
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	// CreateInvoice fails with ErrConflict when the invoice number is taken.
	CreateInvoice(ctx context.Context, inv *models.Invoice) error
	// UpdateInvoice writes inv only if the stored version still equals
	// inv.Version, then bumps inv.Version. A stale version yields ErrConflict.
	// ClientID and InvoiceNumber are never rewritten.
	UpdateInvoice(ctx context.Context, inv *models.Invoice) error
	DeleteInvoice(ctx context.Context, id string) error
	// NextInvoiceSequence atomically increments and returns the counter for period.
	NextInvoiceSequence(ctx context.Context, period string) (int64, error)
}

// CatalogReader is what the item composer needs from the catalog.
type CatalogReader interface {
	GetService(ctx context.Context, id string) (*models.ServiceItem, error)
}

type CatalogStore interface {
	CatalogReader
	ListServices(ctx context.Context, filter models.ServiceFilter) ([]*models.ServiceItem, error)
	CreateService(ctx context.Context, svc *models.ServiceItem) error
	UpdateService(ctx context.Context, svc *models.ServiceItem) error
	DeleteService(ctx context.Context, id string) error
	// ServiceInUse reports whether any invoice item was composed from the service.
	ServiceInUse(ctx context.Context, id string) (bool, error)
}

type ClientStore interface {
	GetClient(ctx context.Context, id string) (*models.Client, error)
	ListClients(ctx context.Context, search string) ([]*models.Client, error)
	CreateClient(ctx context.Context, c *models.Client) error
	UpdateClient(ctx context.Context, c *models.Client) error
	// DeleteClient fails with ErrInvalidState while invoices reference the client.
	DeleteClient(ctx context.Context, id string) error
}

// Store is the full persistence surface of the billing core.
type Store interface {
	InvoiceStore
	CatalogStore
	ClientStore
}
