package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/satheeshds/portal/models"
)

// DeleteOutcome tells the caller what Catalog.Delete did.
type DeleteOutcome string

const (
	ServiceDeleted     DeleteOutcome = "deleted"
	ServiceDeactivated DeleteOutcome = "deactivated"
)

// Catalog manages service items. Entries referenced by an invoice are
// deactivated instead of removed.
type Catalog struct {
	store  CatalogStore
	logger *slog.Logger
	now    func() time.Time
}

func NewCatalog(store CatalogStore, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{store: store, logger: logger, now: time.Now}
}

func (c *Catalog) List(ctx context.Context, filter models.ServiceFilter) ([]*models.ServiceItem, error) {
	return c.store.ListServices(ctx, filter)
}

func (c *Catalog) Get(ctx context.Context, id string) (*models.ServiceItem, error) {
	return c.store.GetService(ctx, id)
}

func (c *Catalog) Create(ctx context.Context, in *models.ServiceItemInput) (*models.ServiceItem, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := c.now()
	svc := &models.ServiceItem{
		ID:          models.NewID(models.IDPrefixService),
		Name:        in.Name,
		Description: in.Description,
		BasePrice:   in.BasePrice.Round(2),
		Category:    in.Category,
		IsActive:    lo.FromPtrOr(in.IsActive, true),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.store.CreateService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// Update edits a catalog entry. Invoices already issued keep the values they
// copied at composition time.
func (c *Catalog) Update(ctx context.Context, id string, in *models.ServiceItemInput) (*models.ServiceItem, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	svc, err := c.store.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	svc.Name = in.Name
	svc.Description = in.Description
	svc.BasePrice = in.BasePrice.Round(2)
	svc.Category = in.Category
	if in.IsActive != nil {
		svc.IsActive = *in.IsActive
	}
	svc.UpdatedAt = c.now()
	if err := c.store.UpdateService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (c *Catalog) Delete(ctx context.Context, id string) (DeleteOutcome, error) {
	svc, err := c.store.GetService(ctx, id)
	if err != nil {
		return "", err
	}
	inUse, err := c.store.ServiceInUse(ctx, id)
	if err != nil {
		return "", err
	}
	if !inUse {
		if err := c.store.DeleteService(ctx, id); err != nil {
			return "", err
		}
		return ServiceDeleted, nil
	}

	svc.IsActive = false
	svc.UpdatedAt = c.now()
	if err := c.store.UpdateService(ctx, svc); err != nil {
		return "", err
	}
	c.logger.Info("service referenced by invoices, deactivated instead of deleted", "service_id", id)
	return ServiceDeactivated, nil
}
