package models

import (
	"time"

	ierr "github.com/satheeshds/portal/errors"
	"github.com/satheeshds/portal/validator"
	"github.com/shopspring/decimal"
)

// ServiceItem is a catalog entry used as a template for invoice items.
// Invoices copy its name and price; they never hold a live reference to them.
type ServiceItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	BasePrice   decimal.Decimal `json:"base_price" swaggertype:"string"`
	Category    ServiceCategory `json:"category"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ServiceItemInput is used for creating/updating catalog entries.
type ServiceItemInput struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	BasePrice   decimal.Decimal `json:"base_price" swaggertype:"string"`
	Category    ServiceCategory `json:"category"`
	IsActive    *bool           `json:"is_active"`
}

func (s *ServiceItemInput) Validate() error {
	if err := validator.ValidateRequest(s); err != nil {
		return err
	}
	if s.BasePrice.IsNegative() {
		return ierr.NewError("negative base price").
			WithHint("base_price must be non-negative").
			Mark(ierr.ErrInvalidArgument)
	}
	if s.Category == "" {
		s.Category = ServiceCategoryOther
	}
	return s.Category.Validate()
}

// ServiceFilter narrows catalog listings.
type ServiceFilter struct {
	Category *ServiceCategory
	Active   *bool
}
