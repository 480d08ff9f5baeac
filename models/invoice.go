package models

import (
	"time"

	ierr "github.com/satheeshds/portal/errors"
	"github.com/satheeshds/portal/validator"
	"github.com/shopspring/decimal"
)

// InvoiceItem is a line on an invoice. Name and UnitPrice are snapshots taken
// when the item was composed; Amount is always round(Quantity*UnitPrice, 2).
type InvoiceItem struct {
	ServiceID   *string         `json:"service_id,omitempty"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity" swaggertype:"string"`
	UnitPrice   decimal.Decimal `json:"unit_price" swaggertype:"string"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string"`
}

// Payment is an entry in an invoice's ledger. Payments are never edited in
// place, only appended or removed.
type Payment struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string"`
	Date          time.Time       `json:"date"`
	Method        PaymentMethod   `json:"method"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	Note          *string         `json:"note,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Invoice represents a receivable invoice to a client.
type Invoice struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	ClientID      string          `json:"client_id"`
	Items         []InvoiceItem   `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal" swaggertype:"string"`
	Tax           decimal.Decimal `json:"tax" swaggertype:"string"`
	TotalAmount   decimal.Decimal `json:"total_amount" swaggertype:"string"`
	Payments      []Payment       `json:"payments"`
	PaidAmount    decimal.Decimal `json:"paid_amount" swaggertype:"string"`
	BalanceAmount decimal.Decimal `json:"balance_amount" swaggertype:"string"`
	Status        InvoiceStatus   `json:"status"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       time.Time       `json:"due_date"`
	Notes         *string         `json:"notes"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsOverdue reports whether the invoice is past due with money still owed.
// Cancelled invoices are never overdue.
func (inv *Invoice) IsOverdue(now time.Time) bool {
	return inv.Status != InvoiceStatusCancelled &&
		inv.DueDate.Before(now) &&
		inv.BalanceAmount.IsPositive()
}

// Clone returns a deep copy so callers can mutate it without aliasing the
// slices of the original.
func (inv *Invoice) Clone() *Invoice {
	c := *inv
	c.Items = append([]InvoiceItem(nil), inv.Items...)
	c.Payments = append([]Payment(nil), inv.Payments...)
	return &c
}

// InvoiceView is an invoice joined with its resolved client and the issuing
// company, as consumed by document renderers.
type InvoiceView struct {
	Invoice *Invoice       `json:"invoice"`
	Client  ClientRef      `json:"client"`
	Issuer  CompanyProfile `json:"issuer"`
}

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	ClientID string
	Status   *InvoiceStatus
}

// InvoiceItemInput describes one line. Either ServiceID is set, in which case
// missing fields are filled from the catalog, or Name and UnitPrice are given.
type InvoiceItemInput struct {
	ServiceID   *string          `json:"service_id"`
	Name        string           `json:"name" validate:"max=200"`
	Description *string          `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity" swaggertype:"string"`
	UnitPrice   *decimal.Decimal `json:"unit_price" swaggertype:"string"`
}

// InvoiceInput is used for creating invoices.
type InvoiceInput struct {
	ClientID      string             `json:"client_id" validate:"required"`
	InvoiceNumber *string            `json:"invoice_number" validate:"omitempty,max=64"`
	Items         []InvoiceItemInput `json:"items" validate:"required,min=1,dive"`
	Tax           decimal.Decimal    `json:"tax" swaggertype:"string"`
	IssueDate     *Date              `json:"issue_date" swaggertype:"string" example:"2024-04-14"`
	DueDate       *Date              `json:"due_date" swaggertype:"string" example:"2024-04-14" validate:"required"`
	Notes         *string            `json:"notes"`
}

func (i *InvoiceInput) Validate() error {
	if err := validator.ValidateRequest(i); err != nil {
		return err
	}
	if i.Tax.IsNegative() {
		return ierr.NewError("negative tax").
			WithHint("tax must be non-negative").
			Mark(ierr.ErrInvalidArgument)
	}
	return nil
}

// InvoiceUpdateInput carries the editable fields of an invoice; nil fields are
// left unchanged. ClientID and InvoiceNumber are accepted only so a request
// that tries to change them can be rejected explicitly.
type InvoiceUpdateInput struct {
	ClientID      *string            `json:"client_id"`
	InvoiceNumber *string            `json:"invoice_number"`
	Items         []InvoiceItemInput `json:"items" validate:"omitempty,min=1,dive"`
	Tax           *decimal.Decimal   `json:"tax" swaggertype:"string"`
	DueDate       *Date              `json:"due_date" swaggertype:"string" example:"2024-04-14"`
	Notes         *string            `json:"notes"`
	Version       *int               `json:"version"`
}

func (u *InvoiceUpdateInput) Validate() error {
	if err := validator.ValidateRequest(u); err != nil {
		return err
	}
	if u.Tax != nil && u.Tax.IsNegative() {
		return ierr.NewError("negative tax").
			WithHint("tax must be non-negative").
			Mark(ierr.ErrInvalidArgument)
	}
	return nil
}

// PaymentInput records a payment against an invoice. A client-supplied ID
// makes retries idempotent.
type PaymentInput struct {
	ID            *string         `json:"id" validate:"omitempty,max=64"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string"`
	Date          *Date           `json:"date" swaggertype:"string" example:"2024-04-14"`
	Method        PaymentMethod   `json:"method"`
	TransactionID *string         `json:"transaction_id" validate:"omitempty,max=128"`
	Note          *string         `json:"note" validate:"omitempty,max=1000"`
}

func (p *PaymentInput) Validate() error {
	if err := validator.ValidateRequest(p); err != nil {
		return err
	}
	if !p.Amount.IsPositive() {
		return ierr.NewError("non-positive payment amount").
			WithHint("amount must be positive").
			Mark(ierr.ErrInvalidArgument)
	}
	if p.Method == "" {
		p.Method = PaymentMethodOther
	}
	return p.Method.Validate()
}

// StatusInput is the body of a manual status override.
type StatusInput struct {
	Status InvoiceStatus `json:"status"`
}

func (s *StatusInput) Validate() error {
	return s.Status.Validate()
}

// OverdueDetail identifies one overdue invoice in a client summary.
type OverdueDetail struct {
	InvoiceNumber string          `json:"invoice_number"`
	DueDate       time.Time       `json:"due_date"`
	BalanceAmount decimal.Decimal `json:"balance_amount" swaggertype:"string"`
}

// PaymentStatusSummary aggregates a client's non-cancelled invoices. It is
// computed on read and never persisted.
type PaymentStatusSummary struct {
	ClientID         string          `json:"client_id"`
	TotalInvoices    int             `json:"total_invoices"`
	PaidInvoices     int             `json:"paid_invoices"`
	PendingInvoices  int             `json:"pending_invoices"`
	OverdueInvoices  int             `json:"overdue_invoices"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding" swaggertype:"string"`
	OverdueDetails   []OverdueDetail `json:"overdue_details"`
	HasFileAccess    bool            `json:"has_file_access"`
}
