package models

import (
	"github.com/samber/lo"
	ierr "github.com/satheeshds/portal/errors"
)

// InvoiceStatus is the payment state of an invoice. Overdue is not a status;
// it is derived at read time from the due date and balance.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusPartial   InvoiceStatus = "PARTIAL"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusPending,
		InvoiceStatusPartial,
		InvoiceStatusPaid,
		InvoiceStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHintf("status must be one of: PENDING, PARTIAL, PAID, CANCELLED (got %q)", s).
			Mark(ierr.ErrInvalidArgument)
	}
	return nil
}

// PaymentMethod is how a payment was received.
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodUPI          PaymentMethod = "UPI"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

func (m PaymentMethod) Validate() error {
	allowed := []PaymentMethod{
		PaymentMethodCash,
		PaymentMethodBankTransfer,
		PaymentMethodUPI,
		PaymentMethodCheque,
		PaymentMethodOther,
	}
	if !lo.Contains(allowed, m) {
		return ierr.NewError("invalid payment method").
			WithHintf("method must be one of: CASH, BANK_TRANSFER, UPI, CHEQUE, OTHER (got %q)", m).
			Mark(ierr.ErrInvalidArgument)
	}
	return nil
}

// ServiceCategory groups catalog entries.
type ServiceCategory string

const (
	ServiceCategoryITR        ServiceCategory = "ITR"
	ServiceCategoryGST        ServiceCategory = "GST"
	ServiceCategoryAccounting ServiceCategory = "ACCOUNTING"
	ServiceCategoryOther      ServiceCategory = "OTHER"
)

func (c ServiceCategory) Validate() error {
	allowed := []ServiceCategory{
		ServiceCategoryITR,
		ServiceCategoryGST,
		ServiceCategoryAccounting,
		ServiceCategoryOther,
	}
	if !lo.Contains(allowed, c) {
		return ierr.NewError("invalid service category").
			WithHintf("category must be one of: ITR, GST, ACCOUNTING, OTHER (got %q)", c).
			Mark(ierr.ErrInvalidArgument)
	}
	return nil
}
