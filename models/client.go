package models

import (
	"time"

	"github.com/satheeshds/portal/validator"
)

// Client is a customer of the practice.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClientInput is used for creating/updating clients.
type ClientInput struct {
	Name  string  `json:"name" validate:"required,max=200"`
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone" validate:"omitempty,max=32"`
}

func (c *ClientInput) Validate() error {
	return validator.ValidateRequest(c)
}

// ClientRef is the resolved client shown next to an invoice.
type ClientRef struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

func (c *Client) Ref() ClientRef {
	return ClientRef{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone}
}
