package models

import (
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

const (
	IDPrefixClient  = "cli"
	IDPrefixService = "svc"
	IDPrefixInvoice = "inv"
	IDPrefixPayment = "pay"
)

// NewID returns a k-sortable identifier with a prefix, e.g.
// inv_01hzx3k4m8w6c1v9q2r7t5y0ab.
func NewID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, strings.ToLower(ulid.Make().String()))
}
