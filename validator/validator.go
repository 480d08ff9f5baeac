package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	ierr "github.com/satheeshds/portal/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// GetValidator returns the shared validator instance.
func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report json names so hints match the request body
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateRequest runs struct tag validation on req and marks failures as
// invalid arguments, listing the offending fields as details.
func ValidateRequest(req any) error {
	if err := GetValidator().Struct(req); err != nil {
		details := make(map[string]any)
		var validateErrs validator.ValidationErrors
		if ierr.As(err, &validateErrs) {
			for _, fe := range validateErrs {
				details[fe.Field()] = fe.Error()
			}
			return ierr.WithError(err).
				WithHintf("invalid %s: failed %q check", validateErrs[0].Field(), validateErrs[0].Tag()).
				WithReportableDetails(details).
				Mark(ierr.ErrInvalidArgument)
		}
		return ierr.WithError(err).
			WithHint("request validation failed").
			Mark(ierr.ErrInvalidArgument)
	}
	return nil
}
