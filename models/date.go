package models

import (
	"bytes"
	"encoding/json"
	"time"

	ierr "github.com/satheeshds/portal/errors"
)

const dateLayout = "2006-01-02"

// Date accepts either a calendar date (2006-01-02, taken as midnight UTC) or
// a full RFC 3339 timestamp in request bodies.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{Time: t}
}

// ParseDate parses the forms accepted by Date.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, ierr.WithError(err).
			WithHintf("malformed date %q: use YYYY-MM-DD or RFC 3339", s).
			Mark(ierr.ErrInvalidArgument)
	}
	return Date{Time: t}, nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ierr.WithError(err).WithHint("dates must be strings").Mark(ierr.ErrInvalidArgument)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(time.RFC3339))
}
