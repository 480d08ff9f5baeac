package models

import (
	"encoding/json"
	"testing"
	"time"

	ierr "github.com/satheeshds/portal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), d.Time)

	d, err = ParseDate("2026-03-31T10:30:00+05:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 31, 5, 0, 0, 0, time.UTC), d.Time.UTC())

	_, err = ParseDate("31/03/2026")
	assert.True(t, ierr.IsInvalidArgument(err))
}

func TestDateJSON(t *testing.T) {
	var body struct {
		Due  Date  `json:"due"`
		Paid *Date `json:"paid"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2026-01-15","paid":null}`), &body))
	assert.Equal(t, 15, body.Due.Day())
	assert.Nil(t, body.Paid)

	err := json.Unmarshal([]byte(`{"due":"tomorrow"}`), &body)
	assert.Error(t, err)
}
