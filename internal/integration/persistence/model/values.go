package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Amount is a decimal that is written as a bare JSON number and read from
// either a number or a numeric string. Empty strings and null read as zero.
type Amount struct {
	decimal.Decimal
	// Malformed is set when the stored value could not be parsed.
	Malformed bool
}

// MarshalJSON writes the amount as a JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// UnmarshalJSON accepts 12.5, "12.5", "", and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(unquote(data)))
	if raw == "" || raw == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		a.Decimal = decimal.Zero
		a.Malformed = true
		return nil
	}
	a.Decimal = d
	return nil
}

// Count is an integer read from either a number or a numeric string.
type Count struct {
	Value     int64
	Malformed bool
}

// MarshalJSON writes the count as a JSON number.
func (c Count) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(c.Value, 10)), nil
}

// UnmarshalJSON accepts 3, 3.0, "3", "", and null.
func (c *Count) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(unquote(data)))
	if raw == "" || raw == "null" {
		c.Value = 0
		return nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		c.Value = n
		return nil
	}
	if d, err := decimal.NewFromString(raw); err == nil {
		c.Value = d.IntPart()
		return nil
	}
	c.Value = 0
	c.Malformed = true
	return nil
}

// ID is an identifier stored either as a string or as a number.
type ID string

// UnmarshalJSON accepts "abc", 1712345678901, and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Timestamp is a point in time stored as RFC 3339, a plain date, or epoch milliseconds.
type Timestamp struct {
	time.Time
	Malformed bool
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// MarshalJSON writes the time as RFC 3339 in UTC.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts the layouts in timestampLayouts or a millisecond epoch.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	if len(data) > 0 && data[0] != '"' {
		ms, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			t.Malformed = true
			return nil
		}
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}

	raw := strings.TrimSpace(string(unquote(data)))
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	t.Malformed = true
	return nil
}

// NewTimestamp wraps a time for encoding.
func NewTimestamp(tm time.Time) Timestamp {
	return Timestamp{Time: tm}
}

// unquote strips one pair of surrounding double quotes.
func unquote(data []byte) []byte {
	data = bytes.TrimSpace(data)
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		return data[1 : len(data)-1]
	}
	return data
}
