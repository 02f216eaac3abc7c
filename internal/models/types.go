// internal/models/types.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Quantity is a profile value that callers send either as a JSON number or
// as a string ("50000", "2.5 acres"). The textual form is kept as received.
type Quantity struct {
	text   string
	number bool
}

// NumberQuantity builds a Quantity from a numeric value.
func NumberQuantity(v float64) Quantity {
	return Quantity{text: strconv.FormatFloat(v, 'f', -1, 64), number: true}
}

// TextQuantity builds a Quantity from free text.
func TextQuantity(s string) Quantity {
	return Quantity{text: s}
}

func (q Quantity) String() string { return q.text }

// Float parses the leading numeric part of the value.
func (q Quantity) Float() (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(q.text, ",", ""))
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	if fields := strings.Fields(s); len(fields) > 0 {
		if v, err := strconv.ParseFloat(fields[0], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// IsEmpty reports a blank string or a numeric zero.
func (q Quantity) IsEmpty() bool {
	if strings.TrimSpace(q.text) == "" {
		return true
	}
	if q.number {
		v, _ := q.Float()
		return v == 0
	}
	return false
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.number {
		return []byte(q.text), nil
	}
	return json.Marshal(q.text)
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*q = Quantity{}
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = Quantity{text: s}
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("quantity must be a number or string: %w", err)
		}
		*q = Quantity{text: n.String(), number: true}
	}
	return nil
}

// ID is a record identifier that may arrive as a JSON number or string.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a number or string: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Decimal is a money amount. Django-style APIs serialize decimals as strings,
// so both forms are accepted.
type Decimal float64

func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*d = 0
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", s, err)
		}
		*d = Decimal(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*d = Decimal(v)
	return nil
}

// String formats the amount without a trailing ".00" for whole values.
func (d Decimal) String() string {
	return strconv.FormatFloat(float64(d), 'f', -1, 64)
}

// StringSet holds identifiers or labels. A JSON array of strings or numbers
// and a comma separated string are all accepted.
type StringSet []string

func (s *StringSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		var out StringSet
		for _, part := range strings.Split(str, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		*s = out
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("expected array or string: %w", err)
	}
	out := make(StringSet, 0, len(raw))
	for _, item := range raw {
		var id ID
		if err := id.UnmarshalJSON(item); err != nil {
			return err
		}
		out = append(out, string(id))
	}
	*s = out
	return nil
}
