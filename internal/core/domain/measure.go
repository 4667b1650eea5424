package domain

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

// Value holds a catalog measurement that may be encoded as a JSON string or number.
type Value string

// UnmarshalJSON accepts "0.0206", 0.0206 and null.
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Value(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	*v = Value(n.String())
	return nil
}

// MarshalJSON writes numeric-looking values as numbers and everything else as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v == "" {
		return []byte("null"), nil
	}
	if isJSONNumber(string(v)) {
		return []byte(v), nil
	}
	return json.Marshal(string(v))
}

// Float parses the value as a finite float64. NaN and infinities are errors.
func (v Value) Float() (float64, error) {
	f, err := strconv.ParseFloat(string(bytes.TrimSpace([]byte(v))), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("value %q is not a finite number", string(v))
	}
	return f, nil
}

func (v Value) String() string { return string(v) }

func isJSONNumber(s string) bool {
	if s == "" || !(s[0] == '-' || (s[0] >= '0' && s[0] <= '9')) {
		return false
	}
	return json.Valid([]byte(s))
}
