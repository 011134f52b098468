package core

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// NullFloat64 is a real number that may be explicitly missing.
// The zero value is missing.
type NullFloat64 struct {
	Float64 float64
	Valid   bool
}

// Float returns a present value. NaN and infinities are treated as missing.
func Float(v float64) NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat64{}
	}
	return NullFloat64{Float64: v, Valid: true}
}

// Missing returns the missing-value sentinel
func Missing() NullFloat64 {
	return NullFloat64{}
}

// IsMissing reports whether the value is absent
func (n NullFloat64) IsMissing() bool {
	return !n.Valid
}

// OrNaN returns the value, or NaN when missing
func (n NullFloat64) OrNaN() float64 {
	if !n.Valid {
		return math.NaN()
	}
	return n.Float64
}

// Format renders the value with 'g' formatting, or the given token when missing
func (n NullFloat64) Format(missing string) string {
	if !n.Valid {
		return missing
	}
	return strconv.FormatFloat(n.Float64, 'g', -1, 64)
}

func (n NullFloat64) String() string {
	return n.Format("NA")
}

// MarshalJSON encodes missing values as null
func (n NullFloat64) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

// UnmarshalJSON accepts a number or null
func (n *NullFloat64) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = NullFloat64{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: expected number or null, got %s", ErrInvalidInput, string(data))
	}
	*n = Float(v)
	return nil
}

// Value implements driver.Valuer
func (n NullFloat64) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Float64, nil
}

// Scan implements sql.Scanner
func (n *NullFloat64) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*n = NullFloat64{}
	case float64:
		*n = Float(v)
	case int64:
		*n = Float(float64(v))
	case []byte:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return fmt.Errorf("scan NullFloat64: %w", err)
		}
		*n = Float(f)
	default:
		return fmt.Errorf("scan NullFloat64: unsupported type %T", src)
	}
	return nil
}
