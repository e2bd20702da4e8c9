package property

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Optional is a JSON field that tells apart "absent", "null" and a value.
// Numbers and booleans are also accepted as strings, which is what HTML
// forms post.
type Optional[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// Some returns a present, non-null Optional
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Valid: true, Value: v}
}

// Null returns a present, null Optional
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// Ptr returns the value or nil when absent or null
func (o Optional[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	var zero T
	o.Set = true
	o.Valid = false
	o.Value = zero

	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(b, &o.Value); err == nil {
		o.Valid = true
		return nil
	}

	if sp, ok := any(&o.Value).(*string); ok {
		// numbers or booleans posted into a text field
		*sp = string(b)
		o.Valid = true
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("invalid value %s", b)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	switch p := any(&o.Value).(type) {
	case *float64:
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("invalid number %q", s)
		}
		*p = f
	case *int:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return fmt.Errorf("invalid integer %q", s)
		}
		*p = int(f)
	case *bool:
		switch strings.ToLower(s) {
		case "1", "true", "yes", "on", "y":
			*p = true
		case "0", "false", "no", "off", "n":
			*p = false
		default:
			return fmt.Errorf("invalid boolean %q", s)
		}
	default:
		return fmt.Errorf("invalid value %s", b)
	}
	o.Valid = true
	return nil
}
