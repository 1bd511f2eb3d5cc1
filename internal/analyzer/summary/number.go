package summary

import (
	"encoding/json"
	"math"
)

// Number is a statistic that may be undefined. Undefined values (not
// applicable to the column kind, NaN, or infinite) encode as "".
type Number struct {
	value float64
	valid bool
}

// Num wraps v; NaN and infinities become an empty Number.
func Num(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Number{value: v, valid: true}
}

// Value returns the statistic and whether it is defined.
func (n Number) Value() (float64, bool) {
	return n.value, n.valid
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return []byte(`""`), nil
	}
	return json.Marshal(n.value)
}
