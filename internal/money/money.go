// Package money holds peso amounts as integer centavos.
//
// Store prices arrive in the legacy scale used by the storefront, where the stored
// number divided by 10 is the displayed peso amount (150 means ₱15.00). They are
// converted to centavos once, on the way into the database, and every total is
// computed on centavos.
package money

import (
	"fmt"
	"math"
)

// Centavos is an amount of Philippine pesos in hundredths.
type Centavos int64

// FromLegacyPrice converts a legacy-scale store price to centavos.
func FromLegacyPrice(price float64) Centavos {
	return Centavos(math.Round(price * 10))
}

// FromPesos converts a peso amount (as typed by a client) to centavos.
func FromPesos(pesos float64) Centavos {
	return Centavos(math.Round(pesos * 100))
}

// LegacyPrice converts back to the storefront scale.
func (c Centavos) LegacyPrice() float64 {
	return float64(c) / 10
}

func (c Centavos) Pesos() float64 {
	return float64(c) / 100
}

// Times multiplies a non-negative unit price by a non-negative quantity. ok is
// false when the product does not fit in an int64.
func (c Centavos) Times(qty int) (_ Centavos, ok bool) {
	if c < 0 || qty < 0 {
		return 0, false
	}
	if qty != 0 && int64(c) > math.MaxInt64/int64(qty) {
		return 0, false
	}
	return c * Centavos(qty), true
}

// Plus adds d to c. ok is false on int64 overflow.
func (c Centavos) Plus(d Centavos) (_ Centavos, ok bool) {
	s := c + d
	if (d > 0 && s < c) || (d < 0 && s > c) {
		return 0, false
	}
	return s, true
}

// Percent returns pct percent of c, rounded half away from zero to the centavo.
// ok is false when the intermediate product overflows.
func (c Centavos) Percent(pct int64) (_ Centavos, ok bool) {
	if pct < 0 {
		return 0, false
	}
	v := int64(c)
	if v < 0 {
		if v == math.MinInt64 {
			return 0, false
		}
		r, ok := Centavos(-v).Percent(pct)
		return -r, ok
	}
	if pct != 0 && v > (math.MaxInt64-50)/pct {
		return 0, false
	}
	return Centavos((v*pct + 50) / 100), true
}

// String formats c as pesos with two decimals, e.g. "33.60".
func (c Centavos) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON writes c as a JSON number with exactly two decimals.
func (c Centavos) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}
