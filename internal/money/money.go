// Package money holds the single-currency amount type used across the storefront.
// Amounts are whole CLP units; the currency has no minor unit.
package money

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Amount is a price in whole currency units.
type Amount int64

// Parse converts a backend price string ("8000", "8000.00", " 1500.5 ") into an Amount,
// rounding half away from zero. An empty string is zero.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.Wrapf(err, "parse amount %q", s)
	}
	return Amount(d.Round(0).IntPart()), nil
}

// FromFloat rounds a float amount to whole units.
func FromFloat(f float64) Amount {
	return Amount(decimal.NewFromFloat(f).Round(0).IntPart())
}

// Mul multiplies by a quantity.
func (a Amount) Mul(n int) Amount {
	return a * Amount(n)
}

// UnmarshalJSON accepts a number, a numeric string, null or "". Anything unparseable
// decodes to zero so one bad price never poisons a whole payload.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*a = 0
			return nil
		}
		v, err := Parse(s)
		if err != nil {
			v = 0
		}
		*a = v
		return nil
	}
	v, err := Parse(string(b))
	if err != nil {
		v = 0
	}
	*a = v
	return nil
}

// String renders the amount as a plain decimal, the form the backend expects in totals.
func (a Amount) String() string {
	return strconv.FormatInt(int64(a), 10)
}

// Format renders an es-CL currency string: $10.000, -$1.500.
func Format(a Amount) string {
	n := int64(a)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	b.Grow(len(digits) + len(digits)/3 + 2)
	b.WriteString(sign)
	b.WriteByte('$')
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
