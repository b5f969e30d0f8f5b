// Package money holds the decimal amount type shared by ledger payloads.
package money

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of decimals every amount carries. Input with more
// precision is rounded half away from zero when the amount is built.
const Places = 2

// Amount is a ledger amount. Decoding never fails: null, empty and non-numeric
// input all become zero, mirroring how the dashboard coerces form inputs.
type Amount struct {
	decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{}

// New wraps a decimal value, rounded to Places.
func New(d decimal.Decimal) Amount {
	return Amount{Decimal: d.Round(Places)}
}

// FromFloat converts a float amount.
func FromFloat(f float64) Amount {
	return New(decimal.NewFromFloat(f))
}

// Parse converts user or API input, coercing anything non-numeric to zero.
func Parse(raw string) Amount {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Zero
	}
	return New(d)
}

// Rounded returns a with at most Places decimals. Amounts built outside New
// may carry more.
func (a Amount) Rounded() Amount {
	return New(a.Decimal)
}

// NonNegative rounds to Places and clamps negative amounts to zero. Totals
// and wire payloads both read amounts through it.
func (a Amount) NonNegative() decimal.Decimal {
	d := a.Decimal.Round(Places)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Fixed renders the amount with two decimals.
func (a Amount) Fixed() string {
	return a.Decimal.StringFixed(2)
}

// MarshalJSON writes the amount as an unquoted number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Fixed()), nil
}

// UnmarshalJSON accepts numbers, numeric strings and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Zero
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*a = Zero
			return nil
		}
		*a = Parse(s)
		return nil
	}
	*a = Parse(string(data))
	return nil
}
