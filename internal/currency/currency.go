// Package currency renders monetary amounts for display.
//
// Amounts are rendered in the en-US convention: symbol prefix, comma thousands
// separators and the ISO 4217 number of minor digits for the currency (two for
// USD, zero for JPY). Negative amounts carry a leading minus before the symbol,
// so -40 renders as "-$40.00" next to "$40.00".
//
// Unsupported codes: FormatStrict reports ErrUnsupportedCurrency, while Format
// falls back to DefaultCode so a bad preference never breaks a render.
package currency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	xcurrency "golang.org/x/text/currency"
)

// DefaultCode is used when a requested currency cannot be rendered.
const DefaultCode = "USD"

// ErrUnsupportedCurrency is returned for codes that are not valid ISO 4217 currencies.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// selectable lists the currencies offered to users, in display order.
var selectable = []string{"USD", "EUR", "GBP", "JPY", "INR"}

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
}

// Supported returns the currency codes users can select.
func Supported() []string {
	out := make([]string, len(selectable))
	copy(out, selectable)
	return out
}

// IsSupported reports whether code is one of the selectable currencies.
func IsSupported(code string) bool {
	_, ok := symbols[normalize(code)]
	return ok
}

// Symbol returns the display symbol for code, or the default symbol when the
// code has none.
func Symbol(code string) string {
	if s, ok := symbols[normalize(code)]; ok {
		return s
	}
	return symbols[DefaultCode]
}

// Format renders amount in the given currency, falling back to DefaultCode
// when code is not a recognised ISO 4217 currency.
func Format(amount decimal.Decimal, code string) string {
	s, err := FormatStrict(amount, code)
	if err != nil {
		s, _ = FormatStrict(amount, DefaultCode)
	}
	return s
}

// FormatStrict renders amount in the given currency.
func FormatStrict(amount decimal.Decimal, code string) (string, error) {
	unit, err := xcurrency.ParseISO(normalize(code))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, code)
	}

	iso := unit.String()
	prefix, ok := symbols[iso]
	if !ok {
		prefix = iso + " "
	}

	scale, _ := xcurrency.Standard.Rounding(unit)
	rounded := amount.Round(int32(scale))
	digits := groupThousands(rounded.Abs().StringFixed(int32(scale)))

	if rounded.Sign() < 0 {
		return "-" + prefix + digits, nil
	}
	return prefix + digits, nil
}

// groupThousands inserts commas into the integer part of a plain decimal string.
func groupThousands(s string) string {
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if len(intPart) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
