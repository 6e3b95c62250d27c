/**
 * @description
 * Fixed-point money handling. Amounts cross the wire as decimal strings with
 * at most two fractional digits ("40.00") and live in the system as int64
 * cents. Parsing is pure string/integer work; no value ever passes through a
 * binary float.
 */

package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAmount rejects amounts that are non-positive, malformed, or not
// representable at two-decimal precision.
var ErrInvalidAmount = errors.New("invalid amount")

// maxAmountCents bounds a single operation to what NUMERIC(12,2) can carry.
const maxAmountCents = int64(9999999999999)

// ParseAmount converts a decimal string into cents. It accepts "12", "12.3"
// and "12.34"; anything else (sign, exponent, three decimals, empty) fails
// with ErrInvalidAmount. The result is always strictly positive.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
		// A dot demands digits on both sides; "12." is malformed.
		if frac == "" {
			return 0, ErrInvalidAmount
		}
	}
	if whole == "" || len(frac) > 2 {
		return 0, ErrInvalidAmount
	}

	var cents int64
	for _, r := range whole {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
		cents = cents*10 + int64(r-'0')
		if cents > maxAmountCents {
			return 0, ErrInvalidAmount
		}
	}
	cents *= 100

	mult := int64(10)
	for _, r := range frac {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
		cents += int64(r-'0') * mult
		mult /= 10
	}

	if cents <= 0 || cents > maxAmountCents {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// FormatAmount renders cents as a two-decimal string, e.g. 5000 -> "50.00".
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
