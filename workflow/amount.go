package workflow

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts operator input such as "12.50" into minor units (1250).
// Characters other than digits and '.' are dropped; a second '.' makes the
// input ambiguous and is rejected. More than two fraction digits are rounded
// half-up. Anything that does not yield a positive amount returns
// ErrInvalidAmount.
func ParseAmount(input string) (int64, error) {
	var b strings.Builder
	seenDot := false
	for _, r := range input {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.':
			if seenDot {
				return 0, fmt.Errorf("%w: more than one decimal point in %q", ErrInvalidAmount, input)
			}
			seenDot = true
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	whole, frac, _ := strings.Cut(cleaned, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, input)
	}
	if whole == "" {
		whole = "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > (math.MaxInt64-100)/100 {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, input)
	}

	roundUp := len(frac) > 2 && frac[2] >= '5'
	for len(frac) < 2 {
		frac += "0"
	}
	cents, _ := strconv.ParseInt(frac[:2], 10, 64)

	minor := units*100 + cents
	if roundUp {
		minor++
	}
	if minor <= 0 {
		return 0, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidAmount)
	}
	return minor, nil
}

// FormatAmount renders minor units with two fraction digits.
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
