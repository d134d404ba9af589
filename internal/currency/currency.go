// Package currency parses marketplace price strings into decimals.
//
// Malformed input is always an error. A price that cannot be read must never
// surface as zero, since callers rank prices ascending.
package currency

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places used for displayed prices
const Places = 2

var (
	// ErrUnparseablePrice is returned when no number can be read from the input
	ErrUnparseablePrice = errors.New("unparseable price")

	// ErrNegativePrice is returned for prices below zero
	ErrNegativePrice = errors.New("negative price")
)

var (
	numberToken       = regexp.MustCompile(`[.,]?\d[\d.,]*`)
	groupedByComma    = regexp.MustCompile(`^\d{1,3}(,\d{3})+$`)
	groupedByDot      = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
	trailingSeparator = regexp.MustCompile(`[.,]+$`)
)

// Parse reads a price such as "$1,299.99", "45,00 €", "USD 12" or "$12.99 - $20.00"
// (the first amount of a range wins).
func Parse(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrUnparseablePrice)
	}

	loc := numberToken.FindStringIndex(s)
	if loc == nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparseablePrice, text)
	}

	prefix := strings.TrimRightFunc(s[:loc[0]], func(r rune) bool {
		return unicode.IsSpace(r) || unicode.Is(unicode.Sc, r)
	})
	if strings.HasSuffix(prefix, "-") || strings.HasSuffix(prefix, "−") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNegativePrice, text)
	}

	token := trailingSeparator.ReplaceAllString(s[loc[0]:loc[1]], "")
	normalized, ok := normalizeSeparators(token)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparseablePrice, text)
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparseablePrice, text)
	}
	return d, nil
}

// ParseValue reads a provider's pre-parsed numeric field, which may arrive as a
// bare number ("45.5") or a quoted one ("\"45.5\"").
func ParseValue(raw string) (decimal.Decimal, error) {
	s := strings.Trim(strings.TrimSpace(raw), `"`)
	if s == "" || s == "null" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrUnparseablePrice)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparseablePrice, raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNegativePrice, raw)
	}
	return d, nil
}

// normalizeSeparators rewrites a digit run with ',' and '.' into plain decimal notation
func normalizeSeparators(token string) (string, bool) {
	hasComma := strings.Contains(token, ",")
	hasDot := strings.Contains(token, ".")

	// ".99" has no integer part
	if token[0] == '.' || token[0] == ',' {
		if strings.ContainsAny(token[1:], ".,") {
			return "", false
		}
		return "0." + token[1:], true
	}

	switch {
	case hasComma && hasDot:
		// whichever separator comes last is the decimal mark
		mark, group, grouped := ".", ",", groupedByComma
		if strings.LastIndex(token, ",") > strings.LastIndex(token, ".") {
			mark, group, grouped = ",", ".", groupedByDot
		}
		i := strings.LastIndex(token, mark)
		if !grouped.MatchString(token[:i]) {
			return "", false
		}
		return strings.ReplaceAll(token[:i], group, "") + "." + token[i+1:], true

	case hasComma:
		if groupedByComma.MatchString(token) {
			return strings.ReplaceAll(token, ",", ""), true
		}
		if strings.Count(token, ",") == 1 {
			return strings.Replace(token, ",", ".", 1), true
		}
		return "", false

	case hasDot:
		if strings.Count(token, ".") == 1 {
			return token, true
		}
		if groupedByDot.MatchString(token) {
			return strings.ReplaceAll(token, ".", ""), true
		}
		return "", false
	}

	return token, true
}

// Round rounds a price to display precision
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Mean returns the arithmetic mean of prices. ok is false for an empty slice.
func Mean(prices []decimal.Decimal) (mean decimal.Decimal, ok bool) {
	if len(prices) == 0 {
		return decimal.Zero, false
	}
	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(p)
	}
	return sum.Div(decimal.NewFromInt(int64(len(prices)))), true
}

// Float returns the rounded price as a float64 for JSON output
func Float(d decimal.Decimal) float64 {
	return Round(d).InexactFloat64()
}
