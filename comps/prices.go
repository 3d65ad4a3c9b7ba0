package comps

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberPattern   = regexp.MustCompile(`([\d,.]+)`)
	currencyPattern = regexp.MustCompile(`\$([\d,.]+)`)
	nonNumeric      = regexp.MustCompile(`[^\d.]`)
)

// ParsePrice parses a price token such as "1,249.99". Thousands separators
// are stripped; unparseable, non-finite and non-positive values report false.
func ParsePrice(tok string) (float64, bool) {
	return positive(strings.ReplaceAll(strings.TrimSpace(tok), ",", ""))
}

// FirstPrice parses the first numeric run in text, so "$1,249.99 to $1,500"
// yields 1249.99.
func FirstPrice(text string) (float64, bool) {
	m := numberPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return ParsePrice(m[1])
}

// CurrencyPrices collects every "$<digits>" amount in text, up to max values.
func CurrencyPrices(text string, max int) []float64 {
	var out []float64
	for _, m := range currencyPattern.FindAllStringSubmatch(text, -1) {
		if v, ok := ParsePrice(m[1]); ok {
			out = append(out, v)
			if len(out) >= max {
				break
			}
		}
	}
	return out
}

// LoosePrice drops everything except digits and dots before parsing, for
// display strings like "US $85.00".
func LoosePrice(raw string) (float64, bool) {
	return positive(nonNumeric.ReplaceAllString(raw, ""))
}

func positive(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return validPrice(v)
}

func validPrice(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// Mean returns the arithmetic mean of prices, 0 for none.
func Mean(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	var total float64
	for _, p := range prices {
		total += p
	}
	return total / float64(len(prices))
}
