// Package numfmt parses and applies numeric formatting tags such as
// "currency:USD", "percent:1", "decimal:3", "integer" and "accounting:EUR".
//
// Formatting tags are content, not styling: they are applied to cell values
// during composition so every output format carries the same text.
package numfmt

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Kind is the family of a formatting tag.
type Kind string

// Supported formatting kinds.
const (
	KindCurrency   Kind = "currency"
	KindAccounting Kind = "accounting"
	KindPercent    Kind = "percent"
	KindDecimal    Kind = "decimal"
	KindInteger    Kind = "integer"
)

const (
	defaultDecimalScale = 2
	defaultPercentScale = 0
	maxScale            = 10
)

// symbols holds the display symbols of common currencies.
// Currencies not listed are shown with their ISO code.
var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "CN¥",
	"INR": "₹",
	"KRW": "₩",
	"CAD": "CA$",
	"AUD": "A$",
	"NZD": "NZ$",
	"BRL": "R$",
	"MXN": "MX$",
}

// Spec is a parsed formatting tag.
type Spec struct {
	Kind     Kind
	Currency string
	Scale    int
}

// Parse parses a formatting tag. Currency codes must be recognised ISO-4217 codes.
func Parse(tag string) (Spec, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(tag), ":")
	switch Kind(strings.ToLower(name)) {
	case KindCurrency, KindAccounting:
		if !hasArg || arg == "" {
			return Spec{}, fmt.Errorf("%s format requires a currency code", name)
		}
		unit, err := currency.ParseISO(strings.ToUpper(arg))
		if err != nil {
			return Spec{}, fmt.Errorf("unrecognised currency %q", arg)
		}
		scale, _ := currency.Standard.Rounding(unit)
		return Spec{Kind: Kind(strings.ToLower(name)), Currency: unit.String(), Scale: scale}, nil
	case KindPercent:
		scale, err := parseScale(arg, hasArg, defaultPercentScale)
		if err != nil {
			return Spec{}, err
		}
		return Spec{Kind: KindPercent, Scale: scale}, nil
	case KindDecimal:
		scale, err := parseScale(arg, hasArg, defaultDecimalScale)
		if err != nil {
			return Spec{}, err
		}
		return Spec{Kind: KindDecimal, Scale: scale}, nil
	case KindInteger:
		if hasArg {
			return Spec{}, fmt.Errorf("integer format takes no argument")
		}
		return Spec{Kind: KindInteger}, nil
	default:
		return Spec{}, fmt.Errorf("unknown number format %q", tag)
	}
}

func parseScale(arg string, hasArg bool, def int) (int, error) {
	if !hasArg {
		return def, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 || n > maxScale {
		return 0, fmt.Errorf("scale must be an integer between 0 and %d", maxScale)
	}
	return n, nil
}

// String returns the canonical tag.
func (s Spec) String() string {
	switch s.Kind {
	case KindCurrency, KindAccounting:
		return string(s.Kind) + ":" + s.Currency
	case KindPercent, KindDecimal:
		return fmt.Sprintf("%s:%d", s.Kind, s.Scale)
	default:
		return string(s.Kind)
	}
}

// Format applies the tag to a raw cell value. Values that are not numbers
// are returned unchanged with ok=false.
func (s Spec) Format(raw string) (string, bool) {
	v, ok := ParseNumber(raw)
	if !ok {
		return raw, false
	}
	p := message.NewPrinter(language.English)

	switch s.Kind {
	case KindCurrency:
		amount := p.Sprint(number.Decimal(math.Abs(v), number.Scale(s.Scale)))
		sign := ""
		if v < 0 {
			sign = "-"
		}
		return sign + symbol(s.Currency) + amount, true
	case KindAccounting:
		amount := symbol(s.Currency) + p.Sprint(number.Decimal(math.Abs(v), number.Scale(s.Scale)))
		if v < 0 {
			return "(" + amount + ")", true
		}
		return amount, true
	case KindPercent:
		return p.Sprint(number.Percent(v, number.Scale(s.Scale))), true
	case KindDecimal:
		return p.Sprint(number.Decimal(v, number.Scale(s.Scale))), true
	case KindInteger:
		return p.Sprint(number.Decimal(math.Round(v), number.Scale(0))), true
	default:
		return raw, false
	}
}

func symbol(code string) string {
	if sym, ok := symbols[code]; ok {
		return sym
	}
	return code + " "
}

// ParseNumber parses a plain numeric cell value. Group separators (",", "_")
// and surrounding whitespace are tolerated.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	s = strings.NewReplacer(",", "", "_", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
