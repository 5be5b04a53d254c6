package pricing

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Number converts loosely typed values into a finite float64. Persistence layers hand numeric
// columns back as strings, bytes or nulls; anything that cannot be read as a number yields 0.
// Strings may use either decimal separator. A lone comma is the pt-BR decimal comma, so
// "1,234" is 1.234, not 1234.
func Number(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case string:
		return parseNumber(n)
	case []byte:
		return parseNumber(string(n))
	case json.Number:
		return parseNumber(n.String())
	case decimal.Decimal:
		f, _ := n.Float64()
		return finite(f)
	case decimal.NullDecimal:
		if !n.Valid {
			return 0
		}
		f, _ := n.Decimal.Float64()
		return finite(f)
	case *string:
		if n == nil {
			return 0
		}
		return parseNumber(*n)
	case *float64:
		if n == nil {
			return 0
		}
		return finite(*n)
	case *int:
		if n == nil {
			return 0
		}
		return float64(*n)
	case *int32:
		if n == nil {
			return 0
		}
		return float64(*n)
	case *int64:
		if n == nil {
			return 0
		}
		return float64(*n)
	case *decimal.Decimal:
		if n == nil {
			return 0
		}
		return Number(*n)
	default:
		return 0
	}
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	v = finite(v)
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func parseNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	s = normalizeSeparators(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return finite(f)
}

// normalizeSeparators accepts both "1.234,56" (pt-BR) and "1,234.56" forms. The last
// separator present is the decimal one. A single comma with no dot is always a decimal
// comma, so "1,234" reads as 1.234. Several commas with no dot are thousands separators.
func normalizeSeparators(s string) string {
	comma := strings.LastIndex(s, ",")
	if comma < 0 {
		return s
	}
	dot := strings.LastIndex(s, ".")
	switch {
	case dot > comma:
		return strings.ReplaceAll(s, ",", "")
	case dot >= 0:
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ",") == 1:
		return strings.Replace(s, ",", ".", 1)
	default:
		return strings.ReplaceAll(s, ",", "")
	}
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
