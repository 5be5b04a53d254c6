package pricing

import "strings"

// DiscountKind selects which representation of a line discount is authoritative.
type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountValue      DiscountKind = "value"
)

// ParseDiscountKind maps stored discount types; anything unknown is treated as a percentage.
func ParseDiscountKind(value string) DiscountKind {
	switch DiscountKind(strings.ToLower(strings.TrimSpace(value))) {
	case DiscountValue, "fixed":
		return DiscountValue
	default:
		return DiscountPercentage
	}
}

// Discount is a line discount expressed either as a percentage of the gross amount or as a
// fixed currency value.
type Discount struct {
	Kind  DiscountKind
	Value float64
}

// NewDiscount picks the authoritative field for kind out of the two stored representations.
func NewDiscount(kind DiscountKind, percentage, value any) Discount {
	if kind == DiscountValue {
		return Discount{Kind: DiscountValue, Value: Number(value)}
	}
	return Discount{Kind: DiscountPercentage, Value: Number(percentage)}
}

// Amount is the absolute discount for a gross amount. It never exceeds gross and is never
// negative.
func (d Discount) Amount(gross float64) float64 {
	if gross <= 0 || d.Value <= 0 {
		return 0
	}
	var amount float64
	switch d.Kind {
	case DiscountValue:
		amount = d.Value
	default:
		amount = gross * clampPercentage(d.Value) / 100
	}
	if amount > gross {
		amount = gross
	}
	return Round2(amount)
}

// Percentage is the discount expressed as a share of gross, in [0, 100].
func (d Discount) Percentage(gross float64) float64 {
	if d.Kind == DiscountPercentage {
		return clampPercentage(d.Value)
	}
	if gross <= 0 {
		return 0
	}
	return Round2(d.Amount(gross) / gross * 100)
}

// Resolve returns the consistent (amount, percentage) pair stored on a line with the given
// gross amount.
func (d Discount) Resolve(gross float64) (amount, percentage float64) {
	return d.Amount(gross), d.Percentage(gross)
}
