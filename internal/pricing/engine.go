package pricing

import "strings"

// BillingType tells whether a service line is charged once or every month.
type BillingType string

const (
	BillingOneTime BillingType = "one_time"
	BillingMonthly BillingType = "monthly"
)

// ParseBillingType maps stored values onto the closed billing type set. Unknown values are
// charged once.
func ParseBillingType(value string) BillingType {
	switch BillingType(strings.ToLower(strings.TrimSpace(value))) {
	case BillingMonthly:
		return BillingMonthly
	default:
		return BillingOneTime
	}
}

// Line is the minimal view of a service line needed for pricing.
type Line struct {
	CustomPrice any
	BasePrice   any
	Quantity    any
	Discount    any
	BillingType BillingType
}

// BillingTotals holds one-time and recurring sums.
type BillingTotals struct {
	OneTimeTotal float64 `json:"oneTimeTotal"`
	MonthlyTotal float64 `json:"monthlyTotal"`
}

// Subtotal is the sum of both billing groups.
func (b BillingTotals) Subtotal() float64 {
	return b.OneTimeTotal + b.MonthlyTotal
}

// PaymentTotals holds the cash and installment prices for a subtotal.
type PaymentTotals struct {
	TotalCash        float64 `json:"totalCash"`
	TotalInstallment float64 `json:"totalInstallment"`
}

// EffectivePrice returns the custom price when it is a positive number, the base price otherwise.
func EffectivePrice(customPrice, basePrice any) float64 {
	custom := Number(customPrice)
	if custom > 0 {
		return custom
	}
	return Number(basePrice)
}

// LineTotal returns effective price × quantity minus the absolute discount, floored at zero.
func LineTotal(customPrice, basePrice, quantity, discount any) float64 {
	qty := Number(quantity)
	if qty <= 0 {
		qty = 1
	}
	gross := EffectivePrice(customPrice, basePrice) * qty
	total := gross - Number(discount)
	if total < 0 {
		return 0
	}
	return total
}

// Total computes the line total for l.
func (l Line) Total() float64 {
	return LineTotal(l.CustomPrice, l.BasePrice, l.Quantity, l.Discount)
}

// AggregateByBillingType sums line totals separately for one-time and monthly lines.
func AggregateByBillingType(lines []Line) BillingTotals {
	var totals BillingTotals
	for _, l := range lines {
		switch l.BillingType {
		case BillingMonthly:
			totals.MonthlyTotal += l.Total()
		default:
			totals.OneTimeTotal += l.Total()
		}
	}
	return totals
}

// ComputeTotals resolves cash and installment totals for a subtotal.
//
// The installment total is the manual override when positive, else value × number when both
// are positive, else the subtotal itself. The cash discount is clamped to [0, 100].
func ComputeTotals(subtotal, cashDiscountPercentage, installmentNumber, installmentValue, manualInstallmentTotal any) PaymentTotals {
	sub := Number(subtotal)
	pct := clampPercentage(Number(cashDiscountPercentage))
	number := Number(installmentNumber)
	value := Number(installmentValue)
	manual := Number(manualInstallmentTotal)

	installment := sub
	switch {
	case manual > 0:
		installment = manual
	case value > 0 && number > 0:
		installment = value * number
	}

	return PaymentTotals{
		TotalCash:        Round2(sub * (1 - pct/100)),
		TotalInstallment: Round2(installment),
	}
}

// InterestRate is the percentage the installment total adds over the cash total. It reports
// false when the cash total is zero.
func InterestRate(totalCash, totalInstallment float64) (float64, bool) {
	if totalCash == 0 {
		return 0, false
	}
	return Round2((totalInstallment/totalCash - 1) * 100), true
}

// Summary bundles the billing split and payment totals of a set of lines.
type Summary struct {
	BillingTotals
	Subtotal float64 `json:"subtotal"`
	PaymentTotals
}

// PaymentTerms carries the payment inputs of ComputeTotals.
type PaymentTerms struct {
	CashDiscountPercentage any
	InstallmentNumber      any
	InstallmentValue       any
	ManualInstallmentTotal any
}

// Summarize aggregates lines and computes payment totals over the resulting subtotal.
func Summarize(lines []Line, terms PaymentTerms) Summary {
	billing := AggregateByBillingType(lines)
	subtotal := billing.Subtotal()
	return Summary{
		BillingTotals: billing,
		Subtotal:      subtotal,
		PaymentTotals: ComputeTotals(subtotal, terms.CashDiscountPercentage, terms.InstallmentNumber, terms.InstallmentValue, terms.ManualInstallmentTotal),
	}
}

func clampPercentage(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
