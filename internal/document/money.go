package document

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney renders amount with two decimals. BRL uses the Brazilian convention
// ("R$ 1.234,56"); any other currency is prefixed with its code ("USD 1,234.56").
func FormatMoney(amount float64, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "BRL"
	}
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac := fixed[:len(fixed)-3], fixed[len(fixed)-2:]

	if currency == "BRL" {
		return sign + "R$ " + group(intPart, ".") + "," + frac
	}
	return sign + currency + " " + group(intPart, ",") + "." + frac
}

// FormatPercent renders p with up to two decimals and a comma separator ("12,5%").
func FormatPercent(p float64) string {
	s := decimal.NewFromFloat(p).Round(2).String()
	return strings.Replace(s, ".", ",", 1) + "%"
}

func group(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
