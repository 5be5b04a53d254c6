package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEffectivePrice(t *testing.T) {
	cases := []struct {
		name   string
		custom any
		base   any
		want   float64
	}{
		{"zero custom falls back", 0, 150, 150},
		{"custom wins", 200, 150, 200},
		{"nil custom", nil, 150, 150},
		{"string custom", "99.90", "150", 99.9},
		{"negative custom ignored", -10, 150, 150},
		{"blank custom", "", 80, 80},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.want, EffectivePrice(tc.custom, tc.base), 1e-9)
		})
	}
}

func TestLineTotalNeverNegative(t *testing.T) {
	require.Equal(t, 0.0, LineTotal(nil, 100, 1, 500))
	require.Equal(t, 0.0, LineTotal(nil, 100, 2, 200))
	require.InDelta(t, 150.0, LineTotal(nil, 100, 2, 50), 1e-9)
}

func TestLineTotalQuantityDefaults(t *testing.T) {
	require.InDelta(t, 100.0, LineTotal(nil, 100, 0, 0), 1e-9)
	require.InDelta(t, 100.0, LineTotal(nil, 100, "abc", 0), 1e-9)
	require.InDelta(t, 100.0, LineTotal(nil, 100, nil, nil), 1e-9)
	require.InDelta(t, 300.0, LineTotal("", "100", "3", ""), 1e-9)
}

func TestAggregateByBillingType(t *testing.T) {
	lines := []Line{
		{BasePrice: 100, Quantity: 1, BillingType: BillingOneTime},
		{BasePrice: 50, Quantity: 1, BillingType: BillingMonthly},
		{BasePrice: 30, Quantity: 1, BillingType: BillingMonthly},
	}
	got := AggregateByBillingType(lines)
	require.Equal(t, BillingTotals{OneTimeTotal: 100, MonthlyTotal: 80}, got)
	require.Equal(t, 180.0, got.Subtotal())
}

func TestAggregateByBillingTypeEmpty(t *testing.T) {
	got := AggregateByBillingType(nil)
	require.Zero(t, got.OneTimeTotal)
	require.Zero(t, got.MonthlyTotal)
}

func TestComputeTotalsManualOverrideWins(t *testing.T) {
	got := ComputeTotals(1000, 10, 10, 100, 1200)
	require.Equal(t, PaymentTotals{TotalCash: 900, TotalInstallment: 1200}, got)
}

func TestComputeTotalsComputedInstallments(t *testing.T) {
	got := ComputeTotals(1000, 5, 12, 95.5, 0)
	require.Equal(t, 950.0, got.TotalCash)
	require.Equal(t, 1146.0, got.TotalInstallment)
}

func TestComputeTotalsFallback(t *testing.T) {
	got := ComputeTotals(500, 0, 0, 0, 0)
	require.Equal(t, PaymentTotals{TotalCash: 500, TotalInstallment: 500}, got)

	// only one of value/number configured
	got = ComputeTotals(500, nil, 3, 0, nil)
	require.Equal(t, 500.0, got.TotalInstallment)
}

func TestComputeTotalsDiscountBounds(t *testing.T) {
	require.Equal(t, 0.0, ComputeTotals(500, 100, 0, 0, 0).TotalCash)
	require.Equal(t, 0.0, ComputeTotals(500, 150, 0, 0, 0).TotalCash)
	require.Equal(t, 500.0, ComputeTotals(500, -20, 0, 0, 0).TotalCash)
}

func TestComputeTotalsRoundsToCents(t *testing.T) {
	got := ComputeTotals(333.333, 3, 3, 33.3333, 0)
	require.Equal(t, 323.33, got.TotalCash)
	require.Equal(t, 100.0, got.TotalInstallment)
}

func TestComputeTotalsStringInputs(t *testing.T) {
	got := ComputeTotals("1500.50", nil, "", "", nil)
	require.Equal(t, 1500.5, got.TotalCash)
	require.Equal(t, 1500.5, got.TotalInstallment)
}

func TestInterestRate(t *testing.T) {
	rate, ok := InterestRate(900, 1200)
	require.True(t, ok)
	require.InDelta(t, 33.33, rate, 1e-9)

	rate, ok = InterestRate(1000, 950)
	require.True(t, ok)
	require.InDelta(t, -5.0, rate, 1e-9)

	_, ok = InterestRate(0, 100)
	require.False(t, ok)
}

func TestSummarize(t *testing.T) {
	lines := []Line{
		{BasePrice: "1000", Quantity: 1, BillingType: BillingOneTime},
		{BasePrice: 200, CustomPrice: 250, Quantity: 2, Discount: 100, BillingType: BillingMonthly},
	}
	s := Summarize(lines, PaymentTerms{CashDiscountPercentage: 10, InstallmentNumber: 4, InstallmentValue: 400})
	require.Equal(t, 1000.0, s.OneTimeTotal)
	require.Equal(t, 400.0, s.MonthlyTotal)
	require.Equal(t, 1400.0, s.Subtotal)
	require.Equal(t, 1260.0, s.TotalCash)
	require.Equal(t, 1600.0, s.TotalInstallment)
}

func TestParseBillingType(t *testing.T) {
	require.Equal(t, BillingMonthly, ParseBillingType(" Monthly "))
	require.Equal(t, BillingOneTime, ParseBillingType("one_time"))
	require.Equal(t, BillingOneTime, ParseBillingType("weekly"))
}
