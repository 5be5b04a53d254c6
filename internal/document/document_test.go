package document

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-propostas/internal/proposal"
)

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		amount   float64
		currency string
		want     string
	}{
		{1234.56, "BRL", "R$ 1.234,56"},
		{0, "", "R$ 0,00"},
		{1000000, "brl", "R$ 1.000.000,00"},
		{999.999, "BRL", "R$ 1.000,00"},
		{-15.5, "BRL", "-R$ 15,50"},
		{1234.5, "USD", "USD 1,234.50"},
		{12, "EUR", "EUR 12.00"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, FormatMoney(tc.amount, tc.currency), "amount %v %s", tc.amount, tc.currency)
	}
}

func TestFormatPercentAndValidity(t *testing.T) {
	require.Equal(t, "10%", FormatPercent(10))
	require.Equal(t, "23,81%", FormatPercent(23.8095))
	require.Equal(t, "Válida por 15 dias", ValidityText(15))
	require.Equal(t, "Válida por 1 dia", ValidityText(1))
}

func sampleSnapshot() proposal.Snapshot {
	enabled := true
	notes := "Entrega em 30 dias úteis."
	raw := proposal.RawProposal{
		ID:                     "6a3c1c2e-2f3b-4f59-9c53-2b9f7c0f0a11",
		Title:                  "Site institucional",
		Status:                 "Enviada",
		Notes:                  &notes,
		UpdatedAt:              time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		CashDiscountPercentage: "10",
		InstallmentNumber:      12,
		InstallmentValue:       "130",
		ValidityEnabled:        &enabled,
		ValidityDays:           15,
	}
	name1, name2, monthly := "Desenvolvimento", "Hospedagem", "monthly"
	lines := []proposal.RawServiceLine{
		{Name: &name1, BasePrice: 1000, Quantity: 1, Discount: 100, Features: []string{"Layout responsivo", "SEO"}},
		{Name: &name2, BasePrice: 200, CustomPrice: 250, Quantity: 2, BillingType: &monthly},
	}
	return proposal.BuildSnapshot(raw, lines, proposal.SnapshotOptions{})
}

func TestRenderPDF(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPDF(&buf, sampleSnapshot(), Options{CurrencyCode: "BRL", IssuedAt: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	require.Greater(t, buf.Len(), 1000)
}

func TestRenderPDFHandlesEmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	snap := proposal.BuildSnapshot(proposal.RawProposal{}, nil, proposal.SnapshotOptions{})
	require.NoError(t, RenderPDF(&buf, snap, Options{}))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestStoreSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pdf")
	store := &Store{Path: dir, Renderer: &Renderer{CurrencyCode: "BRL", Now: func() time.Time { return time.Unix(0, 0).UTC() }}}

	snap := sampleSnapshot()
	path, err := store.Save(snap)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "proposal_"+snap.ID+".pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = store.Save(proposal.Snapshot{})
	require.Error(t, err)
}
