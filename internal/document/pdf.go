package document

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/noah-isme/backend-propostas/internal/pricing"
	"github.com/noah-isme/backend-propostas/internal/proposal"
)

// Options controls presentation details that are not part of the snapshot.
type Options struct {
	CurrencyCode string
	IssuedAt     time.Time
}

type rgb struct{ r, g, b int }

var themeColors = map[proposal.GradientTheme]rgb{
	proposal.ThemePurple: {124, 58, 237},
	proposal.ThemeBlue:   {37, 99, 235},
	proposal.ThemeGreen:  {22, 163, 74},
	proposal.ThemeOrange: {234, 88, 12},
	proposal.ThemeDark:   {31, 41, 55},
}

const (
	pageMargin = 15.0
	lineHeight = 6.0
)

// Renderer renders proposal snapshots as PDF documents.
type Renderer struct {
	CurrencyCode string
	Now          func() time.Time
}

// Render implements proposal.PDFRenderer.
func (r *Renderer) Render(w io.Writer, snap proposal.Snapshot) error {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return RenderPDF(w, snap, Options{CurrencyCode: r.CurrencyCode, IssuedAt: now()})
}

// RenderPDF writes an A4 proposal document for snap to w.
func RenderPDF(w io.Writer, snap proposal.Snapshot, opts Options) error {
	if opts.IssuedAt.IsZero() {
		opts.IssuedAt = snap.UpdatedAt
	}
	money := func(v float64) string { return FormatMoney(v, opts.CurrencyCode) }

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(snap.Title, true)
	pdf.SetCreationDate(opts.IssuedAt)
	pdf.SetModificationDate(opts.IssuedAt)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*pageMargin
	color, ok := themeColors[snap.Theme.GradientTheme]
	if !ok {
		color = themeColors[proposal.ThemePurple]
	}

	// header band
	pdf.SetFillColor(color.r, color.g, color.b)
	pdf.Rect(0, 0, pageW, 38, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(pageMargin, 10)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentW, 9, tr(snap.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, lineHeight, tr("Proposta para "+snap.Client.Name), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, lineHeight, tr("Emitida em "+opts.IssuedAt.Format("02/01/2006")), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetY(46)

	// client
	sectionTitle(pdf, tr, "Cliente", color)
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range [][2]string{
		{"Nome", snap.Client.Name},
		{"Email", snap.Client.Email},
		{"Empresa", snap.Client.Company},
		{"Telefone", snap.Client.Phone},
	} {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(30, lineHeight, tr(row[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(contentW-30, lineHeight, tr(row[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// services
	sectionTitle(pdf, tr, "Serviços", color)
	cols := []struct {
		title string
		width float64
		align string
	}{
		{"Serviço", contentW * 0.34, "L"},
		{"Qtd", contentW * 0.07, "C"},
		{"Unitário", contentW * 0.15, "R"},
		{"Desconto", contentW * 0.14, "R"},
		{"Total", contentW * 0.16, "R"},
		{"Cobrança", contentW * 0.14, "C"},
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(243, 244, 246)
	for i, c := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		pdf.CellFormat(c.width, 7, tr(c.title), "B", ln, c.align, true, 0, "")
	}
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range snap.Services {
		unit := pricing.EffectivePrice(customPrice(line), line.BasePrice)
		discount := "-"
		if line.Discount > 0 {
			discount = money(line.Discount)
		}
		values := []string{
			truncate(line.Name, 42),
			fmt.Sprintf("%d", line.Quantity),
			money(unit),
			discount,
			money(line.Total()),
			billingLabel(line.BillingType),
		}
		for i, c := range cols {
			ln := 0
			if i == len(cols)-1 {
				ln = 1
			}
			pdf.CellFormat(c.width, lineHeight, tr(values[i]), "", ln, c.align, false, 0, "")
		}
		if len(line.Features) > 0 {
			pdf.SetFont("Helvetica", "I", 8)
			pdf.SetTextColor(107, 114, 128)
			pdf.MultiCell(cols[0].width+cols[1].width+cols[2].width, 4, tr(strings.Join(line.Features, " · ")), "", "L", false)
			pdf.SetTextColor(0, 0, 0)
			pdf.SetFont("Helvetica", "", 9)
		}
	}
	pdf.Ln(4)

	// totals
	sectionTitle(pdf, tr, "Investimento", color)
	labelW := contentW * 0.7
	totalRow := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(labelW, lineHeight, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW-labelW, lineHeight, tr(value), "", 1, "R", false, 0, "")
	}
	if snap.Totals.OneTimeTotal > 0 {
		totalRow("Total único", money(snap.Totals.OneTimeTotal), false)
	}
	if snap.Totals.MonthlyTotal > 0 {
		totalRow("Total mensal", money(snap.Totals.MonthlyTotal), false)
	}
	totalRow("Subtotal", money(snap.Totals.Subtotal), true)

	cashLabel := "À vista"
	if snap.Payment.CashDiscountPercentage > 0 {
		cashLabel += " (" + FormatPercent(snap.Payment.CashDiscountPercentage) + " de desconto)"
	}
	totalRow(cashLabel, money(snap.Totals.TotalCash), snap.Payment.Type == proposal.PaymentCash)

	installmentLabel := "Parcelado"
	if snap.Payment.InstallmentNumber > 0 && snap.Payment.InstallmentValue > 0 && snap.Payment.ManualInstallmentTotal <= 0 {
		installmentLabel += fmt.Sprintf(" (%dx de %s)", snap.Payment.InstallmentNumber, money(snap.Payment.InstallmentValue))
	}
	totalRow(installmentLabel, money(snap.Totals.TotalInstallment), snap.Payment.Type == proposal.PaymentInstallment)
	if rate, ok := pricing.InterestRate(snap.Totals.TotalCash, snap.Totals.TotalInstallment); ok && rate != 0 {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(contentW, 5, tr("Diferença entre parcelado e à vista: "+FormatPercent(rate)), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	if snap.Validity.Enabled && snap.Validity.Days > 0 {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(contentW, lineHeight, tr(ValidityText(snap.Validity.Days)), "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}

	if snap.Notes != nil && strings.TrimSpace(*snap.Notes) != "" {
		sectionTitle(pdf, tr, "Observações", color)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(contentW, 5, tr(strings.TrimSpace(*snap.Notes)), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write output: %w", err)
	}
	return nil
}

// ValidityText is the validity notice printed on the document.
func ValidityText(days int) string {
	if days == 1 {
		return "Válida por 1 dia"
	}
	return fmt.Sprintf("Válida por %d dias", days)
}

func sectionTitle(pdf *fpdf.Fpdf, tr func(string) string, title string, color rgb) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(color.r, color.g, color.b)
	pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func billingLabel(b pricing.BillingType) string {
	if b == pricing.BillingMonthly {
		return "Mensal"
	}
	return "Único"
}

func customPrice(line proposal.ServiceLine) any {
	if line.CustomPrice == nil {
		return nil
	}
	return *line.CustomPrice
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
