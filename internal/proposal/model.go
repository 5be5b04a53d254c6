package proposal

import (
	"math"
	"strings"
	"time"

	"github.com/noah-isme/backend-propostas/internal/pricing"
)

// Status is the commercial stage of a proposal. The set is closed.
type Status string

const (
	StatusDraft       Status = "Rascunho"
	StatusCreated     Status = "Criada"
	StatusSent        Status = "Enviada"
	StatusNegotiating Status = "Negociando"
	StatusApproved    Status = "Aprovada"
	StatusRejected    Status = "Rejeitada"
)

// Statuses lists every status in pipeline order.
func Statuses() []Status {
	return []Status{StatusDraft, StatusCreated, StatusSent, StatusNegotiating, StatusApproved, StatusRejected}
}

// ParseStatus matches value case-insensitively against the closed status set.
func ParseStatus(value string) (Status, bool) {
	trimmed := strings.TrimSpace(value)
	for _, s := range Statuses() {
		if strings.EqualFold(string(s), trimmed) {
			return s, true
		}
	}
	return "", false
}

// Valid reports whether s belongs to the closed status set.
func (s Status) Valid() bool {
	_, ok := ParseStatus(string(s))
	return ok && strings.TrimSpace(string(s)) == string(s)
}

// PaymentType selects how the client intends to pay.
type PaymentType string

const (
	PaymentCash        PaymentType = "cash"
	PaymentInstallment PaymentType = "installment"
)

// ParsePaymentType defaults to cash for anything other than "installment".
func ParsePaymentType(value string) PaymentType {
	if strings.EqualFold(strings.TrimSpace(value), string(PaymentInstallment)) {
		return PaymentInstallment
	}
	return PaymentCash
}

// GradientTheme names the colour theme used on rendered documents.
type GradientTheme string

const (
	ThemePurple GradientTheme = "purple"
	ThemeBlue   GradientTheme = "blue"
	ThemeGreen  GradientTheme = "green"
	ThemeOrange GradientTheme = "orange"
	ThemeDark   GradientTheme = "dark"
)

// GradientThemes lists the available themes; the first one is the default.
func GradientThemes() []GradientTheme {
	return []GradientTheme{ThemePurple, ThemeBlue, ThemeGreen, ThemeOrange, ThemeDark}
}

// ParseGradientTheme maps value onto a known theme, falling back to the default.
func ParseGradientTheme(value string) GradientTheme {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	for _, t := range GradientThemes() {
		if string(t) == trimmed {
			return t
		}
	}
	return ThemePurple
}

// ServiceLine is a priced item attached to a proposal.
type ServiceLine struct {
	ID                 string               `json:"id,omitempty"`
	ServiceID          string               `json:"service_id,omitempty"`
	Name               string               `json:"name"`
	Description        string               `json:"description"`
	BasePrice          float64              `json:"base_price"`
	CustomPrice        *float64             `json:"custom_price"`
	Quantity           int                  `json:"quantity"`
	Discount           float64              `json:"discount"`
	DiscountPercentage float64              `json:"discount_percentage"`
	DiscountType       pricing.DiscountKind `json:"discount_type"`
	Features           []string             `json:"features"`
	Category           string               `json:"category"`
	Icon               string               `json:"icon"`
	IsCustom           bool                 `json:"is_custom"`
	BillingType        pricing.BillingType  `json:"billing_type"`
}

// PricingLine exposes the fields the pricing engine needs.
func (l ServiceLine) PricingLine() pricing.Line {
	var custom any
	if l.CustomPrice != nil {
		custom = *l.CustomPrice
	}
	return pricing.Line{
		CustomPrice: custom,
		BasePrice:   l.BasePrice,
		Quantity:    l.Quantity,
		Discount:    l.Discount,
		BillingType: l.BillingType,
	}
}

// Total is the discounted line total.
func (l ServiceLine) Total() float64 {
	return l.PricingLine().Total()
}

// Gross is effective unit price × quantity, before discount.
func (l ServiceLine) Gross() float64 {
	var custom any
	if l.CustomPrice != nil {
		custom = *l.CustomPrice
	}
	qty := l.Quantity
	if qty <= 0 {
		qty = 1
	}
	return pricing.EffectivePrice(custom, l.BasePrice) * float64(qty)
}

// Payment holds the payment configuration of a proposal. A zero ManualInstallmentTotal means
// no manual override.
type Payment struct {
	Type                   PaymentType `json:"type"`
	CashDiscountPercentage float64     `json:"cash_discount_percentage"`
	InstallmentNumber      int         `json:"installment_number"`
	InstallmentValue       float64     `json:"installment_value"`
	ManualInstallmentTotal float64     `json:"manual_installment_total"`
}

// Terms adapts p for pricing.ComputeTotals.
func (p Payment) Terms() pricing.PaymentTerms {
	return pricing.PaymentTerms{
		CashDiscountPercentage: p.CashDiscountPercentage,
		InstallmentNumber:      p.InstallmentNumber,
		InstallmentValue:       p.InstallmentValue,
		ManualInstallmentTotal: p.ManualInstallmentTotal,
	}
}

// Validity controls the "valid for N days" notice on the document.
type Validity struct {
	Enabled bool `json:"enabled"`
	Days    int  `json:"days"`
}

// Theme configures document branding.
type Theme struct {
	LogoURL         string        `json:"logo_url"`
	ResolvedLogoURL string        `json:"resolved_logo_url"`
	GradientTheme   GradientTheme `json:"gradient_theme"`
}

// Proposal is a persisted commercial proposal with its service lines.
type Proposal struct {
	ID                string        `json:"id"`
	Title             string        `json:"title"`
	Amount            float64       `json:"amount"`
	ClientID          *string       `json:"client_id"`
	Status            Status        `json:"status"`
	Owner             string        `json:"owner"`
	Notes             *string       `json:"notes"`
	ExpectedCloseDate *time.Time    `json:"expected_close_date"`
	ShareToken        *string       `json:"share_token"`
	Payment           Payment       `json:"payment"`
	Validity          Validity      `json:"validity"`
	Theme             Theme         `json:"theme"`
	Services          []ServiceLine `json:"services"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// Summary holds the list-view representation of a proposal.
type Summary struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Amount            float64    `json:"amount"`
	Status            Status     `json:"status"`
	ClientID          *string    `json:"client_id"`
	ClientName        *string    `json:"client_name"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
	Shared            bool       `json:"shared"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// intFrom rounds a loosely typed number to an int, saturating at the int range.
func intFrom(v any) int {
	x := math.Round(pricing.Number(v))
	switch {
	case x >= math.MaxInt:
		return math.MaxInt
	case x <= math.MinInt:
		return math.MinInt
	}
	return int(x)
}
