package proposal

import (
	"strings"
	"time"

	"github.com/noah-isme/backend-propostas/internal/pricing"
)

const (
	PlaceholderClientName = "Cliente"
	PlaceholderField      = "Não informado"
	DefaultCategory       = "Geral"
	DefaultIcon           = "📦"
	DefaultLogoURL        = "/logo-default.png"
)

// SnapshotOptions controls how logo URLs are resolved.
type SnapshotOptions struct {
	// AssetBaseURL, when set, is prefixed to relative logo paths.
	AssetBaseURL string
	// DefaultLogoURL replaces a missing logo. Empty means DefaultLogoURL.
	DefaultLogoURL string
}

// SnapshotClient is the client block of a snapshot. Missing fields carry placeholders.
type SnapshotClient struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
}

// Totals is the computed pricing block of a snapshot.
type Totals struct {
	OneTimeTotal     float64 `json:"oneTimeTotal"`
	MonthlyTotal     float64 `json:"monthlyTotal"`
	Subtotal         float64 `json:"subtotal"`
	TotalCash        float64 `json:"totalCash"`
	TotalInstallment float64 `json:"totalInstallment"`
}

// Snapshot is a fully resolved, read-only view of a proposal for rendering. It is never
// persisted.
type Snapshot struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Amount            float64        `json:"amount"`
	Status            Status         `json:"status"`
	Notes             *string        `json:"notes"`
	ExpectedCloseDate *time.Time     `json:"expected_close_date"`
	ShareToken        *string        `json:"share_token"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	Client            SnapshotClient `json:"client"`
	Services          []ServiceLine  `json:"services"`
	Payment           Payment        `json:"payment"`
	Validity          Validity       `json:"validity"`
	Theme             Theme          `json:"theme"`
	Totals            Totals         `json:"totals"`
}

// BuildSnapshot assembles the snapshot of a proposal from its raw rows. It never fails: every
// missing or malformed field is defaulted.
func BuildSnapshot(raw RawProposal, rawLines []RawServiceLine, opts SnapshotOptions) Snapshot {
	payment := Payment{
		Type:                   ParsePaymentType(deref(raw.PaymentType)),
		CashDiscountPercentage: pricing.Number(raw.CashDiscountPercentage),
		InstallmentNumber:      intFrom(raw.InstallmentNumber),
		InstallmentValue:       pricing.Number(raw.InstallmentValue),
		ManualInstallmentTotal: pricing.Number(raw.ManualInstallmentTotal),
	}

	lines := make([]ServiceLine, 0, len(rawLines))
	pricingLines := make([]pricing.Line, 0, len(rawLines))
	for _, rl := range rawLines {
		line := lineFromRaw(rl)
		lines = append(lines, line)
		pricingLines = append(pricingLines, line.PricingLine())
	}

	summary := pricing.Summarize(pricingLines, payment.Terms())

	status, ok := ParseStatus(raw.Status)
	if !ok {
		status = StatusDraft
	}

	validity := Validity{Days: intFrom(raw.ValidityDays)}
	if raw.ValidityEnabled != nil {
		validity.Enabled = *raw.ValidityEnabled
	}
	if validity.Days < 0 {
		validity.Days = 0
	}

	logo := strings.TrimSpace(deref(raw.LogoURL))
	theme := Theme{
		LogoURL:         logo,
		ResolvedLogoURL: ResolveLogoURL(logo, opts),
		GradientTheme:   ParseGradientTheme(deref(raw.GradientTheme)),
	}

	return Snapshot{
		ID:                raw.ID,
		Title:             raw.Title,
		Amount:            pricing.Number(raw.Amount),
		Status:            status,
		Notes:             cloneString(raw.Notes),
		ExpectedCloseDate: cloneTime(raw.ExpectedCloseDate),
		ShareToken:        cloneString(raw.ShareToken),
		CreatedAt:         raw.CreatedAt,
		UpdatedAt:         raw.UpdatedAt,
		Client:            clientFromRaw(raw.Client),
		Services:          lines,
		Payment:           payment,
		Validity:          validity,
		Theme:             theme,
		Totals: Totals{
			OneTimeTotal:     summary.OneTimeTotal,
			MonthlyTotal:     summary.MonthlyTotal,
			Subtotal:         summary.Subtotal,
			TotalCash:        summary.TotalCash,
			TotalInstallment: summary.TotalInstallment,
		},
	}
}

// ResolveLogoURL substitutes the default logo for an empty URL and joins relative paths onto
// the asset base URL when one is configured. Absolute URLs are returned unchanged.
func ResolveLogoURL(logo string, opts SnapshotOptions) string {
	logo = strings.TrimSpace(logo)
	if logo == "" {
		if opts.DefaultLogoURL != "" {
			return opts.DefaultLogoURL
		}
		return DefaultLogoURL
	}
	lower := strings.ToLower(logo)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "data:") {
		return logo
	}
	if opts.AssetBaseURL == "" {
		return logo
	}
	return strings.TrimRight(opts.AssetBaseURL, "/") + "/" + strings.TrimLeft(logo, "/")
}

func lineFromRaw(rl RawServiceLine) ServiceLine {
	line := ServiceLine{
		ID:                 rl.ID,
		ServiceID:          deref(rl.ServiceID),
		Name:               deref(rl.Name),
		Description:        deref(rl.Description),
		BasePrice:          pricing.Number(rl.BasePrice),
		Quantity:           intFrom(rl.Quantity),
		Discount:           pricing.Number(rl.Discount),
		DiscountPercentage: pricing.Number(rl.DiscountPercentage),
		DiscountType:       pricing.ParseDiscountKind(deref(rl.DiscountType)),
		Features:           append([]string{}, rl.Features...),
		Category:           orDefault(rl.Category, DefaultCategory),
		Icon:               orDefault(rl.Icon, DefaultIcon),
		BillingType:        pricing.ParseBillingType(deref(rl.BillingType)),
	}
	if custom := pricing.Number(rl.CustomPrice); custom > 0 {
		line.CustomPrice = &custom
	}
	if line.Quantity <= 0 {
		line.Quantity = 1
	}
	if rl.IsCustom != nil {
		line.IsCustom = *rl.IsCustom
	}
	return line
}

func clientFromRaw(rc *RawClient) SnapshotClient {
	if rc == nil {
		return SnapshotClient{
			Name:    PlaceholderClientName,
			Email:   PlaceholderField,
			Company: PlaceholderField,
			Phone:   PlaceholderField,
		}
	}
	return SnapshotClient{
		ID:      rc.ID,
		Name:    orDefault(rc.Name, PlaceholderClientName),
		Email:   orDefault(rc.Email, PlaceholderField),
		Company: orDefault(rc.Company, PlaceholderField),
		Phone:   orDefault(rc.Phone, PlaceholderField),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDefault(s *string, fallback string) string {
	if v := strings.TrimSpace(deref(s)); v != "" {
		return v
	}
	return fallback
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
