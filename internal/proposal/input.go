package proposal

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/backend-propostas/internal/common"
	"github.com/noah-isme/backend-propostas/internal/pricing"
)

// LineInput is a service line as submitted by the proposal wizard.
type LineInput struct {
	ServiceID          string
	Name               string
	Description        string
	BasePrice          float64
	CustomPrice        *float64
	Quantity           int
	DiscountType       pricing.DiscountKind
	DiscountPercentage float64
	Discount           float64
	Features           []string
	Category           string
	Icon               string
	IsCustom           bool
	BillingType        pricing.BillingType
}

// ClientInput is an inline client created (or matched by email) while saving a proposal.
type ClientInput struct {
	Name    string
	Email   string
	Company string
	Phone   string
}

// Input is the writable state of a proposal.
type Input struct {
	Title             string
	ClientID          string
	NewClient         *ClientInput
	Draft             bool
	Notes             string
	ExpectedCloseDate *time.Time
	Payment           Payment
	Validity          Validity
	LogoURL           string
	GradientTheme     string
	Services          []LineInput
}

// DuplicateInput overrides fields of the copy. Empty values keep the source's.
type DuplicateInput struct {
	ClientID string
	Title    string
}

// ListParams filters the proposal list.
type ListParams struct {
	Status   Status
	ClientID string
	Query    string
	Page     int
	Limit    int
}

// Limits mirror the storage columns: money is NUMERIC(14,2) and quantity a 32-bit integer
// capped well below its range.
const (
	MaxMoney    = 999999999999.99
	MaxQuantity = 1000000

	maxInstallments = 120
)

func validatePayment(p Payment) error {
	if p.CashDiscountPercentage < 0 || p.CashDiscountPercentage > 100 {
		return common.ValidationError("payment.cash_discount_percentage", "cash discount must be between 0 and 100")
	}
	if p.InstallmentNumber < 0 {
		return common.ValidationError("payment.installment_number", "installment number cannot be negative")
	}
	if p.InstallmentNumber > maxInstallments {
		return common.ValidationError("payment.installment_number", fmt.Sprintf("installment number cannot exceed %d", maxInstallments))
	}
	if p.InstallmentValue < 0 || p.InstallmentValue > MaxMoney {
		return common.ValidationError("payment.installment_value", "installment value is out of range")
	}
	if p.ManualInstallmentTotal < 0 || p.ManualInstallmentTotal > MaxMoney {
		return common.ValidationError("payment.manual_installment_total", "manual installment total is out of range")
	}
	return nil
}

func validateLines(lines []LineInput) error {
	for i, l := range lines {
		field := func(name string) string { return fmt.Sprintf("services[%d].%s", i, name) }
		switch {
		case strings.TrimSpace(l.Name) == "":
			return common.ValidationError(field("name"), "service name is required")
		case l.BasePrice < 0 || l.BasePrice > MaxMoney:
			return common.ValidationError(field("base_price"), "base price is out of range")
		case l.CustomPrice != nil && (*l.CustomPrice < 0 || *l.CustomPrice > MaxMoney):
			return common.ValidationError(field("custom_price"), "custom price is out of range")
		case l.Quantity < 0 || l.Quantity > MaxQuantity:
			return common.ValidationError(field("quantity"), fmt.Sprintf("quantity must be between 0 and %d", MaxQuantity))
		case l.DiscountPercentage < 0 || l.DiscountPercentage > 100:
			return common.ValidationError(field("discount_percentage"), "discount percentage must be between 0 and 100")
		case l.Discount < 0 || l.Discount > MaxMoney:
			return common.ValidationError(field("discount"), "discount is out of range")
		}
	}
	return nil
}

func validateInput(in Input) error {
	if strings.TrimSpace(in.Title) == "" {
		return common.ValidationError("title", "title is required")
	}
	if in.Validity.Days < 0 {
		return common.ValidationError("validity.days", "validity days cannot be negative")
	}
	if err := validatePayment(in.Payment); err != nil {
		return err
	}
	return validateLines(in.Services)
}

// buildLines turns submitted lines into stored lines, deriving the non-authoritative discount
// representation from the authoritative one so both always agree.
func buildLines(inputs []LineInput) []ServiceLine {
	lines := make([]ServiceLine, 0, len(inputs))
	for _, in := range inputs {
		line := ServiceLine{
			ServiceID:   strings.TrimSpace(in.ServiceID),
			Name:        strings.TrimSpace(in.Name),
			Description: strings.TrimSpace(in.Description),
			BasePrice:   pricing.Round2(in.BasePrice),
			Quantity:    in.Quantity,
			Features:    append([]string{}, in.Features...),
			Category:    strings.TrimSpace(in.Category),
			Icon:        strings.TrimSpace(in.Icon),
			IsCustom:    in.IsCustom,
			BillingType: pricing.ParseBillingType(string(in.BillingType)),
		}
		if in.CustomPrice != nil && *in.CustomPrice > 0 {
			custom := pricing.Round2(*in.CustomPrice)
			line.CustomPrice = &custom
		}
		if line.Quantity <= 0 {
			line.Quantity = 1
		}
		if line.Category == "" {
			line.Category = DefaultCategory
		}
		if line.Icon == "" {
			line.Icon = DefaultIcon
		}
		line.DiscountType = pricing.ParseDiscountKind(string(in.DiscountType))
		discount := pricing.NewDiscount(line.DiscountType, in.DiscountPercentage, in.Discount)
		line.Discount, line.DiscountPercentage = discount.Resolve(line.Gross())
		lines = append(lines, line)
	}
	return lines
}

func normalizePayment(p Payment) Payment {
	p.Type = ParsePaymentType(string(p.Type))
	p.CashDiscountPercentage = pricing.Round2(p.CashDiscountPercentage)
	p.InstallmentValue = pricing.Round2(p.InstallmentValue)
	p.ManualInstallmentTotal = pricing.Round2(p.ManualInstallmentTotal)
	return p
}

func pricingLines(lines []ServiceLine) []pricing.Line {
	out := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.PricingLine())
	}
	return out
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
