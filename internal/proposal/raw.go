package proposal

import "time"

// RawProposal is a proposal row as handed back by the persistence layer. Numeric columns may
// arrive as strings, numbers or nulls.
type RawProposal struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Amount            any        `json:"amount"`
	ClientID          *string    `json:"client_id"`
	Status            string     `json:"status"`
	Owner             string     `json:"owner"`
	Notes             *string    `json:"notes"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
	ShareToken        *string    `json:"share_token"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	PaymentType            *string `json:"payment_type"`
	CashDiscountPercentage any     `json:"cash_discount_percentage"`
	InstallmentNumber      any     `json:"installment_number"`
	InstallmentValue       any     `json:"installment_value"`
	ManualInstallmentTotal any     `json:"manual_installment_total"`

	ValidityEnabled *bool `json:"validity_enabled"`
	ValidityDays    any   `json:"validity_days"`

	LogoURL       *string `json:"logo_url"`
	GradientTheme *string `json:"gradient_theme"`

	Client *RawClient `json:"client"`
}

// RawClient is the client row joined onto a proposal, if any.
type RawClient struct {
	ID      string  `json:"id"`
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Company *string `json:"company"`
	Phone   *string `json:"phone"`
}

// RawServiceLine is a proposal_services row.
type RawServiceLine struct {
	ID                 string   `json:"id"`
	ProposalID         string   `json:"proposal_id"`
	ServiceID          *string  `json:"service_id"`
	Name               *string  `json:"name"`
	Description        *string  `json:"description"`
	BasePrice          any      `json:"base_price"`
	CustomPrice        any      `json:"custom_price"`
	Quantity           any      `json:"quantity"`
	Discount           any      `json:"discount"`
	DiscountPercentage any      `json:"discount_percentage"`
	DiscountType       *string  `json:"discount_type"`
	Features           []string `json:"features"`
	Category           *string  `json:"category"`
	Icon               *string  `json:"icon"`
	IsCustom           *bool    `json:"is_custom"`
	BillingType        *string  `json:"billing_type"`
}
