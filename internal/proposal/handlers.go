package proposal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-propostas/internal/common"
	"github.com/noah-isme/backend-propostas/internal/obs"
	"github.com/noah-isme/backend-propostas/internal/pricing"
)

// PDFRenderer writes the document form of a snapshot.
type PDFRenderer interface {
	Render(w io.Writer, snap Snapshot) error
}

// Handler exposes REST endpoints for proposals.
type Handler struct {
	Service      *Service
	Renderer     PDFRenderer
	MaxBodyBytes int64
}

// Date accepts "2006-01-02" or RFC3339 timestamps.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

type lineRequest struct {
	ServiceID          string              `json:"service_id" validate:"omitempty,uuid"`
	Name               string              `json:"name" validate:"required,max=200"`
	Description        string              `json:"description" validate:"max=2000"`
	BasePrice          decimal.Decimal     `json:"base_price" validate:"gte=0,lte=999999999999.99"`
	CustomPrice        decimal.NullDecimal `json:"custom_price" validate:"omitempty,gte=0,lte=999999999999.99"`
	Quantity           int                 `json:"quantity" validate:"gte=0,lte=1000000"`
	DiscountType       string              `json:"discount_type" validate:"omitempty,oneof=percentage value fixed"`
	DiscountPercentage decimal.Decimal     `json:"discount_percentage" validate:"gte=0,lte=100"`
	Discount           decimal.Decimal     `json:"discount" validate:"gte=0,lte=999999999999.99"`
	Features           []string            `json:"features"`
	Category           string              `json:"category" validate:"max=100"`
	Icon               string              `json:"icon" validate:"max=50"`
	IsCustom           bool                `json:"is_custom"`
	BillingType        string              `json:"billing_type" validate:"omitempty,oneof=one_time monthly"`
}

type paymentRequest struct {
	Type                   string              `json:"type" validate:"omitempty,oneof=cash installment"`
	CashDiscountPercentage decimal.Decimal     `json:"cash_discount_percentage" validate:"gte=0,lte=100"`
	InstallmentNumber      int                 `json:"installment_number" validate:"gte=0,lte=120"`
	InstallmentValue       decimal.Decimal     `json:"installment_value" validate:"gte=0,lte=999999999999.99"`
	ManualInstallmentTotal decimal.NullDecimal `json:"manual_installment_total" validate:"omitempty,gte=0,lte=999999999999.99"`
}

type validityRequest struct {
	Enabled bool `json:"enabled"`
	Days    int  `json:"days" validate:"gte=0,lte=3650"`
}

type themeRequest struct {
	LogoURL       string `json:"logo_url" validate:"max=2048"`
	GradientTheme string `json:"gradient_theme" validate:"omitempty,oneof=purple blue green orange dark"`
}

type inlineClientRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"omitempty,email"`
	Company string `json:"company" validate:"max=200"`
	Phone   string `json:"phone" validate:"max=40"`
}

type proposalRequest struct {
	Title             string               `json:"title" validate:"required,max=300"`
	ClientID          string               `json:"client_id" validate:"omitempty,uuid"`
	Client            *inlineClientRequest `json:"client"`
	Draft             bool                 `json:"draft"`
	Notes             string               `json:"notes" validate:"max=10000"`
	ExpectedCloseDate *Date                `json:"expected_close_date"`
	Payment           paymentRequest       `json:"payment"`
	Validity          validityRequest      `json:"validity"`
	Theme             themeRequest         `json:"theme"`
	Services          []lineRequest        `json:"services" validate:"dive"`
}

type quoteRequest struct {
	Payment  paymentRequest `json:"payment"`
	Services []lineRequest  `json:"services" validate:"dive"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type duplicateRequest struct {
	ClientID string `json:"client_id" validate:"omitempty,uuid"`
	Title    string `json:"title" validate:"max=300"`
}

func (req proposalRequest) input() Input {
	in := Input{
		Title:         req.Title,
		ClientID:      req.ClientID,
		Draft:         req.Draft,
		Notes:         req.Notes,
		Payment:       req.Payment.payment(),
		Validity:      Validity{Enabled: req.Validity.Enabled, Days: req.Validity.Days},
		LogoURL:       req.Theme.LogoURL,
		GradientTheme: req.Theme.GradientTheme,
		Services:      lineInputs(req.Services),
	}
	if req.Client != nil {
		in.NewClient = &ClientInput{
			Name:    req.Client.Name,
			Email:   req.Client.Email,
			Company: req.Client.Company,
			Phone:   req.Client.Phone,
		}
	}
	if req.ExpectedCloseDate != nil && !req.ExpectedCloseDate.IsZero() {
		t := req.ExpectedCloseDate.Time
		in.ExpectedCloseDate = &t
	}
	return in
}

func (req paymentRequest) payment() Payment {
	return Payment{
		Type:                   ParsePaymentType(req.Type),
		CashDiscountPercentage: pricing.Number(req.CashDiscountPercentage),
		InstallmentNumber:      req.InstallmentNumber,
		InstallmentValue:       pricing.Number(req.InstallmentValue),
		ManualInstallmentTotal: pricing.Number(req.ManualInstallmentTotal),
	}
}

func lineInputs(reqs []lineRequest) []LineInput {
	out := make([]LineInput, 0, len(reqs))
	for _, r := range reqs {
		in := LineInput{
			ServiceID:          r.ServiceID,
			Name:               r.Name,
			Description:        r.Description,
			BasePrice:          pricing.Number(r.BasePrice),
			Quantity:           r.Quantity,
			DiscountType:       pricing.ParseDiscountKind(r.DiscountType),
			DiscountPercentage: pricing.Number(r.DiscountPercentage),
			Discount:           pricing.Number(r.Discount),
			Features:           r.Features,
			Category:           r.Category,
			Icon:               r.Icon,
			IsCustom:           r.IsCustom,
			BillingType:        pricing.ParseBillingType(r.BillingType),
		}
		if r.CustomPrice.Valid {
			custom := pricing.Number(r.CustomPrice)
			in.CustomPrice = &custom
		}
		out = append(out, in)
	}
	return out
}

// List handles GET /api/v1/proposals.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	page, limit := common.ParsePagination(r, 20)
	q := r.URL.Query()
	params := ListParams{
		ClientID: strings.TrimSpace(q.Get("client_id")),
		Query:    q.Get("q"),
		Page:     page,
		Limit:    limit,
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, ok := ParseStatus(raw)
		if !ok {
			common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown status", map[string]any{"field": "status"})
			return
		}
		params.Status = status
	}
	items, total, err := h.Service.List(r.Context(), userID, params)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.NewPagination(page, limit, total),
	})
}

// Create handles POST /api/v1/proposals.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var req proposalRequest
	if err := common.DecodeAndValidate(w, r, h.MaxBodyBytes, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	created, err := h.Service.Create(r.Context(), userID, req.input())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Quote handles POST /api/v1/proposals/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.user(w, r); !ok {
		return
	}
	var req quoteRequest
	if err := common.DecodeAndValidate(w, r, h.MaxBodyBytes, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	quote, err := h.Service.Quote(r.Context(), Input{Payment: req.Payment.payment(), Services: lineInputs(req.Services)})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}

// Get handles GET /api/v1/proposals/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	p, err := h.Service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// Update handles PUT /api/v1/proposals/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var req proposalRequest
	if err := common.DecodeAndValidate(w, r, h.MaxBodyBytes, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	updated, err := h.Service.Update(r.Context(), userID, chi.URLParam(r, "id"), req.input())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// UpdateStatus handles PATCH /api/v1/proposals/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := common.DecodeAndValidate(w, r, h.MaxBodyBytes, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	updated, err := h.Service.UpdateStatus(r.Context(), userID, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// Duplicate handles POST /api/v1/proposals/{id}/duplicate. The body is optional.
func (h *Handler) Duplicate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var req duplicateRequest
	if err := common.DecodeAndValidate(w, r, h.MaxBodyBytes, &req); err != nil && !errors.Is(err, io.EOF) {
		common.WriteError(w, err)
		return
	}
	copied, err := h.Service.Duplicate(r.Context(), userID, chi.URLParam(r, "id"), DuplicateInput(req))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": copied})
}

// Delete handles DELETE /api/v1/proposals/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Share handles POST /api/v1/proposals/{id}/share.
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	link, err := h.Service.Share(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": link})
}

// Snapshot handles GET /api/v1/proposals/{id}/snapshot.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	snap, err := h.Service.Snapshot(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": snap})
}

// PDF handles GET /api/v1/proposals/{id}/pdf.
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	snap, err := h.Service.Snapshot(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.writePDF(w, snap)
}

// PublicSnapshot handles GET /api/v1/public/proposals/{token}.
func (h *Handler) PublicSnapshot(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	snap, err := h.Service.PublicSnapshot(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": snap})
}

// PublicPDF handles GET /api/v1/public/proposals/{token}/pdf.
func (h *Handler) PublicPDF(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	snap, err := h.Service.PublicSnapshot(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.writePDF(w, snap)
}

func (h *Handler) writePDF(w http.ResponseWriter, snap Snapshot) {
	if h.Renderer == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pdf renderer not configured", nil)
		return
	}
	start := time.Now()
	var buf bytes.Buffer
	if err := h.Renderer.Render(&buf, snap); err != nil {
		obs.ObservePDFRender("error", time.Since(start))
		common.WriteError(w, fmt.Errorf("render proposal pdf: %w", err))
		return
	}
	obs.ObservePDFRender("ok", time.Since(start))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="proposta-%s.pdf"`, snap.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) configured(w http.ResponseWriter) bool {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "proposal service not configured", nil)
		return false
	}
	return true
}

func (h *Handler) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	if !h.configured(w) {
		return "", false
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return "", false
	}
	return userID, true
}
