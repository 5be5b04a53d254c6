package proposal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-propostas/internal/common"
)

type stubRenderer struct {
	err  error
	seen []Snapshot
}

func (s *stubRenderer) Render(w io.Writer, snap Snapshot) error {
	s.seen = append(s.seen, snap)
	if s.err != nil {
		return s.err
	}
	_, err := io.WriteString(w, "%PDF-1.4 "+snap.Title)
	return err
}

func withRoute(req *http.Request, owner string, params map[string]string) *http.Request {
	ctx := req.Context()
	if owner != "" {
		ctx = common.WithUserID(ctx, owner)
	}
	routeCtx := chi.NewRouteContext()
	for k, v := range params {
		routeCtx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, routeCtx))
}

const createBody = `{
  "title": "Site institucional",
  "expected_close_date": "2024-05-10",
  "payment": {"type": "installment", "cash_discount_percentage": "10", "installment_number": 12, "installment_value": "130.00"},
  "validity": {"enabled": true, "days": 15},
  "theme": {"gradient_theme": "green"},
  "client": {"name": "Maria", "email": "maria@example.com"},
  "services": [
    {"name": "Desenvolvimento", "base_price": "1000", "quantity": 1, "discount_type": "percentage", "discount_percentage": 10},
    {"name": "Hospedagem", "base_price": 200, "custom_price": "250", "quantity": 2, "billing_type": "monthly"}
  ]
}`

type proposalResponse struct {
	Data Proposal `json:"data"`
}

func TestProposalHandlers(t *testing.T) {
	f := newFixture(t)
	renderer := &stubRenderer{}
	h := &Handler{Service: f.svc, Renderer: renderer}

	var created proposalResponse
	t.Run("create", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/proposals", strings.NewReader(createBody))
		rec := httptest.NewRecorder()
		h.Create(rec, withRoute(req, testOwner, nil))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		require.Equal(t, 1400.0, created.Data.Amount)
		require.Equal(t, StatusCreated, created.Data.Status)
		require.Equal(t, ThemeGreen, created.Data.Theme.GradientTheme)
		require.NotNil(t, created.Data.ExpectedCloseDate)
		require.Equal(t, "2024-05-10", created.Data.ExpectedCloseDate.Format("2006-01-02"))
		require.NotNil(t, created.Data.ClientID)
	})

	t.Run("create validation", func(t *testing.T) {
		body := `{"title":"x","payment":{"cash_discount_percentage":150},"services":[{"name":"","base_price":-1}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/proposals", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Create(rec, withRoute(req, testOwner, nil))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var resp map[string]common.ErrorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		fields := resp["error"].Details.(map[string]any)["fields"].(map[string]any)
		require.Equal(t, "lte", fields["payment.cash_discount_percentage"])
		require.Equal(t, "required", fields["services[0].name"])
		require.Equal(t, "gte", fields["services[0].base_price"])
	})

	t.Run("quote", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/proposals/quote", strings.NewReader(createBody))
		rec := httptest.NewRecorder()
		h.Quote(rec, withRoute(req, testOwner, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data Quote `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, 1260.0, resp.Data.Totals.TotalCash)
	})

	t.Run("get and list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/proposals/"+created.Data.ID, nil)
		rec := httptest.NewRecorder()
		h.Get(rec, withRoute(req, testOwner, map[string]string{"id": created.Data.ID}))
		require.Equal(t, http.StatusOK, rec.Code)

		req = httptest.NewRequest(http.MethodGet, "/api/v1/proposals?status=criada", nil)
		rec = httptest.NewRecorder()
		h.List(rec, withRoute(req, testOwner, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data       []Summary         `json:"data"`
			Pagination common.Pagination `json:"pagination"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, int64(1), resp.Pagination.TotalItems)

		req = httptest.NewRequest(http.MethodGet, "/api/v1/proposals?status=perdida", nil)
		rec = httptest.NewRecorder()
		h.List(rec, withRoute(req, testOwner, nil))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"Enviada"}`))
		rec := httptest.NewRecorder()
		h.UpdateStatus(rec, withRoute(req, testOwner, map[string]string{"id": created.Data.ID}))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"status":"Enviada"`)
	})

	var link ShareLink
	t.Run("share and public snapshot", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		h.Share(rec, withRoute(req, testOwner, map[string]string{"id": created.Data.ID}))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data ShareLink `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		link = resp.Data

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		rec = httptest.NewRecorder()
		h.PublicSnapshot(rec, withRoute(req, "", map[string]string{"token": link.Token}))
		require.Equal(t, http.StatusOK, rec.Code)
		var snap struct {
			Data map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		require.Equal(t, "Site institucional", snap.Data["title"])
		totals := snap.Data["totals"].(map[string]any)
		require.Equal(t, 1560.0, totals["totalInstallment"])
	})

	t.Run("pdf", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		h.PDF(rec, withRoute(req, testOwner, map[string]string{"id": created.Data.ID}))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		require.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

		rec = httptest.NewRecorder()
		h.PublicPDF(rec, withRoute(httptest.NewRequest(http.MethodGet, "/", nil), "", map[string]string{"token": link.Token}))
		require.Equal(t, http.StatusOK, rec.Code)

		renderer.err = errors.New("font missing")
		rec = httptest.NewRecorder()
		h.PDF(rec, withRoute(httptest.NewRequest(http.MethodGet, "/", nil), testOwner, map[string]string{"id": created.Data.ID}))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.NotContains(t, rec.Body.String(), "font missing")
	})

	t.Run("duplicate without body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		h.Duplicate(rec, withRoute(req, testOwner, map[string]string{"id": created.Data.ID}))
		require.Equal(t, http.StatusCreated, rec.Code)
		var resp proposalResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, StatusCreated, resp.Data.Status)
		require.Nil(t, resp.Data.ShareToken)
	})

	t.Run("duplicate with empty chunked body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		req.ContentLength = -1
		req.TransferEncoding = []string{"chunked"}
		rec := httptest.NewRecorder()
		h.Duplicate(rec, withRoute(req, testOwner, map[string]string{"id": created.Data.ID}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var resp proposalResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "Site institucional (Cópia)", resp.Data.Title)
	})

	t.Run("duplicate with title override", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"Nova versão"}`))
		rec := httptest.NewRecorder()
		h.Duplicate(rec, withRoute(req, testOwner, map[string]string{"id": created.Data.ID}))
		require.Equal(t, http.StatusCreated, rec.Code)
		var resp proposalResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "Nova versão", resp.Data.Title)

		rec = httptest.NewRecorder()
		bad := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":`))
		h.Duplicate(rec, withRoute(bad, testOwner, map[string]string{"id": created.Data.ID}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("create rejects quantity outside int32", func(t *testing.T) {
		body := `{"title":"x","services":[{"name":"Licença","base_price":"1","quantity":2147483648},{"name":"Setup","base_price":1e14}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/proposals", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Create(rec, withRoute(req, testOwner, nil))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var resp map[string]common.ErrorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		fields := resp["error"].Details.(map[string]any)["fields"].(map[string]any)
		require.Equal(t, "lte", fields["services[0].quantity"])
		require.Equal(t, "lte", fields["services[1].base_price"])
	})

	t.Run("delete", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/", nil)
		rec := httptest.NewRecorder()
		h.Delete(rec, withRoute(req, testOwner, map[string]string{"id": created.Data.ID}))
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = httptest.NewRecorder()
		h.PublicSnapshot(rec, withRoute(httptest.NewRequest(http.MethodGet, "/", nil), "", map[string]string{"token": link.Token}))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/proposals", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
