package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-propostas/internal/client"
	"github.com/noah-isme/backend-propostas/internal/common"
)

func authed(req *http.Request, params map[string]string) *http.Request {
	ctx := common.WithUserID(req.Context(), ownerID)
	if len(params) > 0 {
		routeCtx := chi.NewRouteContext()
		for k, v := range params {
			routeCtx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	}
	return req.WithContext(ctx)
}

func TestClientHandlers(t *testing.T) {
	h := &client.Handler{Service: &client.Service{Store: newMemoryStore()}}

	var created struct {
		Data client.Client `json:"data"`
	}

	t.Run("create", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/clients", strings.NewReader(`{"name":"Acme","email":"ops@acme.com"}`))
		rec := httptest.NewRecorder()
		h.Create(rec, authed(req, nil))
		require.Equal(t, http.StatusCreated, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		require.Equal(t, "Acme", created.Data.Name)
	})

	t.Run("create validates email", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/clients", strings.NewReader(`{"name":"Bad","email":"nope"}`))
		rec := httptest.NewRecorder()
		h.Create(rec, authed(req, nil))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/clients?q=acm", nil)
		rec := httptest.NewRecorder()
		h.List(rec, authed(req, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data       []client.Client   `json:"data"`
			Pagination common.Pagination `json:"pagination"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, int64(1), resp.Pagination.TotalItems)
	})

	t.Run("get and update", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/clients/"+created.Data.ID, nil)
		rec := httptest.NewRecorder()
		h.Get(rec, authed(req, map[string]string{"id": created.Data.ID}))
		require.Equal(t, http.StatusOK, rec.Code)

		req = httptest.NewRequest(http.MethodPut, "/api/v1/clients/"+created.Data.ID, strings.NewReader(`{"name":"Acme SA"}`))
		rec = httptest.NewRecorder()
		h.Update(rec, authed(req, map[string]string{"id": created.Data.ID}))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "Acme SA")
	})

	t.Run("delete", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/clients/"+created.Data.ID, nil)
		rec := httptest.NewRecorder()
		h.Delete(rec, authed(req, map[string]string{"id": created.Data.ID}))
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = httptest.NewRecorder()
		h.Get(rec, authed(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": created.Data.ID}))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
