package common

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Title    string              `json:"title" validate:"required"`
	Price    decimal.Decimal     `json:"price" validate:"gte=0"`
	Discount decimal.NullDecimal `json:"discount" validate:"omitempty,gte=0,lte=100"`
}

func decodeBody(t *testing.T, body string, dst any) error {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	return DecodeAndValidate(rec, req, 0, dst)
}

func TestDecodeAndValidateAcceptsStringNumbers(t *testing.T) {
	var p samplePayload
	require.NoError(t, decodeBody(t, `{"title":"Site","price":"1500.50","discount":10}`, &p))
	require.Equal(t, "1500.5", p.Price.String())
	require.True(t, p.Discount.Valid)
}

func TestDecodeAndValidateReportsFields(t *testing.T) {
	var p samplePayload
	err := decodeBody(t, `{"title":"","price":-1}`, &p)

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	require.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)
	fields := appErr.Details.(map[string]any)["fields"].(map[string]string)
	require.Equal(t, "required", fields["title"])
	require.Equal(t, "gte", fields["price"])
}

func TestDecodeAndValidateRejectsMalformedAndOversized(t *testing.T) {
	var p samplePayload
	err := decodeBody(t, `{"title":`, &p)
	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "BAD_REQUEST", appErr.Code)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"`+strings.Repeat("x", 64)+`"}`))
	err = DecodeAndValidate(httptest.NewRecorder(), req, 16, &p)
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, http.StatusRequestEntityTooLarge, appErr.HTTPStatus)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, NotFound("proposal"))
	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "NOT_FOUND", body["error"].Code)
	require.Equal(t, "proposal not found", body["error"].Message)

	rec = httptest.NewRecorder()
	WriteError(rec, errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "boom")
}

func TestPgErrorHelpers(t *testing.T) {
	require.True(t, IsNoRows(pgx.ErrNoRows))
	require.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	require.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
}

func TestIdempotencyMiddlewareRejectsReplay(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	h := Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	first := httptest.NewRequest(http.MethodPost, "/api/v1/proposals", nil)
	first.Header.Set("Idempotency-Key", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	require.Equal(t, http.StatusCreated, rec.Code)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/proposals", nil)
	second.Header.Set("Idempotency-Key", "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, second)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, 1, calls)
}

func TestIdempotencyKeysAreScopedPerUser(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	h := Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for _, user := range []string{"user-a", "user-b"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/proposals", nil)
		req.Header.Set(IdempotencyHeader, "same-key")
		req = req.WithContext(WithUserID(req.Context(), user))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	require.Equal(t, 2, calls)
	require.True(t, mr.Exists(IdempotencyKey("user-a", http.MethodPost, "/api/v1/proposals", "same-key")))
}

func TestIdempotencyReleasesKeyOnServerError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	status := http.StatusInternalServerError
	h := Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/proposals", nil)
		req.Header.Set(IdempotencyHeader, "retry-me")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	require.Equal(t, http.StatusInternalServerError, send())
	status = http.StatusCreated
	require.Equal(t, http.StatusCreated, send())
	require.Equal(t, http.StatusConflict, send())
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&per_page=500", nil)
	page, perPage := ParsePagination(req, 20)
	require.Equal(t, 3, page)
	require.Equal(t, MaxPerPage, perPage)

	req = httptest.NewRequest(http.MethodGet, "/?page=-1&limit=5", nil)
	page, perPage = ParsePagination(req, 20)
	require.Equal(t, 1, page)
	require.Equal(t, 5, perPage)

	require.Equal(t, 3, NewPagination(1, 10, 21).TotalPages)
	require.Equal(t, 0, NewPagination(1, 10, 0).TotalPages)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	require.Equal(t, "192.0.2.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	require.Equal(t, "198.51.100.2", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "garbage, 203.0.113.7:443, 70.41.3.18")
	require.Equal(t, "203.0.113.7", ClientIP(req))
}

func TestUserIDIgnoresEmpty(t *testing.T) {
	_, ok := UserID(WithUserID(context.Background(), ""))
	require.False(t, ok)
	id, ok := UserID(WithUserID(context.Background(), "u1"))
	require.True(t, ok)
	require.Equal(t, "u1", id)
}
