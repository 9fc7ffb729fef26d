package sales

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiv-accounts/shiv-accounts/internal/shared"
)

func newTestRouter(t *testing.T) (http.Handler, *mockRepository) {
	t.Helper()
	repo := newMockRepository()
	svc := NewService(repo, testChart(t), nil, nil)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	r.Route("/api", h.MountRoutes)
	return r, repo
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerSalesFlow(t *testing.T) {
	router, repo := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/sales-orders",
		`{"customer_id":7,"items":[{"product_id":1,"quantity":2,"unit_price":"100","tax_id":1}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var so salesOrderView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &so))
	require.Len(t, so.Items, 1)
	assert.Equal(t, "2.000", so.Items[0].Quantity)
	assert.Equal(t, "100.00", so.Items[0].UnitPrice)

	rec = do(t, router, http.MethodPost, "/api/invoices/from-so", `{"so_id":`+jsonInt(so.ID)+`,"due_date":"2026-12-31"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var inv invoiceView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))
	assert.Equal(t, "200.00", inv.Subtotal)
	assert.Equal(t, "10.00", inv.TaxTotal)
	assert.Equal(t, "210.00", inv.Total)
	assert.Equal(t, "unpaid", inv.Status)
	require.NotNil(t, inv.DueDate)
	assert.Equal(t, "2026-12-31", *inv.DueDate)

	rec = do(t, router, http.MethodPost, "/api/payments", `{"invoice_id":`+jsonInt(inv.ID)+`,"method":"cash","amount":105}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pay paymentView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pay))
	assert.Equal(t, "partial", pay.Status)
	assert.Equal(t, "105.00", pay.Outstanding)

	rec = do(t, router, http.MethodGet, "/api/invoices/"+jsonInt(inv.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))
	assert.Equal(t, "unpaid", inv.Status)
	assert.Equal(t, "partial", inv.Settlement)
	assert.Equal(t, "105.00", inv.Paid)

	rec = do(t, router, http.MethodGet, "/api/invoices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []invoiceView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	assert.Len(t, repo.committed().postings, 2)
}

func TestHandlerPaymentValidation(t *testing.T) {
	router, repo := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/payments", `{"invoice_id":1,"method":"card","amount":10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")

	rec = do(t, router, http.MethodPost, "/api/payments", `{"invoice_id":1,"method":"cash","amount":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/payments", `{"invoice_id":1,"method":"cash","amount":"1e15"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Zero(t, repo.txCalls)
}

func TestHandlerNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/invoices/from-so", `{"so_id":404}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/payments", `{"invoice_id":404,"method":"bank","amount":"1.00"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/invoices/404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/invoices/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerRejectsBadDueDate(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/invoices/from-so", `{"so_id":1,"due_date":"31/12/2026"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerEmptyListsRenderArrays(t *testing.T) {
	router, _ := newTestRouter(t)
	for _, path := range []string{"/api/sales-orders", "/api/invoices"} {
		rec := do(t, router, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	}
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

type memoryGuard struct {
	keys map[string]bool
}

func (g *memoryGuard) Claim(_ context.Context, scope, key string) error {
	if g.keys[scope+"/"+key] {
		return shared.ErrIdempotencyConflict
	}
	g.keys[scope+"/"+key] = true
	return nil
}

func (g *memoryGuard) Release(_ context.Context, scope, key string) error {
	delete(g.keys, scope+"/"+key)
	return nil
}

func TestHandlerIdempotencyKey(t *testing.T) {
	repo := newMockRepository()
	guard := &memoryGuard{keys: map[string]bool{}}
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(repo, testChart(t), nil, nil)).WithIdempotency(guard)
	router := chi.NewRouter()
	router.Route("/api", h.MountRoutes)

	post := func(path, key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(idempotencyHeader, key)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := do(t, router, http.MethodPost, "/api/sales-orders",
		`{"customer_id":7,"items":[{"product_id":1,"quantity":2,"unit_price":"100","tax_id":1}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var so salesOrderView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &so))

	rec = post("/api/invoices/from-so", "inv-1", `{"so_id":`+jsonInt(so.ID)+`}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var inv invoiceView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))

	rec = post("/api/invoices/from-so", "inv-1", `{"so_id":`+jsonInt(so.ID)+`}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	payment := `{"invoice_id":` + jsonInt(inv.ID) + `,"method":"bank","amount":50}`
	require.Equal(t, http.StatusOK, post("/api/payments", "pay-1", payment).Code)
	assert.Equal(t, http.StatusConflict, post("/api/payments", "pay-1", payment).Code)
	assert.Len(t, repo.committed().payments, 1)

	// a failed request gives its key back
	missing := `{"invoice_id":404,"method":"bank","amount":50}`
	assert.Equal(t, http.StatusNotFound, post("/api/payments", "pay-2", missing).Code)
	assert.Equal(t, http.StatusNotFound, post("/api/payments", "pay-2", missing).Code)
	assert.NotContains(t, guard.keys, "payments/pay-2")

	// a dropped connection may have committed: the key stays claimed
	repo.commitError = fmt.Errorf("commit: %w", shared.ErrUnavailable)
	assert.Equal(t, http.StatusServiceUnavailable, post("/api/payments", "pay-3", payment).Code)
	repo.commitError = nil
	assert.Equal(t, http.StatusConflict, post("/api/payments", "pay-3", payment).Code)
	assert.Len(t, repo.committed().payments, 2)
	assert.Contains(t, guard.keys, "payments/pay-3")
}
