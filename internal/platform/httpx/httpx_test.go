package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiv-accounts/shiv-accounts/internal/shared"
)

func TestRespondErrorMapsTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", fmt.Errorf("%w: amount must be positive", shared.ErrValidation), http.StatusBadRequest},
		{"not found", fmt.Errorf("sales: invoice 9: %w", shared.ErrNotFound), http.StatusNotFound},
		{"unavailable", fmt.Errorf("%w: dial tcp", shared.ErrUnavailable), http.StatusServiceUnavailable},
		{"conflict", shared.ErrIdempotencyConflict, http.StatusConflict},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tc.err)
			require.Equal(t, tc.status, rec.Code)
			assert.Equal(t, problemContentType, rec.Header().Get("Content-Type"))

			var body ProblemDetail
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tc.status, body.Status)
		})
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("pq: password authentication failed"))

	assert.NotContains(t, rec.Body.String(), "password")
}

type paymentForm struct {
	InvoiceID int64           `json:"invoice_id" validate:"required,gt=0"`
	Method    string          `json:"method" validate:"required,oneof=cash bank"`
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
}

func TestDecodeAndValidate(t *testing.T) {
	v := NewValidator()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"invoice_id":1,"method":"cash","amount":"105.00"}`))
	var ok paymentForm
	require.NoError(t, DecodeAndValidate(req, v, &ok))
	assert.True(t, ok.Amount.Equal(decimal.NewFromInt(105)))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"invoice_id":1,"method":"card","amount":0}`))
	var bad paymentForm
	err := DecodeAndValidate(req, v, &bad)
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Contains(t, err.Error(), "method must be one of [cash bank]")
	assert.Contains(t, err.Error(), "amount must be greater than 0")
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"invoice_id":`))
	var form paymentForm
	assert.ErrorIs(t, DecodeJSON(req, &form), shared.ErrValidation)
}
