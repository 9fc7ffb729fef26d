package sales

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/shiv-accounts/shiv-accounts/internal/platform/httpx"
	"github.com/shiv-accounts/shiv-accounts/internal/shared"
)

const idempotencyHeader = "Idempotency-Key"

// IdempotencyGuard claims client request keys so a retried posting is
// rejected instead of written twice.
type IdempotencyGuard interface {
	Claim(ctx context.Context, scope, key string) error
	Release(ctx context.Context, scope, key string) error
}

// Handler manages sales endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	guard     IdempotencyGuard
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

// WithIdempotency enables Idempotency-Key handling on posting endpoints.
func (h *Handler) WithIdempotency(guard IdempotencyGuard) *Handler {
	h.guard = guard
	return h
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/sales-orders", h.listSalesOrders)
	r.Post("/sales-orders", h.createSalesOrder)

	r.Get("/invoices", h.listInvoices)
	r.Get("/invoices/{id}", h.showInvoice)
	r.Post("/invoices/from-so", h.generateInvoice)

	r.Post("/payments", h.registerPayment)
}

// ============================================================================
// VIEWS
// ============================================================================

type salesOrderItemView struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	TaxID     *int64 `json:"tax_id"`
}

type salesOrderView struct {
	ID         int64                `json:"id"`
	CustomerID int64                `json:"customer_id"`
	Customer   string               `json:"customer,omitempty"`
	Status     string               `json:"status"`
	CreatedAt  string               `json:"created_at"`
	Items      []salesOrderItemView `json:"items"`
}

func newSalesOrderView(so SalesOrder) salesOrderView {
	view := salesOrderView{
		ID:         so.ID,
		CustomerID: so.CustomerID,
		Customer:   so.Customer,
		Status:     string(so.Status),
		CreatedAt:  formatTime(so.CreatedAt),
		Items:      make([]salesOrderItemView, 0, len(so.Items)),
	}
	for _, it := range so.Items {
		view.Items = append(view.Items, salesOrderItemView{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  shared.FormatQty(it.Quantity),
			UnitPrice: shared.FormatMoney(it.UnitPrice),
			TaxID:     it.TaxID,
		})
	}
	return view
}

type invoiceItemView struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"product_id"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	TaxID       *int64 `json:"tax_id"`
}

type invoiceView struct {
	ID           int64             `json:"id"`
	SalesOrderID int64             `json:"so_id"`
	CustomerID   int64             `json:"customer_id"`
	Customer     string            `json:"customer,omitempty"`
	Status       string            `json:"status"`
	Settlement   string            `json:"settlement"`
	Subtotal     string            `json:"subtotal"`
	TaxTotal     string            `json:"tax_total"`
	Total        string            `json:"total"`
	Paid         string            `json:"paid"`
	Outstanding  string            `json:"outstanding"`
	DueDate      *string           `json:"due_date"`
	CreatedAt    string            `json:"created_at"`
	Items        []invoiceItemView `json:"items,omitempty"`
}

func newInvoiceView(inv Invoice) invoiceView {
	view := invoiceView{
		ID:           inv.ID,
		SalesOrderID: inv.SalesOrderID,
		CustomerID:   inv.CustomerID,
		Customer:     inv.Customer,
		Status:       string(inv.Status),
		Settlement:   string(inv.Settlement()),
		Subtotal:     shared.FormatMoney(inv.Subtotal()),
		TaxTotal:     shared.FormatMoney(inv.TaxTotal),
		Total:        shared.FormatMoney(inv.Total),
		Paid:         shared.FormatMoney(inv.Paid),
		Outstanding:  shared.FormatMoney(inv.Outstanding()),
		CreatedAt:    formatTime(inv.CreatedAt),
	}
	if inv.DueDate != nil {
		due := inv.DueDate.Format(time.DateOnly)
		view.DueDate = &due
	}
	for _, it := range inv.Items {
		view.Items = append(view.Items, invoiceItemView{
			ID:          it.ID,
			ProductID:   it.ProductID,
			Description: it.Description,
			Quantity:    shared.FormatQty(it.Quantity),
			UnitPrice:   shared.FormatMoney(it.UnitPrice),
			TaxID:       it.TaxID,
		})
	}
	return view
}

type paymentView struct {
	InvoiceID   int64  `json:"invoice_id"`
	PaymentID   int64  `json:"payment_id"`
	Status      string `json:"status"`
	Paid        string `json:"paid"`
	Outstanding string `json:"outstanding"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ============================================================================
// SALES ORDER HANDLERS
// ============================================================================

func (h *Handler) listSalesOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListSalesOrders(r.Context())
	if err != nil {
		h.fail(w, "list sales orders", err)
		return
	}
	views := make([]salesOrderView, 0, len(orders))
	for _, so := range orders {
		views = append(views, newSalesOrderView(so))
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) createSalesOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateSalesOrderRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.CreateSalesOrder(r.Context(), req)
	if err != nil {
		h.fail(w, "create sales order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newSalesOrderView(order))
}

// ============================================================================
// INVOICE HANDLERS
// ============================================================================

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.service.ListInvoices(r.Context())
	if err != nil {
		h.fail(w, "list invoices", err)
		return
	}
	views := make([]invoiceView, 0, len(invoices))
	for _, inv := range invoices {
		views = append(views, newInvoiceView(inv))
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) showInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invoice id must be a positive integer")
		return
	}
	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		h.fail(w, "get invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newInvoiceView(inv))
}

func (h *Handler) generateInvoice(w http.ResponseWriter, r *http.Request) {
	var req GenerateInvoiceRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var due *time.Time
	if req.DueDate != "" {
		parsed, err := time.Parse(time.DateOnly, req.DueDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "due_date must be YYYY-MM-DD")
			return
		}
		due = &parsed
	}
	release, ok := h.claim(w, r, "invoices")
	if !ok {
		return
	}
	inv, err := h.service.GenerateInvoice(r.Context(), req.SalesOrderID, due)
	if err != nil {
		release(err)
		h.fail(w, "generate invoice", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newInvoiceView(inv))
}

// ============================================================================
// PAYMENT HANDLERS
// ============================================================================

func (h *Handler) registerPayment(w http.ResponseWriter, r *http.Request) {
	var req RegisterPaymentRequest
	if err := httpx.DecodeAndValidate(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	release, ok := h.claim(w, r, "payments")
	if !ok {
		return
	}
	result, err := h.service.RegisterPayment(r.Context(), req.InvoiceID, req.Method, req.Amount)
	if err != nil {
		release(err)
		h.fail(w, "register payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, paymentView{
		InvoiceID:   result.InvoiceID,
		PaymentID:   result.PaymentID,
		Status:      string(result.Status),
		Paid:        shared.FormatMoney(result.Paid),
		Outstanding: shared.FormatMoney(result.Outstanding),
	})
}

// claim reserves the request's Idempotency-Key. The returned release must be
// called when the request fails; it gives the key back only when the failure
// proves nothing was committed.
func (h *Handler) claim(w http.ResponseWriter, r *http.Request, scope string) (func(error), bool) {
	key := r.Header.Get(idempotencyHeader)
	if h.guard == nil || key == "" {
		return func(error) {}, true
	}
	if err := h.guard.Claim(r.Context(), scope, key); err != nil {
		h.logger.Warn("idempotency claim rejected", slog.String("scope", scope), slog.Any("error", err))
		httpx.RespondError(w, err)
		return nil, false
	}
	return func(cause error) {
		if !rolledBack(cause) {
			h.logger.Warn("idempotency key kept after ambiguous failure", slog.String("scope", scope), slog.Any("error", cause))
			return
		}
		if err := h.guard.Release(context.WithoutCancel(r.Context()), scope, key); err != nil {
			h.logger.Warn("idempotency release failed", slog.String("scope", scope), slog.Any("error", err))
		}
	}, true
}

// rolledBack reports whether err guarantees the posting transaction did not
// commit. Unavailable or canceled requests may have committed before the
// connection dropped.
func rolledBack(err error) bool {
	return errors.Is(err, shared.ErrValidation) ||
		errors.Is(err, shared.ErrNotFound) ||
		errors.Is(err, shared.ErrConflict)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op+" failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}
