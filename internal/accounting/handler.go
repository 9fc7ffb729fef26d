package accounting

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/shiv-accounts/shiv-accounts/internal/platform/httpx"
	"github.com/shiv-accounts/shiv-accounts/internal/shared"
)

// Handler wires chart and ledger endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

// MountRoutes registers HTTP routes for the ledger module.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts", h.listAccounts)
	r.Post("/accounts", h.createAccount)
	r.Get("/ledger", h.listEntries)
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		h.fail(w, "list accounts", err)
		return
	}
	if accounts == nil {
		accounts = []Account{}
	}
	httpx.JSON(w, http.StatusOK, accounts)
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var in CreateAccountInput
	if err := httpx.DecodeAndValidate(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	account, err := h.service.CreateAccount(r.Context(), in)
	if err != nil {
		h.fail(w, "create account", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, account)
}

type entryView struct {
	ID        int64  `json:"id"`
	PostingID string `json:"posting_id"`
	AccountID int64  `json:"account_id"`
	Account   string `json:"account"`
	RefType   string `json:"ref_type"`
	RefID     int64  `json:"ref_id"`
	Debit     string `json:"debit"`
	Credit    string `json:"credit"`
	CreatedAt string `json:"created_at"`
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, err := strconv.ParseInt(q.Get("ref_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "ref_id must be an integer")
		return
	}
	entries, err := h.service.Entries(r.Context(), Ref{Type: RefType(q.Get("ref_type")), ID: id})
	if err != nil {
		h.fail(w, "list ledger entries", err)
		return
	}
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{
			ID:        e.ID,
			PostingID: e.PostingID.String(),
			AccountID: e.AccountID,
			Account:   e.Account,
			RefType:   string(e.Ref.Type),
			RefID:     e.Ref.ID,
			Debit:     shared.FormatMoney(e.Debit),
			Credit:    shared.FormatMoney(e.Credit),
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
