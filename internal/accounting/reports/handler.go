package reports

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shiv-accounts/shiv-accounts/internal/platform/httpx"
	"github.com/shiv-accounts/shiv-accounts/internal/shared"
)

// Handler exposes the report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/pl", h.profitAndLoss)
	r.Get("/balance-sheet", h.balanceSheet)
	r.Get("/stock", h.stock)
}

type accountRowView struct {
	AccountID int64  `json:"account_id"`
	Name      string `json:"name"`
	Amount    string `json:"amount"`
}

type profitAndLossView struct {
	Income          string           `json:"income"`
	Expenses        string           `json:"expenses"`
	Net             string           `json:"net"`
	IncomeAccounts  []accountRowView `json:"income_accounts"`
	ExpenseAccounts []accountRowView `json:"expense_accounts"`
}

type balanceSheetView struct {
	Assets           []accountRowView `json:"assets"`
	Liabilities      []accountRowView `json:"liabilities"`
	Equity           []accountRowView `json:"equity"`
	TotalAssets      string           `json:"total_assets"`
	TotalLiabilities string           `json:"total_liabilities"`
	TotalEquity      string           `json:"total_equity"`
}

type stockView struct {
	ProductID int64  `json:"product_id"`
	Product   string `json:"product"`
	Qty       string `json:"qty"`
}

func (h *Handler) profitAndLoss(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriod(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.ProfitAndLoss(r.Context(), period)
	if err != nil {
		h.fail(w, "profit and loss", err)
		return
	}
	view := profitAndLossView{
		Income:          shared.FormatMoney(report.Income.Total),
		Expenses:        shared.FormatMoney(report.Expense.Total),
		Net:             shared.FormatMoney(report.Net),
		IncomeAccounts:  make([]accountRowView, 0, len(report.Income.Accounts)),
		ExpenseAccounts: make([]accountRowView, 0, len(report.Expense.Accounts)),
	}
	for _, row := range report.Income.Accounts {
		view.IncomeAccounts = append(view.IncomeAccounts, accountRowView{row.AccountID, row.Name, shared.FormatMoney(row.Amount)})
	}
	for _, row := range report.Expense.Accounts {
		view.ExpenseAccounts = append(view.ExpenseAccounts, accountRowView{row.AccountID, row.Name, shared.FormatMoney(row.Amount)})
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.BalanceSheet(r.Context())
	if err != nil {
		h.fail(w, "balance sheet", err)
		return
	}
	httpx.JSON(w, http.StatusOK, balanceSheetView{
		Assets:           sectionRows(report.Assets),
		Liabilities:      sectionRows(report.Liabilities),
		Equity:           sectionRows(report.Equity),
		TotalAssets:      shared.FormatMoney(report.Assets.Total),
		TotalLiabilities: shared.FormatMoney(report.Liabilities.Total),
		TotalEquity:      shared.FormatMoney(report.Equity.Total),
	})
}

func sectionRows(sec BalanceSheetSection) []accountRowView {
	rows := make([]accountRowView, 0, len(sec.Accounts))
	for _, acc := range sec.Accounts {
		rows = append(rows, accountRowView{acc.AccountID, acc.Name, shared.FormatMoney(acc.Balance)})
	}
	return rows
}

func (h *Handler) stock(w http.ResponseWriter, r *http.Request) {
	levels, err := h.service.Stock(r.Context())
	if err != nil {
		h.fail(w, "stock report", err)
		return
	}
	views := make([]stockView, 0, len(levels))
	for _, lvl := range levels {
		views = append(views, stockView{ProductID: lvl.ProductID, Product: lvl.Product, Qty: shared.FormatQty(lvl.Qty)})
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op+" failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}

// ParsePeriod reads optional from/to bounds. Each accepts RFC 3339 or a
// plain date; a plain-date upper bound extends to the end of that day.
func ParsePeriod(from, to string) (Period, error) {
	var p Period
	if from != "" {
		t, _, err := parseBound(from)
		if err != nil {
			return Period{}, fmt.Errorf("%w: from: %v", shared.ErrValidation, err)
		}
		p.From = &t
	}
	if to != "" {
		t, dateOnly, err := parseBound(to)
		if err != nil {
			return Period{}, fmt.Errorf("%w: to: %v", shared.ErrValidation, err)
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Microsecond)
		}
		p.To = &t
	}
	if p.From != nil && p.To != nil && p.To.Before(*p.From) {
		return Period{}, fmt.Errorf("%w: to is before from", shared.ErrValidation)
	}
	return p, nil
}

func parseBound(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expected YYYY-MM-DD or RFC 3339, got %q", raw)
	}
	return t, false, nil
}
