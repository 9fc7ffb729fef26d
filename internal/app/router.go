package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shiv-accounts/shiv-accounts/internal/accounting"
	"github.com/shiv-accounts/shiv-accounts/internal/accounting/reports"
	"github.com/shiv-accounts/shiv-accounts/internal/masterdata/contacts"
	"github.com/shiv-accounts/shiv-accounts/internal/masterdata/products"
	"github.com/shiv-accounts/shiv-accounts/internal/masterdata/taxes"
	"github.com/shiv-accounts/shiv-accounts/internal/observability"
	"github.com/shiv-accounts/shiv-accounts/internal/platform/httpx"
	"github.com/shiv-accounts/shiv-accounts/internal/sales"
	"github.com/shiv-accounts/shiv-accounts/jobs"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
// Nil handlers are not mounted.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	DB      Pinger
	Metrics *observability.Metrics

	ContactsHandler   *contacts.Handler
	ProductsHandler   *products.Handler
	TaxesHandler      *taxes.Handler
	AccountingHandler *accounting.Handler
	SalesHandler      *sales.Handler
	ReportsHandler    *reports.Handler
	JobHandler        *jobs.Handler
}

type pingResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := params.DB.Ping(ctx); err != nil {
				params.Logger.Warn("health check failed", slog.Any("error", err))
				httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "database unreachable")
				return
			}
		}
		httpx.JSON(w, http.StatusOK, healthResponse{Status: "ok"})
	})

	message := "pong"
	if params.Config != nil && params.Config.PingMessage != "" {
		message = params.Config.PingMessage
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
			httpx.JSON(w, http.StatusOK, pingResponse{Message: message})
		})
		if params.ContactsHandler != nil {
			r.Route("/contacts", params.ContactsHandler.MountRoutes)
		}
		if params.ProductsHandler != nil {
			r.Route("/products", params.ProductsHandler.MountRoutes)
		}
		if params.TaxesHandler != nil {
			r.Route("/taxes", params.TaxesHandler.MountRoutes)
		}
		if params.AccountingHandler != nil {
			params.AccountingHandler.MountRoutes(r)
		}
		if params.SalesHandler != nil {
			params.SalesHandler.MountRoutes(r)
		}
		if params.ReportsHandler != nil {
			r.Route("/reports", params.ReportsHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no such route")
	})
	return r
}
