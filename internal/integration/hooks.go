package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/shiv-accounts/shiv-accounts/internal/accounting"
	"github.com/shiv-accounts/shiv-accounts/internal/masterdata/contacts"
	"github.com/shiv-accounts/shiv-accounts/internal/sales"
	"github.com/shiv-accounts/shiv-accounts/jobs"
)

// ReportInvalidator retires cached reports.
type ReportInvalidator interface {
	Invalidate(ctx context.Context) error
}

// NotifyEnqueuer queues invoice mails.
type NotifyEnqueuer interface {
	EnqueueInvoiceNotify(ctx context.Context, payload jobs.InvoiceNotifyPayload) (*asynq.TaskInfo, error)
}

// ContactReader provides contact lookups.
type ContactReader interface {
	Get(ctx context.Context, id int64) (contacts.Contact, error)
}

// PostingObserver records committed postings.
type PostingObserver interface {
	ObservePosting(refType string, amount decimal.Decimal)
}

// Hooks wires committed sales postings into the report cache, the mail
// queue and metrics. Every collaborator is optional.
type Hooks struct {
	reports  ReportInvalidator
	notifier NotifyEnqueuer
	contacts ContactReader
	metrics  PostingObserver
	logger   *slog.Logger
}

// HooksConfig collects the collaborators of Hooks.
type HooksConfig struct {
	Reports  ReportInvalidator
	Notifier NotifyEnqueuer
	Contacts ContactReader
	Metrics  PostingObserver
	Logger   *slog.Logger
}

// NewHooks constructs integration hooks.
func NewHooks(cfg HooksConfig) *Hooks {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Hooks{
		reports:  cfg.Reports,
		notifier: cfg.Notifier,
		contacts: cfg.Contacts,
		metrics:  cfg.Metrics,
		logger:   logger,
	}
}

// hookTimeout bounds the side effects of one committed posting.
const hookTimeout = 5 * time.Second

// detach keeps request values but drops its cancellation: the posting is
// already committed, so a client hanging up must not skip the follow-up work.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), hookTimeout)
}

func (h *Hooks) invalidate(ctx context.Context) error {
	if h.reports == nil {
		return nil
	}
	if err := h.reports.Invalidate(ctx); err != nil {
		return fmt.Errorf("integration: invalidate reports: %w", err)
	}
	return nil
}

func (h *Hooks) observe(ref accounting.RefType, amount decimal.Decimal) {
	if h.metrics != nil {
		h.metrics.ObservePosting(string(ref), amount)
	}
}

// HandleInvoicePosted reacts to a committed invoice.
func (h *Hooks) HandleInvoicePosted(ctx context.Context, evt sales.InvoicePostedEvent) error {
	if h == nil {
		return nil
	}
	if evt.Invoice.ID <= 0 {
		return errors.New("integration: invoice id required")
	}
	ctx, cancel := detach(ctx)
	defer cancel()
	h.observe(accounting.RefInvoice, evt.Invoice.Total)
	return errors.Join(h.invalidate(ctx), h.notify(ctx, evt.Invoice))
}

// HandlePaymentPosted reacts to a committed payment.
func (h *Hooks) HandlePaymentPosted(ctx context.Context, evt sales.PaymentPostedEvent) error {
	if h == nil {
		return nil
	}
	if evt.Result.InvoiceID <= 0 {
		return errors.New("integration: payment invoice id required")
	}
	ctx, cancel := detach(ctx)
	defer cancel()
	h.observe(accounting.RefPayment, evt.Payment.Amount)
	return h.invalidate(ctx)
}

func (h *Hooks) notify(ctx context.Context, inv sales.Invoice) error {
	if h.notifier == nil || h.contacts == nil {
		return nil
	}
	customer, err := h.contacts.Get(ctx, inv.CustomerID)
	if err != nil {
		return fmt.Errorf("integration: load customer %d: %w", inv.CustomerID, err)
	}
	payload, ok := notifyPayload(inv, customer)
	if !ok {
		return nil
	}
	info, err := h.notifier.EnqueueInvoiceNotify(ctx, payload)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("integration: enqueue invoice mail: %w", err)
	}
	h.logger.DebugContext(ctx, "invoice mail queued", slog.Int64("invoice_id", inv.ID), slog.String("task_id", info.ID))
	return nil
}

var _ sales.PostingHooks = (*Hooks)(nil)
