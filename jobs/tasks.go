package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInvoiceNotify mails a freshly posted invoice to its customer.
	TaskInvoiceNotify = "invoice:notify"
	// TaskLedgerIntegrity scans the ledger for unbalanced postings.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskIdempotencyCleanup purges expired Idempotency-Key records.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// InvoiceNotifyPayload carries everything the mail needs, so the worker
// never reads the ledger database for it.
type InvoiceNotifyPayload struct {
	InvoiceID int64  `json:"invoice_id"`
	To        string `json:"to"`
	Customer  string `json:"customer"`
	Subtotal  string `json:"subtotal"`
	TaxTotal  string `json:"tax_total"`
	Total     string `json:"total"`
	DueDate   string `json:"due_date,omitempty"`
}

// NewInvoiceNotifyTask constructs an Asynq task.
func NewInvoiceNotifyTask(payload InvoiceNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceNotify, data, asynq.MaxRetry(5)), nil
}

// NewLedgerIntegrityTask builds the periodic integrity scan task.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil, asynq.MaxRetry(1))
}

// NewIdempotencyCleanupTask builds the periodic key purge task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil, asynq.MaxRetry(1))
}
