package integration

import (
	"time"

	"github.com/shiv-accounts/shiv-accounts/internal/masterdata/contacts"
	"github.com/shiv-accounts/shiv-accounts/internal/sales"
	"github.com/shiv-accounts/shiv-accounts/internal/shared"
	"github.com/shiv-accounts/shiv-accounts/jobs"
)

// notifyPayload maps a posted invoice and its customer to the mail task.
// ok is false when the customer has no e-mail address.
func notifyPayload(inv sales.Invoice, customer contacts.Contact) (jobs.InvoiceNotifyPayload, bool) {
	if customer.Email == nil || *customer.Email == "" {
		return jobs.InvoiceNotifyPayload{}, false
	}
	payload := jobs.InvoiceNotifyPayload{
		InvoiceID: inv.ID,
		To:        *customer.Email,
		Customer:  customer.Name,
		Subtotal:  shared.FormatMoney(inv.Subtotal()),
		TaxTotal:  shared.FormatMoney(inv.TaxTotal),
		Total:     shared.FormatMoney(inv.Total),
	}
	if inv.DueDate != nil {
		payload.DueDate = inv.DueDate.Format(time.DateOnly)
	}
	return payload, true
}
