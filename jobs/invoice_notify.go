package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	jobmetrics "github.com/shiv-accounts/shiv-accounts/internal/jobs"
)

// Mailer delivers a plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// defaultSMTPTimeout bounds one delivery when the caller sets no deadline.
const defaultSMTPTimeout = 30 * time.Second

// SMTPMailer sends through a plain SMTP relay such as Mailpit.
type SMTPMailer struct {
	Addr    string
	From    string
	Timeout time.Duration
}

// NewSMTPMailer builds a mailer for host:port.
func NewSMTPMailer(host string, port int, from string) *SMTPMailer {
	return &SMTPMailer{Addr: net.JoinHostPort(host, strconv.Itoa(port)), From: from, Timeout: defaultSMTPTimeout}
}

// Send implements Mailer. The whole exchange follows ctx: cancellation or
// the deadline aborts a stalled relay.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = defaultSMTPTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fail := func(step string, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return fmt.Errorf("smtp: %s: %w", step, err)
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", m.Addr)
	if err != nil {
		return fail("dial "+m.Addr, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	host, _, _ := net.SplitHostPort(m.Addr)
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fail("greeting", err)
	}
	defer client.Close()

	if err := client.Mail(m.From); err != nil {
		return fail("mail from", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fail("rcpt to", err)
	}
	w, err := client.Data()
	if err != nil {
		return fail("data", err)
	}
	if _, err := io.WriteString(w, composeMessage(m.From, to, subject, body)); err != nil {
		return fail("write", err)
	}
	if err := w.Close(); err != nil {
		return fail("data", err)
	}
	if err := client.Quit(); err != nil {
		return fail("quit", err)
	}
	return nil
}

func composeMessage(from, to, subject, body string) string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return msg.String()
}

// InvoiceNotifyJob mails posted invoices to customers.
type InvoiceNotifyJob struct {
	Mailer  Mailer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	printer *message.Printer
}

// NewInvoiceNotifyJob initialises the notify handler.
func NewInvoiceNotifyJob(mailer Mailer, logger *slog.Logger, metrics *jobmetrics.Metrics) *InvoiceNotifyJob {
	return &InvoiceNotifyJob{
		Mailer:  mailer,
		Logger:  logger,
		Metrics: metrics,
		printer: message.NewPrinter(language.English),
	}
}

// Handle renders and sends the invoice mail.
func (j *InvoiceNotifyJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Mailer == nil {
		return errors.New("invoice notify: handler not configured")
	}
	var payload InvoiceNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invoice notify: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.To == "" || payload.InvoiceID <= 0 {
		return fmt.Errorf("invoice notify: recipient and invoice required: %w", asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskInvoiceNotify)
	defer func() { err = tracker.End(err) }()

	subject, body, err := j.render(payload)
	if err != nil {
		return fmt.Errorf("invoice notify: %v: %w", err, asynq.SkipRetry)
	}
	logger := j.logger().With(slog.Int64("invoice_id", payload.InvoiceID))
	if err := j.Mailer.Send(ctx, payload.To, subject, body); err != nil {
		logger.Warn("invoice mail failed", slog.Any("error", err))
		return err
	}
	logger.Info("invoice mail sent")
	return nil
}

func (j *InvoiceNotifyJob) render(p InvoiceNotifyPayload) (string, string, error) {
	amounts := make(map[string]string, 3)
	for label, raw := range map[string]string{"subtotal": p.Subtotal, "tax": p.TaxTotal, "total": p.Total} {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return "", "", fmt.Errorf("%s amount %q", label, raw)
		}
		f, _ := d.Float64()
		amounts[label] = j.printer.Sprint(number.Decimal(f, number.Scale(2)))
	}

	customer := p.Customer
	if customer == "" {
		customer = "Customer"
	}
	subject := j.printer.Sprintf("Invoice #%d", p.InvoiceID)

	var b strings.Builder
	b.WriteString(j.printer.Sprintf("Dear %s,\n\n", customer))
	b.WriteString(j.printer.Sprintf("Invoice #%d has been issued to you.\n\n", p.InvoiceID))
	b.WriteString(j.printer.Sprintf("Subtotal: %s\n", amounts["subtotal"]))
	b.WriteString(j.printer.Sprintf("Tax:      %s\n", amounts["tax"]))
	b.WriteString(j.printer.Sprintf("Total:    %s\n", amounts["total"]))
	if p.DueDate != "" {
		b.WriteString(j.printer.Sprintf("Due date: %s\n", p.DueDate))
	}
	b.WriteString("\nThank you for your business.\n")
	return subject, b.String(), nil
}

func (j *InvoiceNotifyJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
