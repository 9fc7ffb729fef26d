package sales

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiv-accounts/shiv-accounts/internal/accounting"
	"github.com/shiv-accounts/shiv-accounts/internal/inventory"
	"github.com/shiv-accounts/shiv-accounts/internal/masterdata/products"
	"github.com/shiv-accounts/shiv-accounts/internal/shared"
)

const listLimit = 100

// Store is the persistence port of the service.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListSalesOrders(ctx context.Context, limit int) ([]SalesOrder, error)
	ListInvoices(ctx context.Context, limit int) ([]Invoice, error)
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
}

// ChartResolver maps account roles to ids.
type ChartResolver interface {
	Resolve(role accounting.Role) (int64, error)
}

// PostingHooks receive events after a posting transaction commits.
type PostingHooks interface {
	HandleInvoicePosted(ctx context.Context, evt InvoicePostedEvent) error
	HandlePaymentPosted(ctx context.Context, evt PaymentPostedEvent) error
}

// Service turns sales documents into ledger postings and stock movements.
type Service struct {
	store  Store
	chart  ChartResolver
	hooks  PostingHooks
	logger *slog.Logger
}

// NewService constructs a sales service. hooks may be nil.
func NewService(store Store, chart ChartResolver, hooks PostingHooks, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, chart: chart, hooks: hooks, logger: logger}
}

// ============================================================================
// SALES ORDER OPERATIONS
// ============================================================================

// CreateSalesOrder stores a confirmed order with its items.
func (s *Service) CreateSalesOrder(ctx context.Context, req CreateSalesOrderRequest) (SalesOrder, error) {
	if len(req.Items) == 0 {
		return SalesOrder{}, ErrEmptyOrder
	}
	for idx, item := range req.Items {
		if !item.Quantity.IsPositive() {
			return SalesOrder{}, fmt.Errorf("%w: item %d quantity must be greater than zero", shared.ErrValidation, idx)
		}
		if item.UnitPrice.IsNegative() {
			return SalesOrder{}, fmt.Errorf("%w: item %d unit price must not be negative", shared.ErrValidation, idx)
		}
		if !shared.QtyFits(item.Quantity) {
			return SalesOrder{}, fmt.Errorf("%w: item %d quantity exceeds %s", shared.ErrValidation, idx, shared.FormatQty(shared.MaxQty))
		}
		if !shared.MoneyFits(item.UnitPrice) {
			return SalesOrder{}, fmt.Errorf("%w: item %d unit price exceeds %s", shared.ErrValidation, idx, shared.FormatMoney(shared.MaxMoney))
		}
	}

	var order SalesOrder
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		order, err = tx.InsertSalesOrder(ctx, SalesOrder{CustomerID: req.CustomerID, Status: SalesOrderStatusConfirmed})
		if err != nil {
			return err
		}
		for _, in := range req.Items {
			item := SalesOrderItem{
				SalesOrderID: order.ID,
				ProductID:    in.ProductID,
				Quantity:     in.Quantity,
				UnitPrice:    shared.RoundMoney(in.UnitPrice),
				TaxID:        in.TaxID,
			}
			item.ID, err = tx.InsertSalesOrderItem(ctx, item)
			if err != nil {
				return err
			}
			order.Items = append(order.Items, item)
		}
		return nil
	})
	if err != nil {
		return SalesOrder{}, fmt.Errorf("create sales order: %w", err)
	}
	return order, nil
}

// ListSalesOrders returns the latest orders.
func (s *Service) ListSalesOrders(ctx context.Context) ([]SalesOrder, error) {
	return s.store.ListSalesOrders(ctx, listLimit)
}

// ============================================================================
// INVOICE OPERATIONS
// ============================================================================

// GenerateInvoice prices a sales order and, in one transaction, stores the
// invoice, posts receivable/revenue/GST and moves stock for goods lines.
func (s *Service) GenerateInvoice(ctx context.Context, salesOrderID int64, dueDate *time.Time) (Invoice, error) {
	if salesOrderID <= 0 {
		return Invoice{}, fmt.Errorf("%w: so_id required", shared.ErrValidation)
	}
	ar, err := s.chart.Resolve(accounting.RoleAccountsReceivable)
	if err != nil {
		return Invoice{}, err
	}
	revenue, err := s.chart.Resolve(accounting.RoleSalesRevenue)
	if err != nil {
		return Invoice{}, err
	}
	gstOut, err := s.chart.Resolve(accounting.RoleGSTOutput)
	if err != nil {
		return Invoice{}, err
	}

	var inv Invoice
	err = s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		so, err := tx.GetSalesOrder(ctx, salesOrderID)
		if err != nil {
			return err
		}
		lines, err := tx.BillableLines(ctx, so.ID)
		if err != nil {
			return err
		}
		totals := CalculateInvoiceTotals(lines)
		if !shared.MoneyFits(totals.Total) {
			return fmt.Errorf("%w: invoice total %s exceeds %s", shared.ErrValidation, shared.FormatMoney(totals.Total), shared.FormatMoney(shared.MaxMoney))
		}

		inv, err = tx.InsertInvoice(ctx, Invoice{
			SalesOrderID: so.ID,
			CustomerID:   so.CustomerID,
			Status:       InvoiceStatusUnpaid,
			Total:        totals.Total,
			TaxTotal:     totals.TaxTotal,
			Paid:         decimal.Zero,
			DueDate:      dueDate,
		})
		if err != nil {
			return err
		}
		for _, line := range lines {
			item := InvoiceItem{
				InvoiceID:   inv.ID,
				ProductID:   line.ProductID,
				Description: line.ProductName,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				TaxID:       line.TaxID,
			}
			if item.ID, err = tx.InsertInvoiceItem(ctx, item); err != nil {
				return err
			}
			inv.Items = append(inv.Items, item)
		}

		posting, err := accounting.NewPosting(accounting.Ref{Type: accounting.RefInvoice, ID: inv.ID},
			accounting.Debit(ar, totals.Total),
			accounting.Credit(revenue, totals.Subtotal),
			accounting.Credit(gstOut, totals.TaxTotal),
		)
		if err != nil {
			return err
		}
		if err := tx.AppendPosting(ctx, posting); err != nil {
			return err
		}

		for _, line := range lines {
			if line.ProductType != products.TypeGoods {
				continue
			}
			err := tx.AppendMovement(ctx, inventory.Movement{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Direction: inventory.DirectionOut,
				RefType:   inventory.RefInvoice,
				RefID:     inv.ID,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Invoice{}, fmt.Errorf("generate invoice: %w", err)
	}

	s.logger.InfoContext(ctx, "invoice posted",
		slog.Int64("invoice_id", inv.ID),
		slog.Int64("so_id", inv.SalesOrderID),
		slog.String("total", shared.FormatMoney(inv.Total)))
	if s.hooks != nil {
		if err := s.hooks.HandleInvoicePosted(ctx, InvoicePostedEvent{Invoice: inv}); err != nil {
			s.logger.WarnContext(ctx, "invoice hooks failed", slog.Int64("invoice_id", inv.ID), slog.Any("error", err))
		}
	}
	return inv, nil
}

// ListInvoices returns the latest invoices.
func (s *Service) ListInvoices(ctx context.Context) ([]Invoice, error) {
	return s.store.ListInvoices(ctx, listLimit)
}

// GetInvoice returns one invoice with its items.
func (s *Service) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	return s.store.GetInvoice(ctx, id)
}

// ============================================================================
// PAYMENT OPERATIONS
// ============================================================================

// RegisterPayment records a payment against an invoice and settles it once
// cumulative payments reach the total. Overpayments are accepted.
func (s *Service) RegisterPayment(ctx context.Context, invoiceID int64, method PaymentMethod, amount decimal.Decimal) (PaymentResult, error) {
	if invoiceID <= 0 {
		return PaymentResult{}, fmt.Errorf("%w: invoice_id required", shared.ErrValidation)
	}
	role, err := method.SettlementRole()
	if err != nil {
		return PaymentResult{}, err
	}
	if !amount.IsPositive() {
		return PaymentResult{}, ErrInvalidAmount
	}
	amount = shared.RoundMoney(amount)
	if !amount.IsPositive() {
		return PaymentResult{}, ErrInvalidAmount
	}
	if !shared.MoneyFits(amount) {
		return PaymentResult{}, ErrAmountTooLarge
	}
	settlement, err := s.chart.Resolve(role)
	if err != nil {
		return PaymentResult{}, err
	}
	ar, err := s.chart.Resolve(accounting.RoleAccountsReceivable)
	if err != nil {
		return PaymentResult{}, err
	}

	var (
		payment Payment
		result  PaymentResult
	)
	err = s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.LockInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		payment, err = tx.InsertPayment(ctx, Payment{
			InvoiceID: inv.ID,
			AccountID: settlement,
			Method:    method,
			Amount:    amount,
		})
		if err != nil {
			return err
		}

		posting, err := accounting.NewPosting(accounting.Ref{Type: accounting.RefPayment, ID: inv.ID},
			accounting.Debit(settlement, amount),
			accounting.Credit(ar, amount),
		)
		if err != nil {
			return err
		}
		if err := tx.AppendPosting(ctx, posting); err != nil {
			return err
		}

		paid, err := tx.SumPayments(ctx, inv.ID)
		if err != nil {
			return err
		}
		status := SettlementFor(inv.Total, paid)
		if status == SettlementPaid && inv.Status != InvoiceStatusPaid {
			if err := tx.MarkInvoicePaid(ctx, inv.ID); err != nil {
				return err
			}
		}
		inv.Paid = paid
		result = PaymentResult{
			InvoiceID:   inv.ID,
			PaymentID:   payment.ID,
			Status:      status,
			Paid:        paid,
			Outstanding: inv.Outstanding(),
		}
		return nil
	})
	if err != nil {
		return PaymentResult{}, fmt.Errorf("register payment: %w", err)
	}

	s.logger.InfoContext(ctx, "payment posted",
		slog.Int64("invoice_id", result.InvoiceID),
		slog.Int64("payment_id", result.PaymentID),
		slog.String("method", string(method)),
		slog.String("amount", shared.FormatMoney(amount)),
		slog.String("status", string(result.Status)))
	if s.hooks != nil {
		if err := s.hooks.HandlePaymentPosted(ctx, PaymentPostedEvent{Payment: payment, Result: result}); err != nil {
			s.logger.WarnContext(ctx, "payment hooks failed", slog.Int64("invoice_id", result.InvoiceID), slog.Any("error", err))
		}
	}
	return result, nil
}
