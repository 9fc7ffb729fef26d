package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiv-accounts/shiv-accounts/internal/accounting"
	"github.com/shiv-accounts/shiv-accounts/internal/inventory"
	"github.com/shiv-accounts/shiv-accounts/internal/masterdata/products"
	"github.com/shiv-accounts/shiv-accounts/internal/masterdata/taxes"
	"github.com/shiv-accounts/shiv-accounts/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockState struct {
	orders    map[int64]SalesOrder
	invoices  map[int64]Invoice
	payments  []Payment
	postings  []accounting.Posting
	movements []inventory.Movement
	nextID    int64
}

func (s mockState) clone() mockState {
	out := mockState{
		orders:    make(map[int64]SalesOrder, len(s.orders)),
		invoices:  make(map[int64]Invoice, len(s.invoices)),
		payments:  append([]Payment(nil), s.payments...),
		postings:  append([]accounting.Posting(nil), s.postings...),
		movements: append([]inventory.Movement(nil), s.movements...),
		nextID:    s.nextID,
	}
	for k, v := range s.orders {
		v.Items = append([]SalesOrderItem(nil), v.Items...)
		out.orders[k] = v
	}
	for k, v := range s.invoices {
		v.Items = append([]InvoiceItem(nil), v.Items...)
		out.invoices[k] = v
	}
	return out
}

// mockRepository serialises transactions with a mutex, which stands in for
// the invoice row lock, and discards every write of a failed callback.
type mockRepository struct {
	mu       sync.Mutex
	state    mockState
	products map[int64]products.Product
	taxes    map[int64]taxes.Tax
	txCalls  int

	// Error injection
	txError       error
	movementError error
	postingError  error
	// commitError is returned after the transaction's writes are kept,
	// like a commit whose acknowledgement was lost.
	commitError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		state: mockState{
			orders:   make(map[int64]SalesOrder),
			invoices: make(map[int64]Invoice),
			nextID:   1,
		},
		products: map[int64]products.Product{
			1: {ID: 1, Name: "Teak Chair", Type: products.TypeGoods},
			2: {ID: 2, Name: "Assembly", Type: products.TypeService},
			3: {ID: 3, Name: "Oak Table", Type: products.TypeGoods},
		},
		taxes: map[int64]taxes.Tax{
			1: {ID: 1, Name: "GST 5%", Method: taxes.MethodPercentage, Rate: decimal.NewFromInt(5)},
			2: {ID: 2, Name: "Cess", Method: taxes.MethodFixed, Rate: decimal.NewFromInt(15)},
			3: {ID: 3, Name: "Exempt", Method: taxes.MethodPercentage, Rate: decimal.Zero},
		},
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCalls++
	if m.txError != nil {
		return m.txError
	}
	tx := &mockTxRepo{mock: m, state: m.state.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.state = tx.state
	return m.commitError
}

func (m *mockRepository) ListSalesOrders(ctx context.Context, limit int) ([]SalesOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SalesOrder, 0, len(m.state.orders))
	for _, so := range m.state.orders {
		out = append(out, so)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockRepository) ListInvoices(ctx context.Context, limit int) ([]Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Invoice, 0, len(m.state.invoices))
	for _, inv := range m.state.invoices {
		inv.Paid = m.state.paid(inv.ID)
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockRepository) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.state.invoices[id]
	if !ok {
		return Invoice{}, ErrInvoiceNotFound
	}
	inv.Paid = m.state.paid(id)
	return inv, nil
}

func (s mockState) paid(invoiceID int64) decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.payments {
		if p.InvoiceID == invoiceID {
			total = total.Add(p.Amount)
		}
	}
	return total
}

func (m *mockRepository) committed() mockState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// ============================================================================
// MOCK TX REPOSITORY
// ============================================================================

type mockTxRepo struct {
	mock  *mockRepository
	state mockState
}

func (tx *mockTxRepo) id() int64 {
	id := tx.state.nextID
	tx.state.nextID++
	return id
}

func (tx *mockTxRepo) InsertSalesOrder(ctx context.Context, order SalesOrder) (SalesOrder, error) {
	order.ID = tx.id()
	order.CreatedAt = time.Now()
	tx.state.orders[order.ID] = order
	return order, nil
}

func (tx *mockTxRepo) InsertSalesOrderItem(ctx context.Context, item SalesOrderItem) (int64, error) {
	so, ok := tx.state.orders[item.SalesOrderID]
	if !ok {
		return 0, ErrSalesOrderNotFound
	}
	if _, ok := tx.mock.products[item.ProductID]; !ok {
		return 0, fmt.Errorf("%w: product %d", shared.ErrValidation, item.ProductID)
	}
	item.ID = tx.id()
	so.Items = append(so.Items, item)
	tx.state.orders[so.ID] = so
	return item.ID, nil
}

func (tx *mockTxRepo) GetSalesOrder(ctx context.Context, id int64) (SalesOrder, error) {
	so, ok := tx.state.orders[id]
	if !ok {
		return SalesOrder{}, ErrSalesOrderNotFound
	}
	return so, nil
}

func (tx *mockTxRepo) BillableLines(ctx context.Context, salesOrderID int64) ([]BillableLine, error) {
	so := tx.state.orders[salesOrderID]
	var lines []BillableLine
	for _, it := range so.Items {
		p := tx.mock.products[it.ProductID]
		line := BillableLine{
			ProductID:   p.ID,
			ProductName: p.Name,
			ProductType: p.Type,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxID:       it.TaxID,
		}
		if it.TaxID != nil {
			if t, ok := tx.mock.taxes[*it.TaxID]; ok {
				line.TaxMethod = t.Method
				line.TaxRate = t.Rate
			}
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (tx *mockTxRepo) InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	inv.ID = tx.id()
	inv.CreatedAt = time.Now()
	tx.state.invoices[inv.ID] = inv
	return inv, nil
}

func (tx *mockTxRepo) InsertInvoiceItem(ctx context.Context, item InvoiceItem) (int64, error) {
	inv := tx.state.invoices[item.InvoiceID]
	item.ID = tx.id()
	inv.Items = append(inv.Items, item)
	tx.state.invoices[inv.ID] = inv
	return item.ID, nil
}

func (tx *mockTxRepo) LockInvoice(ctx context.Context, id int64) (Invoice, error) {
	inv, ok := tx.state.invoices[id]
	if !ok {
		return Invoice{}, ErrInvoiceNotFound
	}
	return inv, nil
}

func (tx *mockTxRepo) MarkInvoicePaid(ctx context.Context, id int64) error {
	inv := tx.state.invoices[id]
	inv.Status = InvoiceStatusPaid
	tx.state.invoices[id] = inv
	return nil
}

func (tx *mockTxRepo) InsertPayment(ctx context.Context, p Payment) (Payment, error) {
	p.ID = tx.id()
	p.CreatedAt = time.Now()
	tx.state.payments = append(tx.state.payments, p)
	return p, nil
}

func (tx *mockTxRepo) SumPayments(ctx context.Context, invoiceID int64) (decimal.Decimal, error) {
	return tx.state.paid(invoiceID), nil
}

func (tx *mockTxRepo) AppendPosting(ctx context.Context, p accounting.Posting) error {
	if tx.mock.postingError != nil {
		return tx.mock.postingError
	}
	tx.state.postings = append(tx.state.postings, p)
	return nil
}

func (tx *mockTxRepo) AppendMovement(ctx context.Context, mv inventory.Movement) error {
	if tx.mock.movementError != nil {
		return tx.mock.movementError
	}
	if err := mv.Validate(); err != nil {
		return err
	}
	tx.state.movements = append(tx.state.movements, mv)
	return nil
}

// ============================================================================
// FIXTURES
// ============================================================================

type recordingHooks struct {
	mu       sync.Mutex
	invoices []InvoicePostedEvent
	payments []PaymentPostedEvent
	err      error
}

func (h *recordingHooks) HandleInvoicePosted(ctx context.Context, evt InvoicePostedEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.invoices = append(h.invoices, evt)
	return h.err
}

func (h *recordingHooks) HandlePaymentPosted(ctx context.Context, evt PaymentPostedEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.payments = append(h.payments, evt)
	return h.err
}

func testChart(t *testing.T) *accounting.Chart {
	t.Helper()
	byName := make(map[string]int64)
	for i, acc := range accounting.SeedAccounts() {
		byName[acc.Name] = int64(i + 1)
	}
	chart, err := accounting.NewChart(byName)
	require.NoError(t, err)
	return chart
}

func accountID(t *testing.T, chart *accounting.Chart, role accounting.Role) int64 {
	t.Helper()
	id, err := chart.Resolve(role)
	require.NoError(t, err)
	return id
}

func newTestService(t *testing.T) (*Service, *mockRepository, *recordingHooks, *accounting.Chart) {
	t.Helper()
	repo := newMockRepository()
	hooks := &recordingHooks{}
	chart := testChart(t)
	return NewService(repo, chart, hooks, nil), repo, hooks, chart
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func taxID(id int64) *int64 { return &id }

func createOrder(t *testing.T, svc *Service, items ...CreateSalesOrderItemRequest) SalesOrder {
	t.Helper()
	so, err := svc.CreateSalesOrder(context.Background(), CreateSalesOrderRequest{CustomerID: 7, Items: items})
	require.NoError(t, err)
	return so
}

func balanced(p accounting.Posting) bool {
	debit, credit := decimal.Zero, decimal.Zero
	for _, l := range p.Lines() {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit.Equal(credit)
}

// ============================================================================
// SALES ORDER TESTS
// ============================================================================

func TestCreateSalesOrder(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	so := createOrder(t, svc,
		CreateSalesOrderItemRequest{ProductID: 1, Quantity: dec("2"), UnitPrice: dec("100"), TaxID: taxID(1)},
		CreateSalesOrderItemRequest{ProductID: 2, Quantity: dec("1"), UnitPrice: dec("50")},
	)

	assert.Equal(t, SalesOrderStatusConfirmed, so.Status)
	require.Len(t, so.Items, 2)
	assert.Equal(t, so.ID, so.Items[0].SalesOrderID)
	assert.Len(t, repo.committed().orders, 1)
}

func TestCreateSalesOrderRejectsInvalidItems(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateSalesOrder(ctx, CreateSalesOrderRequest{CustomerID: 7})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateSalesOrder(ctx, CreateSalesOrderRequest{CustomerID: 7, Items: []CreateSalesOrderItemRequest{
		{ProductID: 1, Quantity: dec("0"), UnitPrice: dec("10")},
	}})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateSalesOrder(ctx, CreateSalesOrderRequest{CustomerID: 7, Items: []CreateSalesOrderItemRequest{
		{ProductID: 1, Quantity: dec("1"), UnitPrice: dec("-1")},
	}})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateSalesOrder(ctx, CreateSalesOrderRequest{CustomerID: 7, Items: []CreateSalesOrderItemRequest{
		{ProductID: 1, Quantity: dec("100000000000"), UnitPrice: dec("1")},
	}})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateSalesOrder(ctx, CreateSalesOrderRequest{CustomerID: 7, Items: []CreateSalesOrderItemRequest{
		{ProductID: 1, Quantity: dec("1"), UnitPrice: dec("1e15")},
	}})
	assert.ErrorIs(t, err, shared.ErrValidation)

	assert.Zero(t, repo.txCalls)
}

func TestCreateSalesOrderRollsBackOnItemFailure(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	_, err := svc.CreateSalesOrder(context.Background(), CreateSalesOrderRequest{CustomerID: 7, Items: []CreateSalesOrderItemRequest{
		{ProductID: 1, Quantity: dec("1"), UnitPrice: dec("10")},
		{ProductID: 99, Quantity: dec("1"), UnitPrice: dec("10")},
	}})
	require.Error(t, err)
	assert.Empty(t, repo.committed().orders)
}

// ============================================================================
// INVOICE TESTS
// ============================================================================

func TestGenerateInvoicePostsReceivableRevenueAndGST(t *testing.T) {
	svc, repo, hooks, chart := newTestService(t)
	so := createOrder(t, svc, CreateSalesOrderItemRequest{ProductID: 1, Quantity: dec("2"), UnitPrice: dec("100"), TaxID: taxID(1)})

	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	inv, err := svc.GenerateInvoice(context.Background(), so.ID, &due)
	require.NoError(t, err)

	assert.Equal(t, InvoiceStatusUnpaid, inv.Status)
	assert.True(t, inv.Subtotal().Equal(dec("200")))
	assert.True(t, inv.TaxTotal.Equal(dec("10")))
	assert.True(t, inv.Total.Equal(dec("210")))
	assert.Equal(t, &due, inv.DueDate)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "Teak Chair", inv.Items[0].Description)

	state := repo.committed()
	require.Len(t, state.postings, 1)
	posting := state.postings[0]
	assert.True(t, balanced(posting))
	assert.Equal(t, accounting.Ref{Type: accounting.RefInvoice, ID: inv.ID}, posting.Ref())
	assert.Equal(t, lineStrings(
		accounting.Debit(accountID(t, chart, accounting.RoleAccountsReceivable), dec("210")),
		accounting.Credit(accountID(t, chart, accounting.RoleSalesRevenue), dec("200")),
		accounting.Credit(accountID(t, chart, accounting.RoleGSTOutput), dec("10")),
	), lineStrings(posting.Lines()...))

	require.Len(t, state.movements, 1)
	mv := state.movements[0]
	assert.Equal(t, int64(1), mv.ProductID)
	assert.Equal(t, inventory.DirectionOut, mv.Direction)
	assert.True(t, mv.Quantity.Equal(dec("2")))
	assert.Equal(t, inventory.RefInvoice, mv.RefType)
	assert.Equal(t, inv.ID, mv.RefID)

	require.Len(t, hooks.invoices, 1)
	assert.Equal(t, inv.ID, hooks.invoices[0].Invoice.ID)
}

func lineStrings(lines ...accounting.Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, fmt.Sprintf("%d dr %s cr %s", l.AccountID, l.Debit.StringFixed(2), l.Credit.StringFixed(2)))
	}
	return out
}

func TestGenerateInvoiceWithoutTaxSkipsGSTLine(t *testing.T) {
	svc, repo, _, chart := newTestService(t)
	so := createOrder(t, svc,
		CreateSalesOrderItemRequest{ProductID: 1, Quantity: dec("1"), UnitPrice: dec("80")},
		CreateSalesOrderItemRequest{ProductID: 3, Quantity: dec("1"), UnitPrice: dec("20"), TaxID: taxID(3)},
	)

	inv, err := svc.GenerateInvoice(context.Background(), so.ID, nil)
	require.NoError(t, err)
	assert.True(t, inv.TaxTotal.IsZero())
	assert.True(t, inv.Total.Equal(dec("100")))
	assert.Nil(t, inv.DueDate)

	lines := repo.committed().postings[0].Lines()
	require.Len(t, lines, 2)
	gst := accountID(t, chart, accounting.RoleGSTOutput)
	for _, l := range lines {
		assert.NotEqual(t, gst, l.AccountID)
	}
}

func TestGenerateInvoiceFixedTaxAppliesOncePerLine(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	so := createOrder(t, svc,
		CreateSalesOrderItemRequest{ProductID: 1, Quantity: dec("3"), UnitPrice: dec("10"), TaxID: taxID(2)},
		CreateSalesOrderItemRequest{ProductID: 3, Quantity: dec("5"), UnitPrice: dec("4"), TaxID: taxID(2)},
	)

	inv, err := svc.GenerateInvoice(context.Background(), so.ID, nil)
	require.NoError(t, err)
	assert.True(t, inv.Subtotal().Equal(dec("50")), inv.Subtotal().String())
	assert.True(t, inv.TaxTotal.Equal(dec("30")), inv.TaxTotal.String())
	assert.True(t, inv.Total.Equal(dec("80")))
}

func TestGenerateInvoiceMovesStockForGoodsOnly(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	so := createOrder(t, svc,
		CreateSalesOrderItemRequest{ProductID: 1, Quantity: dec("1.5"), UnitPrice: dec("10")},
		CreateSalesOrderItemRequest{ProductID: 2, Quantity: dec("4"), UnitPrice: dec("25")},
	)

	_, err := svc.GenerateInvoice(context.Background(), so.ID, nil)
	require.NoError(t, err)

	movements := repo.committed().movements
	require.Len(t, movements, 1)
	assert.Equal(t, int64(1), movements[0].ProductID)
	assert.True(t, movements[0].Quantity.Equal(dec("1.5")))
}

func TestGenerateInvoiceSalesOrderNotFound(t *testing.T) {
	svc, repo, hooks, _ := newTestService(t)

	_, err := svc.GenerateInvoice(context.Background(), 42, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSalesOrderNotFound)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	state := repo.committed()
	assert.Empty(t, state.invoices)
	assert.Empty(t, state.postings)
	assert.Empty(t, hooks.invoices)
}

func TestGenerateInvoiceRejectsTotalBeyondMoneyColumn(t *testing.T) {
	svc, repo, hooks, _ := newTestService(t)
	so := createOrder(t, svc, CreateSalesOrderItemRequest{ProductID: 1, Quantity: dec("99999999999"), UnitPrice: dec("999999999")})

	_, err := svc.GenerateInvoice(context.Background(), so.ID, nil)
	assert.ErrorIs(t, err, shared.ErrValidation)

	state := repo.committed()
	assert.Empty(t, state.invoices)
	assert.Empty(t, state.postings)
	assert.Empty(t, hooks.invoices)
}

func TestGenerateInvoiceRollsBackWhenStockWriteFails(t *testing.T) {
	svc, repo, hooks, _ := newTestService(t)
	so := createOrder(t, svc, CreateSalesOrderItemRequest{ProductID: 1, Quantity: dec("2"), UnitPrice: dec("100"), TaxID: taxID(1)})
	repo.movementError = fmt.Errorf("stock: %w", shared.ErrUnavailable)

	_, err := svc.GenerateInvoice(context.Background(), so.ID, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrUnavailable)

	state := repo.committed()
	assert.Empty(t, state.invoices)
	assert.Empty(t, state.postings)
	assert.Empty(t, state.movements)
	assert.Empty(t, hooks.invoices)
}

func TestGenerateInvoiceHookFailureKeepsPosting(t *testing.T) {
	svc, repo, hooks, _ := newTestService(t)
	hooks.err = errors.New("redis down")
	so := createOrder(t, svc, CreateSalesOrderItemRequest{ProductID: 2, Quantity: dec("1"), UnitPrice: dec("10")})

	inv, err := svc.GenerateInvoice(context.Background(), so.ID, nil)
	require.NoError(t, err)
	assert.Contains(t, repo.committed().invoices, inv.ID)
}

func TestGenerateInvoiceRejectsMissingOrderID(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	_, err := svc.GenerateInvoice(context.Background(), 0, nil)
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Zero(t, repo.txCalls)
}

// ============================================================================
// PAYMENT TESTS
// ============================================================================

func invoiceFor(t *testing.T, svc *Service) Invoice {
	t.Helper()
	so := createOrder(t, svc, CreateSalesOrderItemRequest{ProductID: 1, Quantity: dec("2"), UnitPrice: dec("100"), TaxID: taxID(1)})
	inv, err := svc.GenerateInvoice(context.Background(), so.ID, nil)
	require.NoError(t, err)
	return inv
}

func TestRegisterPaymentSettlesInvoice(t *testing.T) {
	svc, repo, hooks, chart := newTestService(t)
	inv := invoiceFor(t, svc)

	res, err := svc.RegisterPayment(context.Background(), inv.ID, PaymentMethodCash, dec("210"))
	require.NoError(t, err)
	assert.Equal(t, SettlementPaid, res.Status)
	assert.True(t, res.Paid.Equal(dec("210")))
	assert.True(t, res.Outstanding.IsZero())

	state := repo.committed()
	assert.Equal(t, InvoiceStatusPaid, state.invoices[inv.ID].Status)
	require.Len(t, state.postings, 2)
	payment := state.postings[1]
	assert.Equal(t, accounting.Ref{Type: accounting.RefPayment, ID: inv.ID}, payment.Ref())
	assert.Equal(t, lineStrings(
		accounting.Debit(accountID(t, chart, accounting.RoleCash), dec("210")),
		accounting.Credit(accountID(t, chart, accounting.RoleAccountsReceivable), dec("210")),
	), lineStrings(payment.Lines()...))

	require.Len(t, hooks.payments, 1)
	assert.Equal(t, res, hooks.payments[0].Result)
}

func TestRegisterPaymentPartialThenPaid(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	inv := invoiceFor(t, svc)
	ctx := context.Background()

	first, err := svc.RegisterPayment(ctx, inv.ID, PaymentMethodBank, dec("105"))
	require.NoError(t, err)
	assert.Equal(t, SettlementPartial, first.Status)
	assert.True(t, first.Outstanding.Equal(dec("105")))
	assert.Equal(t, InvoiceStatusUnpaid, repo.committed().invoices[inv.ID].Status)

	second, err := svc.RegisterPayment(ctx, inv.ID, PaymentMethodBank, dec("105"))
	require.NoError(t, err)
	assert.Equal(t, SettlementPaid, second.Status)
	assert.Equal(t, InvoiceStatusPaid, repo.committed().invoices[inv.ID].Status)
}

func TestRegisterPaymentUsesBankAccount(t *testing.T) {
	svc, repo, _, chart := newTestService(t)
	inv := invoiceFor(t, svc)

	_, err := svc.RegisterPayment(context.Background(), inv.ID, PaymentMethodBank, dec("50"))
	require.NoError(t, err)

	state := repo.committed()
	lines := state.postings[len(state.postings)-1].Lines()
	assert.Equal(t, accountID(t, chart, accounting.RoleBank), lines[0].AccountID)
	assert.Equal(t, accountID(t, chart, accounting.RoleBank), state.payments[0].AccountID)
}

func TestRegisterPaymentAcceptsOverpayment(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	inv := invoiceFor(t, svc)

	res, err := svc.RegisterPayment(context.Background(), inv.ID, PaymentMethodCash, dec("300"))
	require.NoError(t, err)
	assert.Equal(t, SettlementPaid, res.Status)
	assert.True(t, res.Outstanding.IsZero())
	assert.True(t, res.Paid.Equal(dec("300")))
}

func TestRegisterPaymentValidation(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()
	calls := repo.txCalls

	tests := []struct {
		name    string
		invoice int64
		method  PaymentMethod
		amount  decimal.Decimal
	}{
		{"unknown method", 1, PaymentMethod("card"), dec("10")},
		{"zero amount", 1, PaymentMethodCash, decimal.Zero},
		{"negative amount", 1, PaymentMethodCash, dec("-5")},
		{"rounds to zero", 1, PaymentMethodCash, dec("0.001")},
		{"missing invoice id", 0, PaymentMethodCash, dec("10")},
		{"exceeds money column", 1, PaymentMethodCash, dec("1000000000000000")},
		{"rounds past money column", 1, PaymentMethodCash, dec("999999999999.995")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RegisterPayment(ctx, tc.invoice, tc.method, tc.amount)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
	assert.Equal(t, calls, repo.txCalls)
}

func TestRegisterPaymentInvoiceNotFound(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	_, err := svc.RegisterPayment(context.Background(), 99, PaymentMethodCash, dec("10"))
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, repo.committed().payments)
}

func TestRegisterPaymentRollsBackWhenPostingFails(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	inv := invoiceFor(t, svc)
	repo.postingError = errors.New("insert failed")

	_, err := svc.RegisterPayment(context.Background(), inv.ID, PaymentMethodCash, dec("210"))
	require.Error(t, err)

	state := repo.committed()
	assert.Empty(t, state.payments)
	assert.Equal(t, InvoiceStatusUnpaid, state.invoices[inv.ID].Status)
}

func TestRegisterPaymentConcurrent(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	inv := invoiceFor(t, svc)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []Settlement
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.RegisterPayment(context.Background(), inv.ID, PaymentMethodCash, dec("105"))
			assert.NoError(t, err)
			mu.Lock()
			results = append(results, res.Status)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []Settlement{SettlementPartial, SettlementPaid}, results)
	state := repo.committed()
	assert.Equal(t, InvoiceStatusPaid, state.invoices[inv.ID].Status)
	assert.Len(t, state.payments, 2)
	for _, p := range state.postings {
		assert.True(t, balanced(p))
	}
}

func TestSettlementFor(t *testing.T) {
	total := dec("210")
	assert.Equal(t, SettlementUnpaid, SettlementFor(total, decimal.Zero))
	assert.Equal(t, SettlementPartial, SettlementFor(total, dec("0.01")))
	assert.Equal(t, SettlementPaid, SettlementFor(total, total))
	assert.Equal(t, SettlementPaid, SettlementFor(total, dec("500")))
}
