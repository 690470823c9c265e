package checkout

import (
	"context"
	"sync"

	"github.com/boltproto/BoltCheckout/internal/gateway"
)

type mockGateway struct {
	mu sync.Mutex

	getInvoiceFn    func(invoiceId string) (gateway.Invoice, error)
	getQuoteFn      func(from, to, toAmount string) (gateway.Quote, error)
	submitPaymentFn func(invoiceId string, request gateway.SubmitPaymentRequest) (gateway.PaymentResult, error)

	getInvoiceCalls    int
	getQuoteCalls      int
	submitPaymentCalls int
}

func (m *mockGateway) GetInvoice(invoiceId string) (gateway.Invoice, error) {
	m.mu.Lock()
	m.getInvoiceCalls++
	fn := m.getInvoiceFn
	m.mu.Unlock()
	if fn == nil {
		return gateway.Invoice{ID: invoiceId, Status: gateway.InvoiceCreated}, nil
	}
	return fn(invoiceId)
}

func (m *mockGateway) GetQuote(from, to, toAmount string) (gateway.Quote, error) {
	m.mu.Lock()
	m.getQuoteCalls++
	fn := m.getQuoteFn
	m.mu.Unlock()
	if fn == nil {
		return gateway.Quote{FromAsset: from, ToAsset: to, ToAmount: toAmount, FromAmount: "1000"}, nil
	}
	return fn(from, to, toAmount)
}

func (m *mockGateway) SubmitPayment(invoiceId string, request gateway.SubmitPaymentRequest) (gateway.PaymentResult, error) {
	m.mu.Lock()
	m.submitPaymentCalls++
	fn := m.submitPaymentFn
	m.mu.Unlock()
	if fn == nil {
		return gateway.PaymentResult{InvoiceID: invoiceId, Status: gateway.PaymentConfirmed}, nil
	}
	return fn(invoiceId, request)
}

func (m *mockGateway) invoiceCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getInvoiceCalls
}

func (m *mockGateway) quoteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getQuoteCalls
}

func (m *mockGateway) submitCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submitPaymentCalls
}

type mockWallet struct {
	mu         sync.Mutex
	connected  bool
	balance    int64
	balanceErr error
	signFn     func(ctx context.Context, amountSats int64, recipient, memo string) (string, error)
	signCalls  int
}

func (m *mockWallet) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	return nil
}

func (m *mockWallet) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
}

func (m *mockWallet) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockWallet) Address() (string, error) {
	return "bc1qtestwallet", nil
}

func (m *mockWallet) Network() string {
	return "testnet"
}

func (m *mockWallet) Balance(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance, m.balanceErr
}

func (m *mockWallet) SignTransfer(ctx context.Context, amountSats int64, recipient, memo string) (string, error) {
	m.mu.Lock()
	m.signCalls++
	fn := m.signFn
	m.mu.Unlock()
	if fn == nil {
		return "0xdeadbeef", nil
	}
	return fn(ctx, amountSats, recipient, memo)
}

type mockRecorder struct {
	mu      sync.Mutex
	records []PaymentRecord
}

func (m *mockRecorder) Record(rec PaymentRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
}

func (m *mockRecorder) all() []PaymentRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PaymentRecord, len(m.records))
	copy(out, m.records)
	return out
}

type mockNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockNotifier) Success(invoiceId, messageId string) { m.add(messageId) }
func (m *mockNotifier) Info(invoiceId, messageId string)    { m.add(messageId) }
func (m *mockNotifier) Warning(invoiceId, messageId string) { m.add(messageId) }
func (m *mockNotifier) Error(invoiceId, messageId string)   { m.add(messageId) }

func (m *mockNotifier) add(messageId string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, messageId)
}

func (m *mockNotifier) all() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.messages))
	copy(out, m.messages)
	return out
}
