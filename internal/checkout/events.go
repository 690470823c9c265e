package checkout

import "github.com/boltproto/BoltCheckout/internal/gateway"

type EventType string

const (
	EventInvoiceStatus EventType = "invoice_status"
	EventQuote         EventType = "quote"
	EventBalance       EventType = "balance"
	EventPaymentStatus EventType = "payment_status"
)

// Event is one observed change of the session snapshot. Only the field
// matching the type is populated.
type Event struct {
	Type      EventType       `json:"type"`
	InvoiceID string          `json:"invoice_id"`
	Invoice   *gateway.Invoice `json:"invoice,omitempty"`
	Quote     *gateway.Quote   `json:"quote,omitempty"`
	Balance   int64            `json:"balance,omitempty"`
	Status    PaymentStatus    `json:"status,omitempty"`
}

// Notifier delivers best-effort user-facing messages. Implementations
// must never block; a lost notification is acceptable, a stalled
// payment is not.
type Notifier interface {
	Success(invoiceId string, messageId string)
	Info(invoiceId string, messageId string)
	Warning(invoiceId string, messageId string)
	Error(invoiceId string, messageId string)
}

type noopNotifier struct{}

func (noopNotifier) Success(string, string) {}
func (noopNotifier) Info(string, string)    {}
func (noopNotifier) Warning(string, string) {}
func (noopNotifier) Error(string, string)   {}

// PaymentRecord is handed to the Recorder after every classified
// submission outcome.
type PaymentRecord struct {
	InvoiceID  string
	PaymentID  string
	Status     string
	Asset      string
	AmountSats int64
	TxID       string
}

type Recorder interface {
	Record(rec PaymentRecord)
}

type noopRecorder struct{}

func (noopRecorder) Record(PaymentRecord) {}
