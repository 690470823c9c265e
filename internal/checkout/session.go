package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/boltproto/BoltCheckout/internal/errors"
	"github.com/boltproto/BoltCheckout/internal/gateway"
	"github.com/boltproto/BoltCheckout/internal/wallet"
	log "github.com/sirupsen/logrus"
)

// PaymentStatus tracks the local payment workflow. It is not the
// invoice status; the reconciler converges the two.
type PaymentStatus string

const (
	StatusIdle        PaymentStatus = "idle"
	StatusProcessing  PaymentStatus = "processing"
	StatusCompleted   PaymentStatus = "completed"
	StatusRejected    PaymentStatus = "rejected"
	StatusAlreadyPaid PaymentStatus = "already_paid"
)

// Terminal reports whether no further automatic transition happens.
func (s PaymentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusAlreadyPaid
}

// GatewayAPI is the slice of the gateway client the session needs.
type GatewayAPI interface {
	GetInvoice(invoiceId string) (gateway.Invoice, error)
	GetQuote(from, to, toAmount string) (gateway.Quote, error)
	SubmitPayment(invoiceId string, request gateway.SubmitPaymentRequest) (gateway.PaymentResult, error)
}

// Snapshot is the single consistent view of a checkout session. All
// writes replace whole fields, so a reader never sees a quote that
// belongs to a different invoice than the one displayed.
type Snapshot struct {
	Invoice       *gateway.Invoice
	Quote         *gateway.Quote
	Balance       int64
	BalanceKnown  bool
	PaymentStatus PaymentStatus
	TxID          string
	LastError     error
}

type Config struct {
	QuoteRefreshInterval time.Duration
	PollInterval         time.Duration
	PollTimeout          time.Duration
	// GatewayAddress receives every checkout transfer.
	GatewayAddress string
	Asset          string
}

func (c Config) withDefaults() Config {
	if c.QuoteRefreshInterval == 0 {
		c.QuoteRefreshInterval = 20 * time.Second
	}
	if c.PollInterval == 0 {
		c.PollInterval = 3 * time.Second
	}
	if c.PollTimeout == 0 {
		c.PollTimeout = 5 * time.Minute
	}
	if c.Asset == "" {
		c.Asset = "sBTC"
	}
	return c
}

// Session drives one invoice through quote acquisition, balance
// verification, payment submission and status reconciliation.
type Session struct {
	invoiceID string
	gateway   GatewayAPI
	wallet    wallet.Adapter
	notify    Notifier
	record    Recorder
	cfg       Config

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	snap Snapshot

	// quote refreshes are ordered by dispatch sequence so a slow fetch
	// completing late cannot overwrite a newer quote
	quoteSeq     uint64
	quoteApplied uint64
	quoteTicker  resettable
	quoteCancel  context.CancelFunc

	observers    map[int]chan Event
	nextObserver int
	persist      func(Snapshot)
}

type resettable interface {
	Reset()
}

func NewSession(invoiceId string, gatewayApi GatewayAPI, walletAdapter wallet.Adapter, cfg Config) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		invoiceID: invoiceId,
		gateway:   gatewayApi,
		wallet:    walletAdapter,
		notify:    noopNotifier{},
		record:    noopRecorder{},
		cfg:       cfg.withDefaults(),
		ctx:       ctx,
		cancel:    cancel,
		snap:      Snapshot{PaymentStatus: StatusIdle},
		observers: make(map[int]chan Event),
	}
}

// WithNotifier sets the notification sink. Must be called before Start.
func (s *Session) WithNotifier(n Notifier) *Session {
	if n != nil {
		s.notify = n
	}
	return s
}

// WithRecorder sets the payment history sink. Must be called before Start.
func (s *Session) WithRecorder(r Recorder) *Session {
	if r != nil {
		s.record = r
	}
	return s
}

// WithPersistence sets a callback invoked after every payment status
// change, used to survive page reloads. Must be called before Start.
func (s *Session) WithPersistence(persist func(Snapshot)) *Session {
	s.persist = persist
	return s
}

func (s *Session) InvoiceID() string {
	return s.invoiceID
}

// Start loads the invoice and, while it is payable, begins quote
// refresh and status reconciliation. A load failure is fatal for the
// session.
func (s *Session) Start() error {
	invoice, err := s.gateway.GetInvoice(s.invoiceID)
	if err != nil {
		if gerr, ok := err.(gateway.Error); ok && gerr.StatusCode == 404 {
			err = errors.New(errors.InvoiceNotFoundError, gerr)
		}
		s.setLastError(err)
		return err
	}
	s.setInvoice(invoice)
	log.Infof("[Session] %s loaded invoice (%s %s, status %s)", s.invoiceID, invoice.Amount, invoice.SettlementAsset, invoice.Status)
	if s.wallet != nil && s.wallet.Connected() {
		go s.CheckBalance()
	}
	switch invoice.Status {
	case gateway.InvoiceCreated:
		s.startQuoteRefresh()
		s.startReconciler()
	case gateway.InvoiceExpired:
		s.setLastError(errors.New(errors.InvoiceExpiredError, fmt.Errorf("invoice %s is expired", s.invoiceID)))
	}
	return nil
}

// Close tears the session down: all timers stop, no further network
// calls are made. A submission already in flight is not interrupted.
func (s *Session) Close() {
	s.cancel()
	s.mu.Lock()
	for _, ch := range s.observers {
		close(ch)
	}
	s.observers = make(map[int]chan Event)
	s.mu.Unlock()
	log.Debugf("[Session] %s closed", s.invoiceID)
}

// Done exposes the session lifetime for observers.
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers an observer for snapshot changes. The returned
// function unsubscribes. Slow observers lose events rather than block
// the session.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextObserver
	s.nextObserver++
	ch := make(chan Event, 16)
	s.observers[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.observers[id]; ok {
			delete(s.observers, id)
			close(c)
		}
	}
}

func (s *Session) publishLocked(e Event) {
	e.InvoiceID = s.invoiceID
	for _, ch := range s.observers {
		select {
		case ch <- e:
		default:
		}
	}
}

// setInvoice replaces the cached invoice. A status regression is a
// fatal inconsistency: it is surfaced, never silently resolved.
func (s *Session) setInvoice(invoice gateway.Invoice) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.Invoice != nil && invoice.Status.Rank() < s.snap.Invoice.Status.Rank() {
		log.Errorf("[Session] %s invoice status regressed %s -> %s", s.invoiceID, s.snap.Invoice.Status, invoice.Status)
		s.snap.LastError = errors.New(errors.InconsistentStateError,
			errInvoiceRegression(s.snap.Invoice.Status, invoice.Status))
		return false
	}
	changed := s.snap.Invoice == nil || s.snap.Invoice.Status != invoice.Status
	inv := invoice
	s.snap.Invoice = &inv
	if changed {
		s.publishLocked(Event{Type: EventInvoiceStatus, Invoice: &inv})
	}
	return changed
}

// setPaymentStatus applies a workflow transition. The first terminal
// write wins; later contradicting writes are ignored.
func (s *Session) setPaymentStatus(status PaymentStatus) bool {
	s.mu.Lock()
	if s.snap.PaymentStatus == status {
		s.mu.Unlock()
		return false
	}
	if s.snap.PaymentStatus.Terminal() {
		log.Warnf("[Session] %s ignoring payment status %s, already %s", s.invoiceID, status, s.snap.PaymentStatus)
		s.mu.Unlock()
		return false
	}
	log.Debugf("[Session] %s payment status %s -> %s", s.invoiceID, s.snap.PaymentStatus, status)
	s.snap.PaymentStatus = status
	snap := s.snap
	s.publishLocked(Event{Type: EventPaymentStatus, Status: status})
	s.mu.Unlock()
	if s.persist != nil {
		s.persist(snap)
	}
	return true
}

func (s *Session) setTxID(txId string) {
	s.mu.Lock()
	s.snap.TxID = txId
	s.mu.Unlock()
}

func (s *Session) setLastError(err error) {
	s.mu.Lock()
	s.snap.LastError = err
	s.mu.Unlock()
}

// fail marks the session unusable and stops all background work. Used
// for invoice-not-found and invoice-expired, where the only recovery is
// a new invoice.
func (s *Session) fail(err error) {
	s.setLastError(err)
	s.cancel()
	log.Errorf("[Session] %s failed: %s", s.invoiceID, err.Error())
}

// restore replays a persisted terminal state into a fresh session, so
// reopening a paid checkout shows the outcome instead of a pay button.
func (s *Session) restore(status PaymentStatus, txId string) {
	if !status.Terminal() {
		return
	}
	s.mu.Lock()
	s.snap.PaymentStatus = status
	s.snap.TxID = txId
	s.mu.Unlock()
}

type errInvoiceRegressionT struct {
	from, to gateway.InvoiceStatus
}

func (e errInvoiceRegressionT) Error() string {
	return "invoice status regressed from " + string(e.from) + " to " + string(e.to)
}

func errInvoiceRegression(from, to gateway.InvoiceStatus) error {
	return errInvoiceRegressionT{from: from, to: to}
}
