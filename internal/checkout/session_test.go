package checkout

import (
	"testing"
	"time"

	"github.com/boltproto/BoltCheckout/internal/errors"
	"github.com/boltproto/BoltCheckout/internal/gateway"
	"github.com/boltproto/BoltCheckout/internal/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, gw *mockGateway, w *mockWallet) *Session {
	t.Helper()
	var adapter wallet.Adapter
	if w != nil {
		adapter = w
	}
	s := NewSession("inv-1", gw, adapter, Config{
		QuoteRefreshInterval: time.Hour,
		PollInterval:         time.Hour,
		GatewayAddress:       "bc1qgateway",
	})
	t.Cleanup(s.Close)
	s.setInvoice(gateway.Invoice{
		ID:              "inv-1",
		Status:          gateway.InvoiceCreated,
		Amount:          "10.00",
		SettlementAsset: "sBTC",
		MerchantOrderID: "order-42",
	})
	return s
}

func withQuote(s *Session, fromAmount string) {
	s.mu.Lock()
	s.quoteSeq++
	seq := s.quoteSeq
	s.mu.Unlock()
	s.applyQuote(seq, gateway.Quote{FromAmount: fromAmount, ToAmount: "10.00", ToAsset: "sBTC"})
}

func TestQuoteStaleCompletionDiscarded(t *testing.T) {
	gw := &mockGateway{}
	release := make(chan struct{})
	entered := make(chan struct{})
	first := true
	gw.getQuoteFn = func(from, to, toAmount string) (gateway.Quote, error) {
		gw.mu.Lock()
		slow := first
		first = false
		gw.mu.Unlock()
		if slow {
			close(entered)
			<-release
			return gateway.Quote{FromAmount: "1000"}, nil
		}
		return gateway.Quote{FromAmount: "2000"}, nil
	}
	s := newTestSession(t, gw, nil)

	done := make(chan struct{})
	go func() {
		s.refreshQuoteOnce()
		close(done)
	}()
	<-entered

	// a second refresh dispatched later completes first
	s.refreshQuoteOnce()
	require.NotNil(t, s.Snapshot().Quote)
	assert.Equal(t, "2000", s.Snapshot().Quote.FromAmount)

	close(release)
	<-done

	// the slow fetch is stale, the newer quote stays
	assert.Equal(t, "2000", s.Snapshot().Quote.FromAmount)
}

func TestQuoteRefreshFailureKeepsPreviousQuote(t *testing.T) {
	gw := &mockGateway{}
	s := newTestSession(t, gw, nil)
	withQuote(s, "1500")

	gw.getQuoteFn = func(from, to, toAmount string) (gateway.Quote, error) {
		return gateway.Quote{}, gateway.Error{Reason: "upstream", StatusCode: 502}
	}
	s.refreshQuoteOnce()

	snap := s.Snapshot()
	require.NotNil(t, snap.Quote)
	assert.Equal(t, "1500", snap.Quote.FromAmount)
	require.Error(t, snap.LastError)
	cerr, ok := snap.LastError.(errors.CheckoutError)
	require.True(t, ok)
	assert.Equal(t, errors.NoQuoteError, cerr.Code)
}

func TestSufficientBoundary(t *testing.T) {
	quote := gateway.Quote{FromAmount: "1000"}

	snap := Snapshot{Quote: &quote, Balance: 1000, BalanceKnown: true}
	assert.True(t, snap.Sufficient())

	snap.Balance = 999
	assert.False(t, snap.Sufficient())
	assert.True(t, snap.Insufficient())

	// no known balance: neither sufficient nor confirmed insufficient
	snap.Balance = 5000
	snap.BalanceKnown = false
	assert.False(t, snap.Sufficient())
	assert.False(t, snap.Insufficient())

	snap.BalanceKnown = true
	snap.Quote = nil
	assert.False(t, snap.Sufficient())
	assert.False(t, snap.Insufficient())
}

func TestBalanceFetchFailureIsZero(t *testing.T) {
	w := &mockWallet{connected: true, balance: 5000, balanceErr: gateway.Error{Reason: "timeout", StatusCode: 504}}
	s := newTestSession(t, &mockGateway{}, w)
	withQuote(s, "1000")

	assert.Equal(t, int64(0), s.CheckBalance())
	snap := s.Snapshot()
	assert.True(t, snap.BalanceKnown)
	assert.Equal(t, int64(0), snap.Balance)
	assert.False(t, snap.Sufficient())
}

func TestInvoiceRegressionSurfaced(t *testing.T) {
	s := newTestSession(t, &mockGateway{}, nil)
	require.True(t, s.setInvoice(gateway.Invoice{ID: "inv-1", Status: gateway.InvoiceSettled}))

	applied := s.setInvoice(gateway.Invoice{ID: "inv-1", Status: gateway.InvoiceCreated})
	assert.False(t, applied)

	snap := s.Snapshot()
	assert.Equal(t, gateway.InvoiceSettled, snap.Invoice.Status)
	require.Error(t, snap.LastError)
	cerr, ok := snap.LastError.(errors.CheckoutError)
	require.True(t, ok)
	assert.Equal(t, errors.InconsistentStateError, cerr.Code)
}

func TestFirstTerminalStatusWins(t *testing.T) {
	s := newTestSession(t, &mockGateway{}, nil)

	require.True(t, s.setPaymentStatus(StatusAlreadyPaid))
	assert.False(t, s.setPaymentStatus(StatusCompleted))
	assert.Equal(t, StatusAlreadyPaid, s.Snapshot().PaymentStatus)
}

func TestSubscribePublish(t *testing.T) {
	s := newTestSession(t, &mockGateway{}, nil)
	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	withQuote(s, "1000")

	select {
	case e := <-events:
		assert.Equal(t, EventQuote, e.Type)
		assert.Equal(t, "inv-1", e.InvoiceID)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestCloseStopsBackgroundWork(t *testing.T) {
	gw := &mockGateway{}
	s := NewSession("inv-1", gw, nil, Config{
		QuoteRefreshInterval: 30 * time.Millisecond,
		PollInterval:         30 * time.Millisecond,
	})
	require.NoError(t, s.Start())

	// both timers are running
	require.Eventually(t, func() bool {
		return gw.quoteCalls() > 1 && gw.invoiceCalls() > 1
	}, time.Second, 10*time.Millisecond)

	s.Close()
	// let a tick already in flight drain
	time.Sleep(100 * time.Millisecond)
	quotes, invoices := gw.quoteCalls(), gw.invoiceCalls()

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, quotes, gw.quoteCalls())
	assert.Equal(t, invoices, gw.invoiceCalls())
}

func TestQuoteRefreshStopsAfterTerminalStatus(t *testing.T) {
	gw := &mockGateway{}
	gw.getInvoiceFn = func(invoiceId string) (gateway.Invoice, error) {
		return gateway.Invoice{ID: invoiceId, Status: gateway.InvoiceCreated}, nil
	}
	s := NewSession("inv-1", gw, nil, Config{
		QuoteRefreshInterval: 30 * time.Millisecond,
		PollInterval:         time.Hour,
	})
	t.Cleanup(s.Close)
	require.NoError(t, s.Start())

	require.Eventually(t, func() bool {
		return gw.quoteCalls() > 1
	}, time.Second, 10*time.Millisecond)

	s.setPaymentStatus(StatusCompleted)
	time.Sleep(100 * time.Millisecond)
	quotes := gw.quoteCalls()

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, quotes, gw.quoteCalls())
}

func TestQuoteRefreshKeepsUnrelatedError(t *testing.T) {
	s := newTestSession(t, &mockGateway{}, nil)
	balanceErr := errors.New(errors.GetBalanceError, gateway.Error{Reason: "timeout", StatusCode: 504})
	s.setLastError(balanceErr)

	withQuote(s, "1000")
	assert.Equal(t, balanceErr, s.Snapshot().LastError)

	// a quote error is resolved by the next successful quote
	s.setLastError(errors.FromCode(errors.NoQuoteError))
	withQuote(s, "1100")
	assert.Nil(t, s.Snapshot().LastError)
}

func TestStartUnknownInvoice(t *testing.T) {
	gw := &mockGateway{}
	gw.getInvoiceFn = func(invoiceId string) (gateway.Invoice, error) {
		return gateway.Invoice{}, gateway.Error{Reason: "invoice_not_found", StatusCode: 404}
	}
	s := NewSession("missing", gw, nil, Config{})
	defer s.Close()

	err := s.Start()
	require.Error(t, err)
	cerr, ok := err.(errors.CheckoutError)
	require.True(t, ok)
	assert.Equal(t, errors.InvoiceNotFoundError, cerr.Code)
}
