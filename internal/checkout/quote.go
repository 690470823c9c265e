package checkout

import (
	"context"
	"fmt"

	"github.com/boltproto/BoltCheckout/internal/errors"
	"github.com/boltproto/BoltCheckout/internal/gateway"
	"github.com/boltproto/BoltCheckout/internal/runtime"
	log "github.com/sirupsen/logrus"
)

// startQuoteRefresh fetches a first quote immediately and then keeps it
// fresh on the configured cadence until the session ends or the invoice
// stops being payable.
func (s *Session) startQuoteRefresh() {
	ctx, cancel := context.WithCancel(s.ctx)
	ticker := runtime.NewIntervalTicker(ctx, "quote:"+s.invoiceID,
		runtime.WithDuration(s.cfg.QuoteRefreshInterval))
	s.mu.Lock()
	s.quoteTicker = ticker
	s.quoteCancel = cancel
	s.mu.Unlock()
	go s.refreshQuoteOnce()
	ticker.Do(s.refreshQuoteOnce)
}

// RefreshQuote fetches a quote immediately and postpones the next
// scheduled refresh by a full interval.
func (s *Session) RefreshQuote() {
	s.mu.Lock()
	ticker := s.quoteTicker
	s.mu.Unlock()
	if ticker != nil {
		ticker.Reset()
	}
	go s.refreshQuoteOnce()
}

// refreshQuoteOnce fetches one quote. Fetches are sequenced at dispatch
// time and applied in completion order: a fetch that started before the
// currently applied one is discarded, so a stale response can never
// overwrite a newer quote. A failed fetch keeps the previous quote on
// display.
func (s *Session) refreshQuoteOnce() {
	s.mu.Lock()
	if s.ctx.Err() != nil || s.snap.Invoice == nil {
		s.mu.Unlock()
		return
	}
	if s.snap.PaymentStatus.Terminal() || s.snap.Invoice.Status != gateway.InvoiceCreated {
		// neither condition can revert, stop the ticker for good
		cancel := s.quoteCancel
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return
	}
	s.quoteSeq++
	seq := s.quoteSeq
	toAmount := s.snap.Invoice.Amount
	toAsset := s.snap.Invoice.SettlementAsset
	s.mu.Unlock()

	quote, err := s.gateway.GetQuote("BTC", toAsset, toAmount)
	if err != nil {
		log.Warnf("[Quote] %s refresh failed: %s", s.invoiceID, err.Error())
		s.setLastError(errors.New(errors.NoQuoteError, err))
		return
	}
	if !s.applyQuote(seq, quote) {
		log.Debugf("[Quote] %s discarded stale quote (seq %d)", s.invoiceID, seq)
		return
	}
	log.Debugf("[Quote] %s refreshed: %s sats for %s %s", s.invoiceID, quote.FromAmount, quote.ToAmount, quote.ToAsset)
	// a new price changes what sufficient means, re-verify the balance
	if s.wallet != nil && s.wallet.Connected() {
		go s.CheckBalance()
	}
}

func (s *Session) applyQuote(seq uint64, quote gateway.Quote) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.quoteApplied {
		return false
	}
	s.quoteApplied = seq
	q := quote
	s.snap.Quote = &q
	// a fresh quote resolves quote errors only, others stay visible
	if cerr, ok := s.snap.LastError.(errors.CheckoutError); ok && cerr.Code == errors.NoQuoteError {
		s.snap.LastError = nil
	}
	s.publishLocked(Event{Type: EventQuote, Quote: &q})
	return true
}

// usableQuote validates the quote a submission is about to rely on.
func usableQuote(quote *gateway.Quote) (int64, error) {
	if quote == nil {
		return 0, errors.FromCode(errors.NoQuoteError)
	}
	sats, err := quote.FromAmountSats()
	if err != nil || sats <= 0 {
		return 0, errors.New(errors.QuoteUnusableError, fmt.Errorf("quote amount %q is not payable", quote.FromAmount))
	}
	return sats, nil
}
