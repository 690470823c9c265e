package checkout

import (
	"github.com/boltproto/BoltCheckout/internal/errors"
	log "github.com/sirupsen/logrus"
)

// CheckBalance fetches the wallet balance and stores it. A fetch
// failure records a balance of zero: the pay button stays disabled
// rather than let an unverified balance through. Completions apply in
// arrival order; the wallet is the same for every fetch so the latest
// arrival is as good as any.
func (s *Session) CheckBalance() int64 {
	if s.wallet == nil || !s.wallet.Connected() {
		s.setBalance(0, false)
		return 0
	}
	balance, err := s.wallet.Balance(s.ctx)
	if err != nil {
		log.Warnf("[Balance] %s fetch failed: %s", s.invoiceID, err.Error())
		s.setLastError(errors.New(errors.GetBalanceError, err))
		s.setBalance(0, true)
		return 0
	}
	s.setBalance(balance, true)
	return balance
}

func (s *Session) setBalance(balance int64, known bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.snap.Balance != balance || s.snap.BalanceKnown != known
	s.snap.Balance = balance
	s.snap.BalanceKnown = known
	if changed {
		s.publishLocked(Event{Type: EventBalance, Balance: balance})
	}
}

// Sufficient reports whether the known balance covers the current
// quote. An exact match is sufficient.
func (s Snapshot) Sufficient() bool {
	if !s.BalanceKnown || s.Quote == nil {
		return false
	}
	sats, err := s.Quote.FromAmountSats()
	if err != nil {
		return false
	}
	return s.Balance >= sats
}

// Insufficient reports whether a known balance is confirmed below the
// current quote. Distinct from !Sufficient: with no balance or no quote
// yet, neither predicate holds, and no warning should be shown.
func (s Snapshot) Insufficient() bool {
	if !s.BalanceKnown || s.Quote == nil {
		return false
	}
	sats, err := s.Quote.FromAmountSats()
	if err != nil {
		return false
	}
	return s.Balance < sats
}
