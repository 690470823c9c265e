package checkout

import (
	"context"

	"github.com/boltproto/BoltCheckout/internal/errors"
	"github.com/boltproto/BoltCheckout/internal/gateway"
	"github.com/boltproto/BoltCheckout/internal/runtime"
	log "github.com/sirupsen/logrus"
)

// startReconciler polls the invoice status until it turns terminal or
// the poll deadline passes. It is the authority for payments that
// settle out of band or whose submission response was lost.
func (s *Session) startReconciler() {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.PollTimeout)
	poller := runtime.NewPoller(ctx, "reconcile:"+s.invoiceID,
		runtime.WithPollDuration(s.cfg.PollInterval))
	poller.Do(func() bool {
		done := s.reconcileOnce()
		if done {
			// release the deadline timer right away
			cancel()
		}
		return done
	},
		func() {
			log.Debugf("[Reconcile] %s stopped", s.invoiceID)
		},
		func() {
			log.Warnf("[Reconcile] %s gave up after %s", s.invoiceID, s.cfg.PollTimeout)
			s.setLastError(errors.New(errors.PollTimeoutError, context.DeadlineExceeded))
		})
}

// reconcileOnce fetches the invoice once. Returns true when polling can
// stop.
func (s *Session) reconcileOnce() bool {
	invoice, err := s.gateway.GetInvoice(s.invoiceID)
	if err != nil {
		if gerr, ok := err.(gateway.Error); ok && gerr.StatusCode == 404 {
			s.fail(errors.New(errors.InvoiceNotFoundError, gerr))
			return true
		}
		// transient, try again next tick
		log.Debugf("[Reconcile] %s fetch failed: %s", s.invoiceID, err.Error())
		return false
	}
	if !s.setInvoice(invoice) && !invoice.Status.Terminal() {
		return false
	}
	switch invoice.Status {
	case gateway.InvoicePaid, gateway.InvoiceSettled:
		// settled regardless of who paid. the first terminal payment
		// status wins, a racing 409 handler is not overwritten
		if s.setPaymentStatus(StatusCompleted) {
			log.Infof("[Reconcile] %s invoice %s, payment completed", s.invoiceID, invoice.Status)
			s.notify.Success(s.invoiceID, "payment_confirmed")
		}
		return true
	case gateway.InvoiceExpired:
		s.notify.Error(s.invoiceID, "invoice_expired")
		s.fail(errors.New(errors.InvoiceExpiredError, gateway.Error{Reason: "invoice_expired", StatusCode: 410}))
		return true
	}
	return false
}
