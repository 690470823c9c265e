package checkout

import (
	"fmt"
	"strconv"

	"github.com/boltproto/BoltCheckout/internal/errors"
	"github.com/boltproto/BoltCheckout/internal/gateway"
	"github.com/boltproto/BoltCheckout/internal/wallet"
	log "github.com/sirupsen/logrus"
)

// InitiatePayment runs one submission attempt: balance re-verification,
// transfer signing, submission, outcome classification. Only one
// attempt can be in flight per session; the transition to processing
// happens under the session lock.
func (s *Session) InitiatePayment() error {
	s.mu.Lock()
	switch s.snap.PaymentStatus {
	case StatusProcessing:
		s.mu.Unlock()
		return errors.FromCode(errors.PaymentInFlightError)
	case StatusCompleted, StatusAlreadyPaid:
		s.mu.Unlock()
		return errors.FromCode(errors.AlreadyPaidError)
	}
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return errors.New(errors.SessionClosedError, s.ctx.Err())
	}
	if s.snap.Invoice == nil || s.snap.Invoice.Status != gateway.InvoiceCreated {
		s.mu.Unlock()
		return errors.New(errors.InvalidStateError, fmt.Errorf("invoice is not payable"))
	}
	quote := s.snap.Quote
	sats, err := usableQuote(quote)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if s.wallet == nil || !s.wallet.Connected() {
		s.mu.Unlock()
		return errors.FromCode(errors.WalletNotConnectedError)
	}
	if s.snap.BalanceKnown && s.snap.Balance < sats {
		s.mu.Unlock()
		return errors.New(errors.BalanceTooLowError, fmt.Errorf("balance %d sats below quote %d sats", s.snap.Balance, sats))
	}
	s.snap.PaymentStatus = StatusProcessing
	s.publishLocked(Event{Type: EventPaymentStatus, Status: StatusProcessing})
	memo := fmt.Sprintf("BG-MID: %s", s.snap.Invoice.MerchantOrderID)
	s.mu.Unlock()

	// re-verify against a live balance, the cached one may be stale
	balance := s.CheckBalance()
	if balance < sats {
		s.setPaymentStatusForce(StatusIdle)
		err := errors.New(errors.BalanceTooLowError, fmt.Errorf("balance %d sats below quote %d sats", balance, sats))
		s.setLastError(err)
		return err
	}

	log.Infof("[Payment] %s signing transfer of %d sats", s.invoiceID, sats)
	serialized, err := s.wallet.SignTransfer(s.ctx, sats, s.cfg.GatewayAddress, memo)
	if err != nil {
		if err == wallet.ErrCancelled {
			// user declined in the wallet, not a failure
			log.Debugf("[Payment] %s signing cancelled by user", s.invoiceID)
			s.setPaymentStatusForce(StatusIdle)
			return nil
		}
		log.Errorf("[Payment] %s signing failed: %s", s.invoiceID, err.Error())
		s.setPaymentStatusForce(StatusRejected)
		signErr := errors.New(errors.SignTransferError, err)
		s.setLastError(signErr)
		s.RefreshQuote()
		return signErr
	}

	result, err := s.gateway.SubmitPayment(s.invoiceID, gateway.SubmitPaymentRequest{
		SerializedTransaction: serialized,
		Asset:                 "BTC",
		Amount:                strconv.FormatInt(sats, 10),
	})
	if err != nil {
		return s.classifySubmitError(err)
	}
	return s.classifyResult(result, sats)
}

// classifySubmitError maps transport and gateway errors onto the
// payment workflow.
func (s *Session) classifySubmitError(err error) error {
	gerr, ok := err.(gateway.Error)
	if !ok {
		// network failure, outcome unknown. mark rejected and let the
		// reconciler pick it up if the payment actually landed
		log.Errorf("[Payment] %s submission failed: %s", s.invoiceID, err.Error())
		s.setPaymentStatusForce(StatusRejected)
		submitErr := errors.New(errors.SubmitPaymentError, err)
		s.setLastError(submitErr)
		s.RefreshQuote()
		return submitErr
	}
	switch gerr.StatusCode {
	case 409:
		// invoice_already_paid, someone settled it out of band
		log.Infof("[Payment] %s already paid", s.invoiceID)
		s.setPaymentStatus(StatusAlreadyPaid)
		s.record.Record(PaymentRecord{InvoiceID: s.invoiceID, Status: string(StatusAlreadyPaid)})
		s.notify.Info(s.invoiceID, "payment_already_processed")
		return errors.New(errors.AlreadyPaidError, gerr)
	case 404:
		notFound := errors.New(errors.InvoiceNotFoundError, gerr)
		s.fail(notFound)
		return notFound
	case 412:
		// quote expired between signing and submission
		log.Warnf("[Payment] %s rejected, quote no longer valid", s.invoiceID)
		s.setPaymentStatusForce(StatusRejected)
		rejErr := errors.New(errors.SubmitPaymentError, gerr)
		s.setLastError(rejErr)
		s.notify.Warning(s.invoiceID, "payment_rejected")
		s.record.Record(PaymentRecord{InvoiceID: s.invoiceID, Status: string(StatusRejected)})
		s.RefreshQuote()
		return rejErr
	default:
		log.Errorf("[Payment] %s submission failed: %s", s.invoiceID, gerr.Error())
		s.setPaymentStatusForce(StatusRejected)
		submitErr := errors.New(errors.SubmitPaymentError, gerr)
		s.setLastError(submitErr)
		s.RefreshQuote()
		return submitErr
	}
}

// classifyResult handles a 2xx submission response.
func (s *Session) classifyResult(result gateway.PaymentResult, sats int64) error {
	rec := PaymentRecord{
		InvoiceID:  s.invoiceID,
		PaymentID:  result.PaymentID,
		Status:     result.Status,
		Asset:      result.Asset,
		AmountSats: sats,
		TxID:       result.TxID,
	}
	switch result.Status {
	case gateway.PaymentConfirmed:
		log.Infof("[Payment] %s confirmed (tx %s)", s.invoiceID, result.TxID)
		s.setTxID(result.TxID)
		s.setPaymentStatus(StatusCompleted)
		s.record.Record(rec)
		s.notify.Success(s.invoiceID, "payment_confirmed")
		// pick up the settled invoice status for display
		go s.reloadInvoice()
		return nil
	case gateway.PaymentRejected:
		log.Warnf("[Payment] %s rejected by gateway", s.invoiceID)
		s.setPaymentStatusForce(StatusRejected)
		rejErr := errors.New(errors.SubmitPaymentError, fmt.Errorf("payment rejected"))
		s.setLastError(rejErr)
		s.notify.Warning(s.invoiceID, "payment_rejected")
		s.record.Record(rec)
		s.RefreshQuote()
		return rejErr
	case gateway.PaymentAccepted:
		// in flight on the gateway side, the reconciler converges
		log.Infof("[Payment] %s accepted, awaiting settlement", s.invoiceID)
		s.notify.Info(s.invoiceID, "payment_accepted")
		s.record.Record(rec)
		return nil
	default:
		log.Errorf("[Payment] %s unknown result status %q", s.invoiceID, result.Status)
		s.setPaymentStatusForce(StatusRejected)
		unkErr := errors.New(errors.SubmitPaymentError, fmt.Errorf("unknown payment status %q", result.Status))
		s.setLastError(unkErr)
		return unkErr
	}
}

// setPaymentStatusForce transitions out of processing regardless of the
// terminal guard. Only the attempt that owns the processing state calls
// it, and only for non-terminal targets.
func (s *Session) setPaymentStatusForce(status PaymentStatus) {
	s.mu.Lock()
	if s.snap.PaymentStatus.Terminal() {
		s.mu.Unlock()
		return
	}
	if s.snap.PaymentStatus == status {
		s.mu.Unlock()
		return
	}
	log.Debugf("[Session] %s payment status %s -> %s", s.invoiceID, s.snap.PaymentStatus, status)
	s.snap.PaymentStatus = status
	snap := s.snap
	s.publishLocked(Event{Type: EventPaymentStatus, Status: status})
	s.mu.Unlock()
	if s.persist != nil {
		s.persist(snap)
	}
}

// Retry returns a rejected session to idle and refreshes the quote so
// the next attempt runs against a current price.
func (s *Session) Retry() error {
	s.mu.Lock()
	if s.snap.PaymentStatus != StatusRejected {
		status := s.snap.PaymentStatus
		s.mu.Unlock()
		return errors.New(errors.InvalidStateError, fmt.Errorf("cannot retry from status %s", status))
	}
	s.snap.PaymentStatus = StatusIdle
	s.snap.LastError = nil
	s.publishLocked(Event{Type: EventPaymentStatus, Status: StatusIdle})
	s.mu.Unlock()
	s.RefreshQuote()
	return nil
}

func (s *Session) reloadInvoice() {
	invoice, err := s.gateway.GetInvoice(s.invoiceID)
	if err != nil {
		log.Warnf("[Session] %s invoice reload failed: %s", s.invoiceID, err.Error())
		return
	}
	s.setInvoice(invoice)
}
