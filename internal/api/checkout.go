package api

import (
	"net/http"

	"github.com/boltproto/BoltCheckout/internal/checkout"
	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Service exposes checkout sessions over HTTP.
type Service struct {
	Manager        *checkout.Manager
	Stream         *EventStream
	Network        string
	refreshLimiter *Limiter
}

func NewService(manager *checkout.Manager, stream *EventStream, network string) *Service {
	return &Service{
		Manager: manager,
		Stream:  stream,
		Network: network,
		// one refresh per 2s with a small burst, per invoice
		refreshLimiter: NewLimiter(rate.Limit(0.5), 3),
	}
}

// GetCheckout opens (or resumes) the session and returns its snapshot.
func (s *Service) GetCheckout(w http.ResponseWriter, r *http.Request) {
	invoiceId := mux.Vars(r)["invoice_id"]
	session, err := s.Manager.Open(invoiceId)
	if err != nil {
		RespondError(w, statusFor(err), err.Error())
		return
	}
	if s.Stream != nil {
		s.Stream.Watch(session)
	}
	WriteResponse(w, checkoutResponse(session.Snapshot(), s.Network))
}

// Pay runs one payment attempt and returns the snapshot after it.
func (s *Service) Pay(w http.ResponseWriter, r *http.Request) {
	invoiceId := mux.Vars(r)["invoice_id"]
	session, err := s.Manager.Get(invoiceId)
	if err != nil {
		RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err := session.InitiatePayment(); err != nil {
		RespondError(w, statusFor(err), err.Error())
		return
	}
	WriteResponse(w, checkoutResponse(session.Snapshot(), s.Network))
}

// Retry returns a rejected checkout to idle.
func (s *Service) Retry(w http.ResponseWriter, r *http.Request) {
	invoiceId := mux.Vars(r)["invoice_id"]
	session, err := s.Manager.Get(invoiceId)
	if err != nil {
		RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err := session.Retry(); err != nil {
		RespondError(w, statusFor(err), err.Error())
		return
	}
	WriteResponse(w, checkoutResponse(session.Snapshot(), s.Network))
}

// RefreshQuote triggers an immediate quote fetch, rate limited per
// invoice.
func (s *Service) RefreshQuote(w http.ResponseWriter, r *http.Request) {
	invoiceId := mux.Vars(r)["invoice_id"]
	if !s.refreshLimiter.Allow("quote:" + invoiceId) {
		RespondError(w, http.StatusTooManyRequests, "too many refresh requests")
		return
	}
	session, err := s.Manager.Get(invoiceId)
	if err != nil {
		RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	session.RefreshQuote()
	WriteResponse(w, checkoutResponse(session.Snapshot(), s.Network))
}

// RefreshBalance re-reads the wallet balance, rate limited per invoice.
func (s *Service) RefreshBalance(w http.ResponseWriter, r *http.Request) {
	invoiceId := mux.Vars(r)["invoice_id"]
	if !s.refreshLimiter.Allow("balance:" + invoiceId) {
		RespondError(w, http.StatusTooManyRequests, "too many refresh requests")
		return
	}
	session, err := s.Manager.Get(invoiceId)
	if err != nil {
		RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	session.CheckBalance()
	WriteResponse(w, checkoutResponse(session.Snapshot(), s.Network))
}

// CloseCheckout tears the session down.
func (s *Service) CloseCheckout(w http.ResponseWriter, r *http.Request) {
	invoiceId := mux.Vars(r)["invoice_id"]
	s.Manager.Close(invoiceId)
	WriteResponse(w, map[string]string{"status": StatusOk})
}

// CheckoutQR renders the checkout link as a QR code.
func (s *Service) CheckoutQR(w http.ResponseWriter, r *http.Request) {
	invoiceId := mux.Vars(r)["invoice_id"]
	session, err := s.Manager.Open(invoiceId)
	if err != nil {
		RespondError(w, statusFor(err), err.Error())
		return
	}
	snap := session.Snapshot()
	content := snap.Invoice.CheckoutURL
	if content == "" {
		content = invoiceId
	}
	qr, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		log.Errorf("[API] could not encode qr for %s: %s", invoiceId, err.Error())
		RespondError(w, http.StatusInternalServerError, "could not encode qr")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(qr)
}
