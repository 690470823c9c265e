package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/boltproto/BoltCheckout/internal"
	"github.com/boltproto/BoltCheckout/internal/gateway"
	"github.com/boltproto/BoltCheckout/internal/history"
	"github.com/gorilla/mux"
	uuid "github.com/satori/go.uuid"
)

// MerchantService proxies invoice management to the gateway and serves
// the local payment history.
type MerchantService struct {
	Gateway *gateway.Client
	History *history.Log
}

// CreateInvoice creates an invoice on the gateway. A missing merchant
// order id gets a generated one so the transfer memo is never empty.
func (s *MerchantService) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var request CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if request.Amount == "" {
		RespondError(w, http.StatusBadRequest, "amount is required")
		return
	}
	if request.SettlementAsset == "" {
		request.SettlementAsset = internal.Configuration.Gateway.Asset
	}
	if request.MerchantOrderID == "" {
		request.MerchantOrderID = uuid.NewV4().String()
	}
	invoice, err := s.Gateway.CreateInvoice(internal.Configuration.Gateway.Address, gateway.CreateInvoiceRequest{
		Amount:          request.Amount,
		SettlementAsset: request.SettlementAsset,
		MerchantOrderID: request.MerchantOrderID,
	})
	if err != nil {
		respondGatewayError(w, err)
		return
	}
	if invoice.CheckoutURL == "" && internal.Configuration.Checkout.PublicHost != "" {
		invoice.CheckoutURL = fmt.Sprintf("%s/checkout/%s", internal.Configuration.Checkout.PublicHost, invoice.ID)
	}
	WriteResponse(w, invoice)
}

// ListInvoices lists gateway invoices with the filters passed through.
func (s *MerchantService) ListInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := gateway.ListInvoicesParams{
		Status:          gateway.InvoiceStatus(q.Get("status")),
		MerchantOrderID: q.Get("merchant_order_id"),
		FromDate:        q.Get("from_date"),
		ToDate:          q.Get("to_date"),
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			RespondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		params.Limit = n
	}
	if offset := q.Get("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil {
			RespondError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		params.Offset = n
	}
	invoices, err := s.Gateway.ListInvoices(internal.Configuration.Gateway.Address, params)
	if err != nil {
		respondGatewayError(w, err)
		return
	}
	WriteResponse(w, invoices)
}

// InvoicePayments returns the locally recorded payment attempts for an
// invoice.
func (s *MerchantService) InvoicePayments(w http.ResponseWriter, r *http.Request) {
	invoiceId := mux.Vars(r)["invoice_id"]
	payments, err := s.History.ByInvoice(invoiceId)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteResponse(w, payments)
}

// RecentPayments returns the latest recorded payment attempts.
func (s *MerchantService) RecentPayments(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			RespondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	payments, err := s.History.Recent(limit)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteResponse(w, payments)
}

func respondGatewayError(w http.ResponseWriter, err error) {
	if gerr, ok := err.(gateway.Error); ok {
		RespondError(w, gerr.StatusCode, gerr.Message)
		return
	}
	RespondError(w, http.StatusBadGateway, err.Error())
}
