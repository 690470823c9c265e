package api

import (
	"encoding/json"
	"net/http"

	"github.com/boltproto/BoltCheckout/internal/checkout"
	"github.com/boltproto/BoltCheckout/internal/errors"
	"github.com/boltproto/BoltCheckout/internal/gateway"
)

type CheckoutResponse struct {
	Invoice       *gateway.Invoice `json:"invoice"`
	Quote         *gateway.Quote   `json:"quote,omitempty"`
	Balance       int64            `json:"balance"`
	BalanceKnown  bool             `json:"balance_known"`
	Sufficient    bool             `json:"sufficient"`
	Insufficient  bool             `json:"insufficient"`
	PaymentStatus string           `json:"payment_status"`
	TxID          string           `json:"tx_id,omitempty"`
	ExplorerURL   string           `json:"explorer_url,omitempty"`
	Error         string           `json:"error,omitempty"`
}

// explorerUrl builds the block explorer link for a settled transaction.
// Non-mainnet networks carry a chain selector.
func explorerUrl(network, txId string) string {
	if txId == "" {
		return ""
	}
	url := "https://explorer.stacks.co/txid/" + txId
	if network != "" && network != "mainnet" {
		url += "?chain=" + network
	}
	return url
}

func checkoutResponse(snap checkout.Snapshot, network string) CheckoutResponse {
	response := CheckoutResponse{
		Invoice:       snap.Invoice,
		Quote:         snap.Quote,
		Balance:       snap.Balance,
		BalanceKnown:  snap.BalanceKnown,
		Sufficient:    snap.Sufficient(),
		Insufficient:  snap.Insufficient(),
		PaymentStatus: string(snap.PaymentStatus),
		TxID:          snap.TxID,
		ExplorerURL:   explorerUrl(network, snap.TxID),
	}
	if snap.LastError != nil {
		response.Error = snap.LastError.Error()
	}
	return response
}

type CreateInvoiceRequest struct {
	Amount          string `json:"amount"`
	SettlementAsset string `json:"settlement_asset,omitempty"`
	MerchantOrderID string `json:"merchant_order_id,omitempty"`
}

type ErrorResponse struct {
	Message string `json:"error"`
}

func RespondError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Message: message})
}

// statusFor maps checkout error codes onto HTTP statuses.
func statusFor(err error) int {
	cerr, ok := err.(errors.CheckoutError)
	if !ok {
		return http.StatusInternalServerError
	}
	switch cerr.Code {
	case errors.InvoiceNotFoundError:
		return http.StatusNotFound
	case errors.AlreadyPaidError, errors.PaymentInFlightError:
		return http.StatusConflict
	case errors.InvoiceExpiredError:
		return http.StatusGone
	case errors.NoQuoteError, errors.QuoteUnusableError,
		errors.WalletNotConnectedError, errors.BalanceTooLowError,
		errors.InvalidStateError:
		return http.StatusBadRequest
	case errors.SessionClosedError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
