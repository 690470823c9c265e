package gateway

import (
	"fmt"
	"strconv"
	"time"
)

type InvoiceStatus string

const (
	InvoiceCreated InvoiceStatus = "created"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceExpired InvoiceStatus = "expired"
	InvoiceSettled InvoiceStatus = "settled"
)

// Terminal reports whether the invoice can no longer accept payments.
func (s InvoiceStatus) Terminal() bool {
	return s == InvoicePaid || s == InvoiceExpired || s == InvoiceSettled
}

// Rank orders invoice statuses along their forward-only lifecycle.
// created < paid/expired < settled. A fetched status with a lower rank
// than the one already observed means the gateway regressed.
func (s InvoiceStatus) Rank() int {
	switch s {
	case InvoiceCreated:
		return 0
	case InvoicePaid, InvoiceExpired:
		return 1
	case InvoiceSettled:
		return 2
	}
	return -1
}

type Invoice struct {
	ID              string        `json:"invoice_id"`
	Status          InvoiceStatus `json:"status"`
	Amount          string        `json:"amount"`
	SettlementAsset string        `json:"settlement_asset"`
	MerchantOrderID string        `json:"merchant_order_id"`
	CreatedAt       time.Time     `json:"created_at"`
	CheckoutURL     string        `json:"checkout_url"`
}

type Quote struct {
	FromAsset   string    `json:"from_asset"`
	ToAsset     string    `json:"to_asset"`
	FromAmount  string    `json:"from_amount"`
	ToAmount    string    `json:"to_amount"`
	UnitPrice   string    `json:"unit_price"`
	Spread      string    `json:"spread"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// FromAmountSats parses the sats amount the payer must send.
func (q Quote) FromAmountSats() (int64, error) {
	return strconv.ParseInt(q.FromAmount, 10, 64)
}

const (
	PaymentAccepted  = "accepted"
	PaymentRejected  = "rejected"
	PaymentConfirmed = "confirmed"
)

type PaymentResult struct {
	PaymentID  string    `json:"payment_id"`
	InvoiceID  string    `json:"invoice_id"`
	Status     string    `json:"status"`
	Asset      string    `json:"asset"`
	Amount     string    `json:"amount"`
	ReceivedAt time.Time `json:"received_at"`
	TxID       string    `json:"tx_id,omitempty"`
}

type CreateInvoiceRequest struct {
	Amount          string `json:"amount"`
	SettlementAsset string `json:"settlement_asset"`
	MerchantOrderID string `json:"merchant_order_id"`
}

type SubmitPaymentRequest struct {
	SerializedTransaction string `json:"serialized_transaction"`
	Asset                 string `json:"asset"`
	Amount                string `json:"amount"`
}

type ListInvoicesResponse struct {
	Items  []Invoice `json:"items"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

type ListInvoicesParams struct {
	Status          InvoiceStatus
	MerchantOrderID string
	FromDate        string
	ToDate          string
	Limit           int
	Offset          int
}

// Error is the gateway's ErrorResponse body plus the HTTP status it
// arrived with.
type Error struct {
	Reason     string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e Error) Error() string {
	return fmt.Sprintf("gateway: %s (%d): %s", e.Reason, e.StatusCode, e.Message)
}
