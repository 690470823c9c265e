package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quotes", r.URL.Path)
		assert.Equal(t, "BTC", r.URL.Query().Get("from"))
		assert.Equal(t, "USD", r.URL.Query().Get("to"))
		assert.Equal(t, "49.90", r.URL.Query().Get("to_amount"))
		json.NewEncoder(w).Encode(map[string]string{
			"from_asset":  "BTC",
			"to_asset":    "USD",
			"from_amount": "153846",
			"to_amount":   "49.90",
			"unit_price":  "32435.00",
			"spread":      "1.00%",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	quote, err := c.GetQuote("BTC", "USD", "49.90")
	require.NoError(t, err)
	assert.Equal(t, "153846", quote.FromAmount)

	sats, err := quote.FromAmountSats()
	require.NoError(t, err)
	assert.Equal(t, int64(153846), sats)
}

func TestGetInvoice_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "invoice_not_found",
			"message": "Invoice not found",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.GetInvoice("missing")
	require.Error(t, err)

	gerr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, gerr.StatusCode)
	assert.Equal(t, "invoice_not_found", gerr.Reason)
}

func TestSubmitPayment_Rejected412(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/invoices/inv1/payments/submit", r.URL.Path)
		var body SubmitPaymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sBTC", body.Asset)
		w.WriteHeader(http.StatusPreconditionFailed)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "payment_rejected",
			"message": "Quote is stale",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.SubmitPayment("inv1", SubmitPaymentRequest{
		SerializedTransaction: "deadbeef",
		Asset:                 "sBTC",
		Amount:                "153846",
	})
	require.Error(t, err)

	gerr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, http.StatusPreconditionFailed, gerr.StatusCode)
}

func TestSubmitPayment_Confirmed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"payment_id": "pay_1",
			"invoice_id": "inv1",
			"status":     "confirmed",
			"asset":      "sBTC",
			"amount":     "153846",
			"tx_id":      "0xbolt00000001",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	result, err := c.SubmitPayment("inv1", SubmitPaymentRequest{
		SerializedTransaction: "deadbeef",
		Asset:                 "sBTC",
		Amount:                "153846",
	})
	require.NoError(t, err)
	assert.Equal(t, PaymentConfirmed, result.Status)
	assert.Equal(t, "0xbolt00000001", result.TxID)
}

func TestListInvoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "created", r.URL.Query().Get("status"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]string{
				{"invoice_id": "inv1", "status": "created", "amount": "49.90", "settlement_asset": "USD"},
			},
			"total":  1,
			"limit":  10,
			"offset": 0,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	list, err := c.ListInvoices("SP000", ListInvoicesParams{Status: InvoiceCreated, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "inv1", list.Items[0].ID)
}

func TestInvoiceStatusRank(t *testing.T) {
	assert.Less(t, InvoiceCreated.Rank(), InvoicePaid.Rank())
	assert.Less(t, InvoicePaid.Rank(), InvoiceSettled.Rank())
	assert.Equal(t, InvoicePaid.Rank(), InvoiceExpired.Rank())
	assert.False(t, InvoiceCreated.Terminal())
	assert.True(t, InvoicePaid.Terminal())
	assert.True(t, InvoiceSettled.Terminal())
	assert.True(t, InvoiceExpired.Terminal())
}
