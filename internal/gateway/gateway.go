package gateway

import (
	"strconv"
	"strings"
	"time"

	"github.com/imroc/req"
)

// NewClient returns a new payment gateway api client.
func NewClient(url string) *Client {
	return &Client{
		url: strings.TrimSuffix(url, "/"),
		header: req.Header{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
	}
}

type Client struct {
	url    string
	header req.Header
}

// apiError decodes the gateway's error body and attaches the HTTP status.
func apiError(resp *req.Resp) error {
	var apiErr Error
	resp.ToJSON(&apiErr)
	apiErr.StatusCode = resp.Response().StatusCode
	if apiErr.Message == "" {
		apiErr.Message = resp.Response().Status
	}
	return apiErr
}

// CreateInvoice creates a new invoice for a merchant.
func (c *Client) CreateInvoice(walletAddress string, request CreateInvoiceRequest) (invoice Invoice, err error) {
	resp, err := req.Post(c.url+"/merchants/"+walletAddress+"/invoices", c.header, req.BodyJSON(&request))
	if err != nil {
		return
	}

	if resp.Response().StatusCode >= 300 {
		err = apiError(resp)
		return
	}

	err = resp.ToJSON(&invoice)
	return
}

// ListInvoices returns a page of the merchant's invoices.
func (c *Client) ListInvoices(walletAddress string, params ListInvoicesParams) (list ListInvoicesResponse, err error) {
	query := req.QueryParam{}
	if params.Status != "" {
		query["status"] = string(params.Status)
	}
	if params.MerchantOrderID != "" {
		query["merchant_order_id"] = params.MerchantOrderID
	}
	if params.FromDate != "" {
		query["from_date"] = params.FromDate
	}
	if params.ToDate != "" {
		query["to_date"] = params.ToDate
	}
	if params.Limit > 0 {
		query["limit"] = strconv.Itoa(params.Limit)
	}
	if params.Offset > 0 {
		query["offset"] = strconv.Itoa(params.Offset)
	}
	resp, err := req.Get(c.url+"/merchants/"+walletAddress+"/invoices", c.header, query)
	if err != nil {
		return
	}

	if resp.Response().StatusCode >= 300 {
		err = apiError(resp)
		return
	}

	err = resp.ToJSON(&list)
	return
}

// GetInvoice fetches a single invoice.
func (c *Client) GetInvoice(invoiceId string) (invoice Invoice, err error) {
	resp, err := req.Get(c.url+"/invoices/"+invoiceId, c.header)
	if err != nil {
		return
	}

	if resp.Response().StatusCode >= 300 {
		err = apiError(resp)
		return
	}

	err = resp.ToJSON(&invoice)
	return
}

// GetQuote fetches a conversion quote. toAmount is the settlement-asset
// amount the payer wants covered; the returned from_amount is the sats
// the payer must send.
func (c *Client) GetQuote(from, to, toAmount string) (quote Quote, err error) {
	resp, err := req.Get(c.url+"/quotes", c.header, req.QueryParam{
		"from":      from,
		"to":        to,
		"to_amount": toAmount,
	})
	if err != nil {
		return
	}

	if resp.Response().StatusCode >= 300 {
		err = apiError(resp)
		return
	}

	err = resp.ToJSON(&quote)
	return
}

// SubmitPayment submits a signed transfer for an invoice. The gateway
// may hold the submission until on-chain confirmation, so this call
// gets its own long timeout.
func (c *Client) SubmitPayment(invoiceId string, request SubmitPaymentRequest) (result PaymentResult, err error) {
	r := req.New()
	r.SetTimeout(time.Second * 90)
	resp, err := r.Post(c.url+"/invoices/"+invoiceId+"/payments/submit", c.header, req.BodyJSON(&request))
	if err != nil {
		return
	}

	if resp.Response().StatusCode >= 300 {
		err = apiError(resp)
		return
	}

	err = resp.ToJSON(&result)
	return
}
