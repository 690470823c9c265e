package errors

import "fmt"

type CheckoutErrorType int

const (
	UnknownError CheckoutErrorType = iota
	InvalidStateError
	InconsistentStateError
	SessionClosedError
)

const (
	InvoiceNotFoundError CheckoutErrorType = 2000 + iota
	InvoiceExpiredError
	NoQuoteError
	QuoteUnusableError
	WalletNotConnectedError
	GetBalanceError
	BalanceTooLowError
	SignTransferError
)

const (
	PaymentInFlightError CheckoutErrorType = 3000 + iota
	AlreadyPaidError
	SubmitPaymentError
	PollTimeoutError
)

var errMap = map[CheckoutErrorType]CheckoutError{
	UnknownError:            unknown,
	InvalidStateError:       invalidState,
	InconsistentStateError:  inconsistentState,
	SessionClosedError:      sessionClosed,
	InvoiceNotFoundError:    invoiceNotFound,
	InvoiceExpiredError:     invoiceExpired,
	NoQuoteError:            noQuote,
	QuoteUnusableError:      quoteUnusable,
	WalletNotConnectedError: walletNotConnected,
	GetBalanceError:         getBalance,
	BalanceTooLowError:      balanceTooLow,
	SignTransferError:       signTransfer,
	PaymentInFlightError:    paymentInFlight,
	AlreadyPaidError:        alreadyPaid,
	SubmitPaymentError:      submitPayment,
	PollTimeoutError:        pollTimeout,
}

var (
	unknown            = CheckoutError{Err: fmt.Errorf("unknown error")}
	invalidState       = CheckoutError{Err: fmt.Errorf("operation not allowed in current state")}
	inconsistentState  = CheckoutError{Err: fmt.Errorf("invoice status regressed")}
	sessionClosed      = CheckoutError{Err: fmt.Errorf("checkout session closed")}
	invoiceNotFound    = CheckoutError{Err: fmt.Errorf("invoice not found")}
	invoiceExpired     = CheckoutError{Err: fmt.Errorf("invoice expired")}
	noQuote            = CheckoutError{Err: fmt.Errorf("no quote available")}
	quoteUnusable      = CheckoutError{Err: fmt.Errorf("quote amount unusable")}
	walletNotConnected = CheckoutError{Err: fmt.Errorf("wallet not connected")}
	getBalance         = CheckoutError{Err: fmt.Errorf("could not get balance")}
	balanceTooLow      = CheckoutError{Err: fmt.Errorf("balance too low")}
	signTransfer       = CheckoutError{Err: fmt.Errorf("could not sign transfer")}
	paymentInFlight    = CheckoutError{Err: fmt.Errorf("payment already in flight")}
	alreadyPaid        = CheckoutError{Err: fmt.Errorf("invoice already paid")}
	submitPayment      = CheckoutError{Err: fmt.Errorf("could not submit payment")}
	pollTimeout        = CheckoutError{Err: fmt.Errorf("polling timeout exceeded")}
)

// FromCode returns the predefined error for a code.
func FromCode(code CheckoutErrorType) CheckoutError {
	if e, ok := errMap[code]; ok {
		e.Message = e.Err.Error()
		e.Code = code
		return e
	}
	e := unknown
	e.Message = e.Err.Error()
	return e
}
