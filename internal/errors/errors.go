package errors

import "encoding/json"

func New(code CheckoutErrorType, err error) CheckoutError {
	return CheckoutError{Err: err, Message: err.Error(), Code: code}
}

type CheckoutError struct {
	Message string `json:"message"`
	Err     error
	Code    CheckoutErrorType `json:"code"`
}

func (e CheckoutError) Error() string {
	j, err := json.Marshal(&e)
	if err != nil {
		return e.Message
	}
	return string(j)
}

func (e CheckoutError) Unwrap() error {
	return e.Err
}
