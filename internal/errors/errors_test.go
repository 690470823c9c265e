package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromCodeKnown(t *testing.T) {
	err := FromCode(AlreadyPaidError)
	assert.Equal(t, AlreadyPaidError, err.Code)
	assert.Equal(t, "invoice already paid", err.Message)
	assert.Contains(t, err.Error(), "invoice already paid")
}

func TestFromCodeUnknown(t *testing.T) {
	err := FromCode(CheckoutErrorType(999999))
	assert.Equal(t, UnknownError, err.Code)
	assert.Equal(t, "unknown error", err.Message)
}

func TestUnwrap(t *testing.T) {
	inner := fmt.Errorf("boom")
	err := New(SubmitPaymentError, inner)
	assert.Equal(t, inner, err.Unwrap())
}
