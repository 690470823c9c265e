package wallet

import (
	"context"
	"fmt"
)

// ErrCancelled is returned when the user dismisses the wallet prompt.
// A cancelled interaction is not a failure and must not be reported as
// one.
var ErrCancelled = fmt.Errorf("wallet interaction cancelled by user")

// Adapter is the capability surface the checkout needs from a wallet.
// It is injected into the session so tests can substitute a double.
type Adapter interface {
	Connect(ctx context.Context) error
	Disconnect()
	Connected() bool
	Address() (string, error)
	Network() string
	// Balance returns the spendable sats of the connected wallet.
	Balance(ctx context.Context) (int64, error)
	// SignTransfer builds and signs a transfer of amountSats to the
	// recipient and returns the serialized transaction.
	SignTransfer(ctx context.Context, amountSats int64, recipient string, memo string) (string, error)
}
