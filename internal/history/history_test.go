package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndQuery(t *testing.T) {
	l := Open(filepath.Join(t.TempDir(), "payments.db"))

	require.NoError(t, l.Record(&Payment{
		InvoiceID:  "inv1",
		PaymentID:  "pay_1",
		Status:     "completed",
		Asset:      "sBTC",
		AmountSats: 153846,
		TxID:       "0xbolt1",
	}))
	require.NoError(t, l.Record(&Payment{
		InvoiceID: "inv2",
		Status:    "rejected",
		Asset:     "sBTC",
	}))

	payments, err := l.ByInvoice("inv1")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "completed", payments[0].Status)
	assert.Equal(t, int64(153846), payments[0].AmountSats)

	recent, err := l.Recent(10)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}
