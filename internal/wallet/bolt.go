package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"sync"

	"github.com/boltproto/BoltCheckout/internal/network"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// BoltWallet talks to the Bolt protocol wallet API. Funds live in the
// protocol contract, so balance reads and transfers go through the
// wallet server rather than a local key store.
type BoltWallet struct {
	url     string
	address string
	network string
	client  *http.Client

	mu        sync.Mutex
	connected bool
}

func NewBoltWallet(url, address, netName string) *BoltWallet {
	client, err := network.GetClient()
	if err != nil {
		log.Errorf("[Wallet] could not create http client: %s", err.Error())
		client = http.DefaultClient
	}
	return &BoltWallet{
		url:     strings.TrimSuffix(url, "/"),
		address: address,
		network: netName,
		client:  client,
	}
}

// Connect verifies the wallet is reachable for the configured address.
func (w *BoltWallet) Connect(ctx context.Context) error {
	if w.address == "" {
		return fmt.Errorf("no wallet address configured")
	}
	if _, err := w.Balance(ctx); err != nil {
		return err
	}
	w.mu.Lock()
	w.connected = true
	w.mu.Unlock()
	log.Infof("[Wallet] connected %s on %s", w.address, w.network)
	return nil
}

func (w *BoltWallet) Disconnect() {
	w.mu.Lock()
	w.connected = false
	w.mu.Unlock()
}

func (w *BoltWallet) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connected
}

func (w *BoltWallet) Address() (string, error) {
	if !w.Connected() {
		return "", fmt.Errorf("wallet not connected")
	}
	return w.address, nil
}

func (w *BoltWallet) Network() string {
	return w.network
}

// Balance reads the wallet-data record of the address from the protocol
// contract endpoint.
func (w *BoltWallet) Balance(ctx context.Context) (int64, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/wallet/%s", w.url, w.address), nil)
	if err != nil {
		return 0, err
	}
	response, err := w.client.Do(request)
	if err != nil {
		return 0, err
	}
	defer response.Body.Close()
	if response.StatusCode >= 300 {
		return 0, fmt.Errorf("wallet balance request failed: %s", response.Status)
	}
	bodyBytes, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return 0, err
	}
	balance := gjson.GetBytes(bodyBytes, "balance")
	if !balance.Exists() {
		return 0, fmt.Errorf("no balance in wallet response")
	}
	return balance.Int(), nil
}

// SignTransfer submits a sponsored transfer-bolt-to-bolt call and
// returns the serialized transaction the gateway expects. A context
// cancellation maps to ErrCancelled: the user closed the prompt.
func (w *BoltWallet) SignTransfer(ctx context.Context, amountSats int64, recipient string, memo string) (string, error) {
	if !w.Connected() {
		return "", fmt.Errorf("wallet not connected")
	}
	payload, err := json.Marshal(struct {
		Sender    string `json:"sender"`
		Recipient string `json:"recipient"`
		Amount    int64  `json:"amount"`
		Memo      string `json:"memo,omitempty"`
	}{w.address, recipient, amountSats, memo})
	if err != nil {
		return "", err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url+"/sponsor/transfer", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")
	response, err := w.client.Do(request)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return "", ErrCancelled
		}
		return "", err
	}
	defer response.Body.Close()
	if response.StatusCode >= 300 {
		return "", fmt.Errorf("sponsored transfer failed: %s", response.Status)
	}
	bodyBytes, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return "", err
	}
	serialized := gjson.GetBytes(bodyBytes, "serialized_transaction")
	if !serialized.Exists() {
		return "", fmt.Errorf("no serialized transaction in wallet response")
	}
	log.Debugf("[Wallet] signed transfer of %d sats to %s", amountSats, recipient)
	return serialized.String(), nil
}
