package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/boltproto/BoltCheckout/internal"
	"github.com/boltproto/BoltCheckout/internal/api"
	"github.com/boltproto/BoltCheckout/internal/checkout"
	"github.com/boltproto/BoltCheckout/internal/gateway"
	"github.com/boltproto/BoltCheckout/internal/history"
	"github.com/boltproto/BoltCheckout/internal/i18n"
	"github.com/boltproto/BoltCheckout/internal/storage"
	"github.com/boltproto/BoltCheckout/internal/wallet"

	_ "net/http/pprof"

	log "github.com/sirupsen/logrus"
)

// setLogger will initialize the log format
func setLogger() {
	log.SetLevel(log.DebugLevel)
	customFormatter := new(log.TextFormatter)
	customFormatter.TimestampFormat = "2006-01-02 15:04:05"
	customFormatter.FullTimestamp = true
	log.SetFormatter(customFormatter)
}

// historyRecorder feeds checkout payment records into the gorm log.
type historyRecorder struct {
	log *history.Log
}

func (h historyRecorder) Record(rec checkout.PaymentRecord) {
	err := h.log.Record(&history.Payment{
		InvoiceID:  rec.InvoiceID,
		PaymentID:  rec.PaymentID,
		Status:     rec.Status,
		Asset:      rec.Asset,
		AmountSats: rec.AmountSats,
		TxID:       rec.TxID,
	})
	if err != nil {
		log.Errorf("[History] could not record payment for %s: %s", rec.InvoiceID, err.Error())
	}
}

func main() {
	// set logger
	setLogger()

	defer withRecovery()
	i18n.RegisterLanguages()

	gatewayClient := gateway.NewClient(internal.Configuration.Gateway.Url)
	boltWallet := wallet.NewBoltWallet(
		internal.Configuration.Wallet.Url,
		internal.Configuration.Wallet.Address,
		internal.Configuration.Wallet.Network,
	)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	if err := boltWallet.Connect(ctx); err != nil {
		log.Warnf("[Main] wallet not reachable at startup: %s", err.Error())
	}
	cancel()

	sessionStore := storage.NewBunt(internal.Configuration.Database.BuntDbPath)
	defer sessionStore.Close()
	paymentLog := history.Open(internal.Configuration.Database.DbPath)

	stream := api.NewEventStream()
	manager := checkout.NewManager(gatewayClient, boltWallet, sessionStore,
		checkout.Config{
			QuoteRefreshInterval: time.Duration(internal.Configuration.Checkout.QuoteRefreshSeconds) * time.Second,
			PollInterval:         time.Duration(internal.Configuration.Checkout.PollIntervalSeconds) * time.Second,
			PollTimeout:          time.Duration(internal.Configuration.Checkout.PollTimeoutSeconds) * time.Second,
			GatewayAddress:       internal.Configuration.Gateway.Address,
			Asset:                internal.Configuration.Gateway.Asset,
		},
		checkout.WithNotifier(api.NewStreamNotifier(stream, "en")),
		checkout.WithRecorder(historyRecorder{log: paymentLog}),
	)
	defer manager.Shutdown()

	server := startApiServer(manager, stream, gatewayClient, paymentLog)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Infof("[Main] shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second*10)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("[Main] server shutdown: %s", err.Error())
	}
}

func startApiServer(manager *checkout.Manager, stream *api.EventStream, gatewayClient *gateway.Client, paymentLog *history.Log) *api.Server {
	s := api.NewServer(internal.Configuration.Api.Host)

	// checkout session routes
	service := api.NewService(manager, stream, internal.Configuration.Wallet.Network)
	s.AppendRoute("/checkout/{invoice_id}", service.GetCheckout, http.MethodGet)
	s.AppendRoute("/checkout/{invoice_id}", service.CloseCheckout, http.MethodDelete)
	s.AppendRoute("/checkout/{invoice_id}/pay", service.Pay, http.MethodPost)
	s.AppendRoute("/checkout/{invoice_id}/retry", service.Retry, http.MethodPost)
	s.AppendRoute("/checkout/{invoice_id}/quote/refresh", service.RefreshQuote, http.MethodPost)
	s.AppendRoute("/checkout/{invoice_id}/balance/refresh", service.RefreshBalance, http.MethodPost)
	s.AppendRoute("/checkout/{invoice_id}/qr", service.CheckoutQR, http.MethodGet)
	s.AppendRoute("/checkout/{invoice_id}/events", stream.Handler, http.MethodGet)

	// merchant routes
	merchant := &api.MerchantService{Gateway: gatewayClient, History: paymentLog}
	s.AppendRoute("/invoices", merchant.CreateInvoice, http.MethodPost)
	s.AppendRoute("/invoices", merchant.ListInvoices, http.MethodGet)
	s.AppendRoute("/invoices/{invoice_id}/payments", merchant.InvoicePayments, http.MethodGet)
	s.AppendRoute("/payments/recent", merchant.RecentPayments, http.MethodGet)

	// internal debug server
	internalServer := api.NewServer("0.0.0.0:6060")
	internalServer.PathPrefix("/debug/pprof/", http.DefaultServeMux)

	return s
}

func withRecovery() {
	if r := recover(); r != nil {
		log.Errorln("Recovered panic: ", r)
		debug.PrintStack()
	}
}
