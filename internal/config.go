package internal

import (
	"net/url"
	"os"
	"strings"

	"github.com/jinzhu/configor"
	log "github.com/sirupsen/logrus"
)

var Configuration = struct {
	Gateway  GatewayConfiguration  `yaml:"gateway"`
	Wallet   WalletConfiguration   `yaml:"wallet"`
	Checkout CheckoutConfiguration `yaml:"checkout"`
	Database DatabaseConfiguration `yaml:"database"`
	Api      ApiConfiguration      `yaml:"api"`
}{}

type SocksConfiguration struct {
	Host     string `yaml:"host"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type GatewayConfiguration struct {
	Url string `yaml:"url" default:"https://api.boltproto.org/api/v1"`
	// Address is the gateway's sBTC principal, the recipient of every
	// checkout transfer.
	Address string `yaml:"address"`
	Asset   string `yaml:"asset" default:"sBTC"`
}

type WalletConfiguration struct {
	Url        string              `yaml:"url" default:"https://boltproto.org/api/v1"`
	Address    string              `yaml:"address"`
	Network    string              `yaml:"network" default:"testnet"`
	SocksProxy *SocksConfiguration `yaml:"socks_proxy,omitempty"`
}

type CheckoutConfiguration struct {
	QuoteRefreshSeconds int64  `yaml:"quote_refresh_seconds" default:"20"`
	PollIntervalSeconds int64  `yaml:"poll_interval_seconds" default:"3"`
	PollTimeoutSeconds  int64  `yaml:"poll_timeout_seconds" default:"300"`
	PublicHost          string `yaml:"public_host" default:"https://pay.boltproto.org"`
	PublicHostUrl       *url.URL `yaml:"-"`
}

type DatabaseConfiguration struct {
	DbPath     string `yaml:"db_path" default:"data/payments.db"`
	BuntDbPath string `yaml:"buntdb_path" default:"data/checkout.db"`
}

type ApiConfiguration struct {
	Host string `yaml:"host" default:"0.0.0.0:8080"`
}

func init() {
	var files []string
	if _, err := os.Stat("config.yaml"); err == nil {
		files = append(files, "config.yaml")
	}
	err := configor.New(&configor.Config{ENVPrefix: "CHECKOUT"}).Load(&Configuration, files...)
	if err != nil {
		panic(err)
	}
	hostUrl, err := url.Parse(Configuration.Checkout.PublicHost)
	if err != nil {
		panic(err)
	}
	Configuration.Checkout.PublicHostUrl = hostUrl
	checkGatewayConfiguration()
}

func checkGatewayConfiguration() {
	if Configuration.Gateway.Address == "" {
		log.Warnf("Please configure the gateway recipient address otherwise payments can't be submitted")
	}
	if !strings.HasPrefix(Configuration.Gateway.Url, "http") {
		panic("please configure a valid gateway url")
	}
}
