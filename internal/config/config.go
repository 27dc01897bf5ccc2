package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/0xmhha/walletflow/pkg/types"
)

// Config holds all configuration for a workflow run.
type Config struct {
	// dApp and browser
	DappURL      string
	ExtensionDir string
	Headless     bool

	// Network under test
	RPCURL      string
	ChainID     uint64
	NetworkName string
	Symbol      string
	NetworkFile string

	// Account configuration. Secret is either a 0x-prefixed 64-char hex
	// private key or a BIP-39 mnemonic.
	Secret string

	// Transfer parameters (hex quantities, as the dApp form expects them)
	Amount string
	TxType string

	// Verification
	VerifyRPC bool

	// Timeouts
	ConfirmTimeout  time.Duration // wallet confirmation + hash capture window
	ReceiptDeadline time.Duration // total budget for the diagnostic page to render
	PollInterval    time.Duration // initial receipt poll pace

	// Output
	Output  string
	Verbose bool

	// Prometheus metrics
	MetricsEnabled bool
	MetricsPort    int
}

var (
	httpRegex   = regexp.MustCompile(`^https?://`)
	wsRegex     = regexp.MustCompile(`^wss?://`)
	hexKeyRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	hexQtyRegex = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)
)

// Validate validates the configuration and fills in defaults. It must
// succeed before any browser or network action takes place.
func (c *Config) Validate() error {
	if c.DappURL == "" {
		return errors.New("dapp-url is required")
	}
	if !httpRegex.MatchString(c.DappURL) {
		return errors.New("dapp-url must be a valid HTTP URL")
	}

	if c.RPCURL == "" {
		return errors.New("rpc-url is required")
	}
	if !httpRegex.MatchString(c.RPCURL) && !wsRegex.MatchString(c.RPCURL) {
		return errors.New("rpc-url must be a valid HTTP or WebSocket URL")
	}

	if strings.TrimSpace(c.Secret) == "" {
		return errors.New("secret is required (private key or mnemonic)")
	}
	if strings.HasPrefix(c.Secret, "0x") && !hexKeyRegex.MatchString(c.Secret) {
		return errors.New("secret with 0x prefix must be a valid 64-character hex private key")
	}

	if c.ChainID == 0 {
		return errors.New("chain-id must be greater than 0")
	}

	if c.Amount == "" {
		c.Amount = "0x1"
	}
	if !hexQtyRegex.MatchString(c.Amount) {
		return errors.New("amount must be a 0x-prefixed hex quantity")
	}
	if c.TxType == "" {
		c.TxType = "0x2"
	}
	if !hexQtyRegex.MatchString(c.TxType) {
		return errors.New("tx-type must be a 0x-prefixed hex quantity")
	}

	if c.NetworkName == "" {
		c.NetworkName = "Localhost"
	}
	if c.Symbol == "" {
		c.Symbol = "ETH"
	}

	if c.ConfirmTimeout == 0 {
		c.ConfirmTimeout = 2 * time.Minute
	}
	if c.ReceiptDeadline == 0 {
		c.ReceiptDeadline = time.Minute
	}
	if c.PollInterval == 0 {
		c.PollInterval = 500 * time.Millisecond
	}

	if c.MetricsEnabled && c.MetricsPort == 0 {
		c.MetricsPort = 9090
	}

	return nil
}

// SecretIsPrivateKey reports whether the secret material has the direct
// key shape rather than the mnemonic shape.
func (c *Config) SecretIsPrivateKey() bool {
	return hexKeyRegex.MatchString(strings.TrimSpace(c.Secret))
}

// Network returns the network spec to register on the wallet.
func (c *Config) Network() types.NetworkSpec {
	return types.NetworkSpec{
		Name:    c.NetworkName,
		RPCURL:  c.RPCURL,
		ChainID: c.ChainID,
		Symbol:  c.Symbol,
	}
}

// LoadNetworkFile overlays the network spec from a YAML file. Fields set
// in the file win over the corresponding flags.
func (c *Config) LoadNetworkFile() error {
	if c.NetworkFile == "" {
		return nil
	}

	data, err := os.ReadFile(c.NetworkFile)
	if err != nil {
		return fmt.Errorf("failed to read network file: %w", err)
	}

	var spec types.NetworkSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("failed to parse network file: %w", err)
	}

	if spec.Name != "" {
		c.NetworkName = spec.Name
	}
	if spec.RPCURL != "" {
		c.RPCURL = spec.RPCURL
	}
	if spec.ChainID != 0 {
		c.ChainID = spec.ChainID
	}
	if spec.Symbol != "" {
		c.Symbol = spec.Symbol
	}

	return nil
}
