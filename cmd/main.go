package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xmhha/walletflow/internal/browser"
	"github.com/0xmhha/walletflow/internal/client"
	"github.com/0xmhha/walletflow/internal/config"
	"github.com/0xmhha/walletflow/internal/metrics"
	"github.com/0xmhha/walletflow/internal/scenario"
	"github.com/0xmhha/walletflow/internal/walletdriver"
	"github.com/0xmhha/walletflow/internal/watcher"
)

var (
	version = "dev"
	cfg     = &config.Config{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "walletflow",
		Short:   "Browser wallet transfer validation tool",
		Long:    `Walletflow drives a browser with a wallet extension through a dApp transfer workflow and verifies the transaction on chain.`,
		Version: version,
		RunE:    run,
	}

	registerFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func registerFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	// Required flags. Secret and URLs fall back to environment
	// variables so CI can keep key material out of the command line.
	flags.StringVar(&cfg.DappURL, "dapp-url", os.Getenv("WALLETFLOW_DAPP_URL"), "Test dApp base URL (required)")
	flags.StringVar(&cfg.RPCURL, "rpc-url", os.Getenv("WALLETFLOW_RPC_URL"), "RPC endpoint URL of the network under test (required)")
	flags.StringVar(&cfg.Secret, "secret", os.Getenv("WALLETFLOW_SECRET"), "Account private key (hex) or BIP39 mnemonic")

	// Browser
	flags.StringVar(&cfg.ExtensionDir, "extension-dir", "", "Unpacked wallet extension directory (required)")
	flags.BoolVar(&cfg.Headless, "headless", true, "Run the browser headless")

	// Network under test
	flags.Uint64Var(&cfg.ChainID, "chain-id", 0, "Expected chain ID (required)")
	flags.StringVar(&cfg.NetworkName, "network-name", "", "Network display name for wallet registration")
	flags.StringVar(&cfg.Symbol, "symbol", "", "Native currency symbol")
	flags.StringVar(&cfg.NetworkFile, "network-file", "", "YAML file describing the network (overrides network flags)")

	// Transfer parameters
	flags.StringVar(&cfg.Amount, "amount", "", "Transfer amount in wei as a hex quantity (default 0x1)")
	flags.StringVar(&cfg.TxType, "tx-type", "", "Transaction type as a hex quantity (default 0x2, EIP-1559)")

	// Verification
	flags.BoolVar(&cfg.VerifyRPC, "verify-rpc", false, "Cross-check the receipt directly against the RPC endpoint")

	// Timeouts
	flags.DurationVar(&cfg.ConfirmTimeout, "confirm-timeout", 0, "Wallet confirmation and hash capture window (default 2m)")
	flags.DurationVar(&cfg.ReceiptDeadline, "receipt-deadline", 0, "Total budget for the receipt to render (default 1m)")
	flags.DurationVar(&cfg.PollInterval, "poll-interval", 0, "Initial receipt poll pace (default 500ms)")

	// Output
	flags.StringVar(&cfg.Output, "output", "", "Output JSON file path for the run summary")
	flags.BoolVar(&cfg.Verbose, "verbose", false, "Enable verbose logging")

	// Prometheus metrics
	flags.BoolVar(&cfg.MetricsEnabled, "metrics", false, "Enable Prometheus metrics endpoint")
	flags.IntVar(&cfg.MetricsPort, "metrics-port", 9090, "Port for Prometheus metrics endpoint")

	_ = cmd.MarkFlagRequired("extension-dir")
}

func run(cmd *cobra.Command, args []string) error {
	if cfg.NetworkFile != "" {
		if err := cfg.LoadNetworkFile(); err != nil {
			return fmt.Errorf("failed to load network file: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := newLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	m := metrics.New("walletflow")
	if cfg.MetricsEnabled {
		if err := m.Start(ctx, cfg.MetricsPort); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			if err := m.Stop(stopCtx); err != nil {
				log.Warn("metrics server shutdown failed", zap.Error(err))
			}
		}()
	}

	// Preflight: the RPC endpoint must serve the expected chain before
	// any browser work starts.
	rpc, err := client.New(cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}
	defer rpc.Close()
	if err := rpc.VerifyChainID(ctx, cfg.ChainID); err != nil {
		return err
	}

	newSession := func(ctx context.Context) (browser.Page, error) {
		return browser.NewSession(ctx, browser.Options{
			ExtensionDir: cfg.ExtensionDir,
			Headless:     cfg.Headless,
		}, log)
	}
	newDriver := func(page browser.Page) walletdriver.Driver {
		return walletdriver.NewExtensionDriver(page.(*browser.Session), walletdriver.DefaultSelectors(), log)
	}

	s, err := scenario.New(cfg, newSession, newDriver, metrics.NewReporter(m, log))
	if err != nil {
		return fmt.Errorf("failed to create scenario: %w", err)
	}
	s.WithLogger(log).WithMetrics(m)

	watcherCfg := watcher.DefaultConfig()
	watcherCfg.CaptureTimeout = cfg.ConfirmTimeout
	watcherCfg.ReceiptDeadline = cfg.ReceiptDeadline
	watcherCfg.PollInterval = cfg.PollInterval
	watcherCfg.ShowProgress = true
	s.WithWatcherConfig(watcherCfg)

	if cfg.VerifyRPC {
		s.WithRPCVerifier(rpc)
	}

	result, runErr := s.Run(ctx)
	result.PrintSummary()

	if cfg.Output != "" {
		if err := exportSummary(result, cfg.Output); err != nil {
			log.Warn("failed to export summary", zap.Error(err))
		}
	}

	if runErr != nil {
		return fmt.Errorf("workflow failed: %w", runErr)
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if verbose {
		zapCfg = zap.NewDevelopmentConfig()
	}
	return zapCfg.Build()
}

func exportSummary(result *scenario.Result, path string) error {
	data, err := json.MarshalIndent(result.Summary(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
