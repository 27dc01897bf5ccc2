package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/0xmhha/walletflow/internal/browser"
	"github.com/0xmhha/walletflow/internal/client"
	"github.com/0xmhha/walletflow/internal/config"
	"github.com/0xmhha/walletflow/internal/metrics"
	"github.com/0xmhha/walletflow/internal/scenario"
	"github.com/0xmhha/walletflow/internal/wallet"
	"github.com/0xmhha/walletflow/internal/walletdriver"
)

const defaultRPCURL = "http://localhost:8545"

func rpcURL() string {
	if url := os.Getenv("WALLETFLOW_RPC_URL"); url != "" {
		return url
	}
	return defaultRPCURL
}

// skipIfNoRPC skips the test if no RPC endpoint is responding.
func skipIfNoRPC(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cli, err := client.New(rpcURL())
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to RPC at %s: %v", rpcURL(), err)
	}
	defer cli.Close()

	if _, err := cli.ChainID(ctx); err != nil {
		t.Skipf("Skipping integration test: RPC not responding at %s: %v", rpcURL(), err)
	}
}

// skipIfNoSecret skips the test if no account secret is provided.
func skipIfNoSecret(t *testing.T) {
	t.Helper()
	if os.Getenv("WALLETFLOW_SECRET") == "" {
		t.Skip("Skipping integration test: WALLETFLOW_SECRET environment variable not set")
	}
}

// skipIfNoBrowserEnv skips the test unless a dApp and wallet extension
// are available.
func skipIfNoBrowserEnv(t *testing.T) {
	t.Helper()
	if os.Getenv("WALLETFLOW_DAPP_URL") == "" {
		t.Skip("Skipping integration test: WALLETFLOW_DAPP_URL environment variable not set")
	}
	if os.Getenv("WALLETFLOW_EXTENSION_DIR") == "" {
		t.Skip("Skipping integration test: WALLETFLOW_EXTENSION_DIR environment variable not set")
	}
}

func getTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		RPCURL:       rpcURL(),
		DappURL:      os.Getenv("WALLETFLOW_DAPP_URL"),
		ExtensionDir: os.Getenv("WALLETFLOW_EXTENSION_DIR"),
		Secret:       os.Getenv("WALLETFLOW_SECRET"),
		Headless:     true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cli, err := client.New(cfg.RPCURL)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer cli.Close()

	chainID, err := cli.ChainID(ctx)
	if err != nil {
		t.Fatalf("Failed to get chain ID: %v", err)
	}
	cfg.ChainID = chainID.Uint64()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Invalid test configuration: %v", err)
	}
	return cfg
}

// TestClientConnection tests basic RPC connectivity
func TestClientConnection(t *testing.T) {
	skipIfNoRPC(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cli, err := client.New(rpcURL())
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer cli.Close()

	chainID, err := cli.ChainID(ctx)
	if err != nil {
		t.Fatalf("Failed to get chain ID: %v", err)
	}
	t.Logf("Chain ID: %s", chainID.String())

	blockNum, err := cli.BlockNumber(ctx)
	if err != nil {
		t.Fatalf("Failed to get block number: %v", err)
	}
	t.Logf("Block Number: %d", blockNum)

	if err := cli.VerifyChainID(ctx, chainID.Uint64()); err != nil {
		t.Errorf("VerifyChainID with the reported chain id failed: %v", err)
	}
}

// TestAccountDerivation tests account derivation from the configured secret
func TestAccountDerivation(t *testing.T) {
	skipIfNoSecret(t)

	w, err := wallet.New(os.Getenv("WALLETFLOW_SECRET"))
	if err != nil {
		t.Fatalf("Failed to derive account: %v", err)
	}

	t.Logf("Account: %s", w.AddressHex())
}

// TestBrowserSession tests that a session launches with the extension loaded
func TestBrowserSession(t *testing.T) {
	skipIfNoBrowserEnv(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session, err := browser.NewSession(ctx, browser.Options{
		ExtensionDir: os.Getenv("WALLETFLOW_EXTENSION_DIR"),
		Headless:     true,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to launch browser session: %v", err)
	}
	defer func() { _ = session.Close() }()

	if err := session.Navigate(ctx, os.Getenv("WALLETFLOW_DAPP_URL")); err != nil {
		t.Fatalf("Failed to navigate to dApp: %v", err)
	}

	t.Log("Browser session launched and dApp reachable")
}

// TestFullWorkflow runs the complete transfer workflow end to end
func TestFullWorkflow(t *testing.T) {
	skipIfNoRPC(t)
	skipIfNoSecret(t)
	skipIfNoBrowserEnv(t)

	cfg := getTestConfig(t)
	log := zap.NewNop()

	newSession := func(ctx context.Context) (browser.Page, error) {
		return browser.NewSession(ctx, browser.Options{
			ExtensionDir: cfg.ExtensionDir,
			Headless:     cfg.Headless,
		}, log)
	}
	newDriver := func(page browser.Page) walletdriver.Driver {
		return walletdriver.NewExtensionDriver(page.(*browser.Session), walletdriver.DefaultSelectors(), log)
	}

	m := metrics.New("walletflow_integration")
	s, err := scenario.New(cfg, newSession, newDriver, metrics.NewReporter(m, log))
	if err != nil {
		t.Fatalf("Failed to create scenario: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("Workflow failed: %v", err)
	}

	if !result.Succeeded {
		t.Error("Workflow did not succeed")
	}
	if result.TxHash == "" {
		t.Error("No transaction hash captured")
	}
	t.Logf("Tx Hash: %s", result.TxHash)
	for _, sr := range result.StageResults {
		t.Logf("Stage %s: success=%v duration=%s", sr.Stage, sr.Success, sr.Duration)
	}
}
