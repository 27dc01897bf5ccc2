// Package scenario runs the wallet transfer workflow: an ordered,
// serial list of browser-driven stages sharing one session, with an
// aggregate verdict reported exactly once per run.
package scenario

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/0xmhha/walletflow/internal/browser"
	"github.com/0xmhha/walletflow/internal/config"
	"github.com/0xmhha/walletflow/internal/metrics"
	"github.com/0xmhha/walletflow/internal/wallet"
	"github.com/0xmhha/walletflow/internal/walletdriver"
	"github.com/0xmhha/walletflow/internal/watcher"
)

// fieldWait bounds how long a stage waits for the dApp to populate an
// asynchronously updated field before reading it.
const fieldWait = 10 * time.Second

// SessionFactory creates the shared browser session. It runs inside
// the first stage, so launch failures are stage failures, not setup
// failures.
type SessionFactory func(ctx context.Context) (browser.Page, error)

// DriverFactory binds a wallet driver to the session once it exists.
type DriverFactory func(page browser.Page) walletdriver.Driver

// Scenario orchestrates the workflow stages.
type Scenario struct {
	cfg        *config.Config
	run        *RunConfig
	newSession SessionFactory
	newDriver  DriverFactory
	reporter   *metrics.Reporter
	metrics    *metrics.Metrics
	verifier   watcher.RPCVerifier
	watcherCfg *watcher.Config
	sel        DappSelectors
	log        *zap.Logger

	// Run state. The session is created by the first stage, borrowed by
	// every later stage, and released exactly once by the terminal
	// cleanup. Stages never run concurrently, so no locking is needed.
	page   browser.Page
	driver walletdriver.Driver
	state  outcomeState
	txHash string
}

// outcomeState tracks the run verdict. At most one of a success report
// or an aggregate failure report is emitted per run; failureReported
// guards the terminal backstop against double-reporting.
type outcomeState struct {
	succeeded       bool
	failureReported bool
}

// New creates a scenario, deriving the expected account from the
// configured secret material.
func New(cfg *config.Config, newSession SessionFactory, newDriver DriverFactory, reporter *metrics.Reporter) (*Scenario, error) {
	w, err := wallet.New(cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to derive account: %w", err)
	}
	addr := w.AddressHex()

	watcherCfg := watcher.DefaultConfig()
	watcherCfg.CaptureTimeout = cfg.ConfirmTimeout
	watcherCfg.ReceiptDeadline = cfg.ReceiptDeadline
	watcherCfg.PollInterval = cfg.PollInterval

	return &Scenario{
		cfg: cfg,
		run: &RunConfig{
			DappURL:           strings.TrimRight(cfg.DappURL, "/"),
			Network:           cfg.Network(),
			Amount:            cfg.Amount,
			TxType:            cfg.TxType,
			ExpectedSender:    addr,
			ExpectedRecipient: addr,
		},
		newSession: newSession,
		newDriver:  newDriver,
		reporter:   reporter,
		watcherCfg: watcherCfg,
		sel:        DefaultDappSelectors(),
		log:        zap.NewNop(),
	}, nil
}

// WithLogger sets the logger.
func (s *Scenario) WithLogger(log *zap.Logger) *Scenario {
	s.log = log
	return s
}

// WithMetrics enables stage duration observation.
func (s *Scenario) WithMetrics(m *metrics.Metrics) *Scenario {
	s.metrics = m
	return s
}

// WithSelectors overrides the dApp selectors.
func (s *Scenario) WithSelectors(sel DappSelectors) *Scenario {
	s.sel = sel
	return s
}

// WithWatcherConfig overrides the confirmation watcher configuration.
func (s *Scenario) WithWatcherConfig(cfg *watcher.Config) *Scenario {
	s.watcherCfg = cfg
	return s
}

// WithRPCVerifier enables the direct-RPC receipt cross-check.
func (s *Scenario) WithRPCVerifier(v watcher.RPCVerifier) *Scenario {
	s.verifier = v
	return s
}

// RunConfig returns the resolved run configuration.
func (s *Scenario) RunConfig() *RunConfig {
	return s.run
}

// Run executes the workflow stages in order, short-circuiting on the
// first failure. The returned Result always carries every stage that
// ran; err is the first stage failure.
func (s *Scenario) Run(ctx context.Context) (result *Result, err error) {
	result = NewResult()
	defer s.finish(result)

	s.log.Info("workflow starting",
		zap.String("run_id", result.RunID),
		zap.String("dapp_url", s.run.DappURL),
		zap.String("account", s.run.ExpectedSender),
		zap.Uint64("chain_id", s.run.Network.ChainID))

	stages := []struct {
		stage Stage
		fn    func(context.Context) error
	}{
		{StageOpen, s.openDapp},
		{StageNetwork, s.registerNetwork},
		{StageConnect, s.connectWallet},
		{StageTransfer, s.sendTransfer},
	}

	for _, st := range stages {
		if err := s.runStage(ctx, result, st.stage, st.fn); err != nil {
			return result, err
		}
	}

	return result, nil
}

// runStage executes one stage with timing, instrumentation, and the
// per-stage failure report.
func (s *Scenario) runStage(ctx context.Context, result *Result, stage Stage, fn func(context.Context) error) error {
	s.log.Info("stage starting", zap.Stringer("stage", stage))

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordStageDuration(stage.String(), duration)
	}

	sr := &StageResult{
		Stage:    stage,
		Success:  err == nil,
		Duration: duration,
	}
	result.AddStageResult(sr)

	if err != nil {
		sr.Error = err
		s.state.failureReported = true
		s.reporter.Report(false)
		s.log.Error("stage failed", zap.Stringer("stage", stage), zap.Duration("took", duration), zap.Error(err))
		return fmt.Errorf("stage %s: %w", stage, err)
	}

	s.log.Info("stage completed", zap.Stringer("stage", stage), zap.Duration("took", duration))
	return nil
}

// finish is the terminal cleanup. It runs on every exit path, including
// abnormal ones where an external deadline killed a stage before its
// own failure handling could: if no verdict has been reported by then,
// the run failed and the backstop says so, exactly once. The session is
// always released; its close is idempotent.
func (s *Scenario) finish(result *Result) {
	if !s.state.succeeded && !s.state.failureReported {
		s.state.failureReported = true
		s.reporter.Report(false)
	}

	if s.page != nil {
		if err := s.page.Close(); err != nil {
			s.log.Warn("session close failed", zap.Error(err))
		}
	}

	result.Succeeded = s.state.succeeded
	result.TxHash = s.txHash
	result.Finalize()
}

// Stage 1: open the shared session against the dApp origin.
func (s *Scenario) openDapp(ctx context.Context) error {
	page, err := s.newSession(ctx)
	if err != nil {
		return fmt.Errorf("launch browser session: %w", err)
	}
	s.page = page
	s.driver = s.newDriver(page)

	if err := page.Navigate(ctx, s.run.DappURL); err != nil {
		return fmt.Errorf("open dapp: %w", err)
	}
	return nil
}

// Stage 2: register the network on the wallet and check the dApp sees
// the expected chain.
func (s *Scenario) registerNetwork(ctx context.Context) error {
	if err := s.driver.AddNetwork(ctx, s.run.Network); err != nil {
		return fmt.Errorf("add network: %w", err)
	}

	got, err := s.page.WaitText(ctx, s.sel.ChainIDField, fieldWait)
	if err != nil {
		return fmt.Errorf("read chain id field: %w", err)
	}
	want := s.run.Network.ChainIDHex()
	if !strings.EqualFold(strings.TrimSpace(got), want) {
		return fmt.Errorf("chain id mismatch: dapp shows %q, want %q", strings.TrimSpace(got), want)
	}
	return nil
}

// Stage 3: connect the wallet and check the dApp exposes the expected
// account. Addresses compare case-insensitively; the dApp may render
// checksummed casing.
func (s *Scenario) connectWallet(ctx context.Context) error {
	if err := s.page.Click(ctx, s.sel.ConnectButton); err != nil {
		return fmt.Errorf("request connection: %w", err)
	}
	if err := s.driver.AcceptAccess(ctx); err != nil {
		return fmt.Errorf("approve access: %w", err)
	}

	got, err := s.page.WaitText(ctx, s.sel.AccountField, fieldWait)
	if err != nil {
		return fmt.Errorf("read account field: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(got), s.run.ExpectedSender) {
		return fmt.Errorf("connected account mismatch: dapp shows %q, want %q", strings.TrimSpace(got), s.run.ExpectedSender)
	}
	return nil
}

// Stage 4: fill and submit the transfer, confirm it through the wallet,
// and verify the receipt. The only stage allowed to mark the run
// succeeded.
func (s *Scenario) sendTransfer(ctx context.Context) error {
	if err := s.page.SetValue(ctx, s.sel.RecipientInput, s.run.ExpectedRecipient); err != nil {
		return fmt.Errorf("fill recipient: %w", err)
	}
	if err := s.page.SetValue(ctx, s.sel.AmountInput, s.run.Amount); err != nil {
		return fmt.Errorf("fill amount: %w", err)
	}
	if err := s.page.SelectOption(ctx, s.sel.TxTypeSelect, s.run.TxType); err != nil {
		return fmt.Errorf("select transaction type: %w", err)
	}

	w := watcher.New(s.page, s.driver, s.watcherCfg, s.log)
	if s.verifier != nil {
		w = w.WithRPCVerifier(s.verifier)
	}

	rcpt, err := w.Confirm(ctx, s.run.DappURL, s.sel.SubmitButton)
	s.txHash = w.TxHash()
	if err != nil {
		return err
	}
	if !rcpt.Succeeded() {
		return fmt.Errorf("transaction reverted: receipt status %s", rcpt.Status)
	}

	s.state.succeeded = true
	s.reporter.Report(true)
	return nil
}
