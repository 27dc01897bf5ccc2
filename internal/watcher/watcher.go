// Package watcher bridges the dApp's fire-and-forget submission signal
// (a console-logged transaction hash) with wallet confirmation and
// on-chain receipt verification.
package watcher

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/0xmhha/walletflow/internal/browser"
	"github.com/0xmhha/walletflow/internal/receipt"
	"github.com/0xmhha/walletflow/internal/util/progress"
	"github.com/0xmhha/walletflow/internal/walletdriver"
)

// Config controls the watcher's capture and polling windows.
type Config struct {
	// CaptureTimeout bounds the wait for the console-logged hash. It is
	// the watcher's own deadline, independent of any outer one.
	CaptureTimeout time.Duration

	// ReceiptDeadline bounds the total wait for the diagnostic page to
	// render the receipt.
	ReceiptDeadline time.Duration

	// PollInterval is the initial receipt poll pace; it doubles on each
	// miss up to MaxPollInterval.
	PollInterval    time.Duration
	MaxPollInterval time.Duration

	// ShowProgress enables the CLI spinner during polling.
	ShowProgress bool
}

// DefaultConfig returns default watcher configuration.
func DefaultConfig() *Config {
	return &Config{
		CaptureTimeout:  2 * time.Minute,
		ReceiptDeadline: time.Minute,
		PollInterval:    500 * time.Millisecond,
		MaxPollInterval: 5 * time.Second,
	}
}

// RPCVerifier cross-checks a receipt directly against the node.
type RPCVerifier interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error)
}

// Watcher coordinates transaction submission, hash capture, and receipt
// verification over the shared browser session.
type Watcher struct {
	page   browser.Page
	driver walletdriver.Driver
	cfg    *Config
	log    *zap.Logger
	verify RPCVerifier

	txHash string
}

// New creates a watcher over the shared page and wallet driver.
func New(page browser.Page, driver walletdriver.Driver, cfg *Config, log *zap.Logger) *Watcher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{page: page, driver: driver, cfg: cfg, log: log}
}

// WithRPCVerifier enables the direct-RPC receipt cross-check.
func (w *Watcher) WithRPCVerifier(v RPCVerifier) *Watcher {
	w.verify = v
	return w
}

// TxHash returns the captured transaction hash, empty until capture.
func (w *Watcher) TxHash() string {
	return w.txHash
}

// Confirm submits the prepared transfer and sees it through to a parsed
// receipt. The console listener is attached before the submit click:
// the dApp logs the hash as its only signal of submission, and a late
// listener misses it.
func (w *Watcher) Confirm(ctx context.Context, dappURL, submitSel string) (*receipt.Receipt, error) {
	capture := w.page.WatchConsole(w.cfg.CaptureTimeout)
	defer capture.Cancel()

	if err := w.page.Click(ctx, submitSel); err != nil {
		return nil, fmt.Errorf("submit transfer: %w", err)
	}

	// Wallet confirmation and hash capture run together: the dApp logs
	// the hash while the wallet operation is still waiting for mining.
	var hash string
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := w.driver.ConfirmAndWait(egCtx); err != nil {
			return fmt.Errorf("wallet confirmation: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		captured, err := capture.Wait(egCtx)
		if err != nil {
			return fmt.Errorf("transaction hash capture: %w", err)
		}
		hash = captured
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	w.txHash = hash
	w.log.Info("transaction hash captured", zap.String("tx_hash", hash))

	rcpt, err := w.queryReceipt(ctx, dappURL, hash)
	if err != nil {
		return nil, err
	}

	if w.verify != nil {
		if err := w.crossCheck(ctx, hash, rcpt); err != nil {
			return nil, err
		}
	}

	return rcpt, nil
}

// ReceiptURL builds the dApp's diagnostic query for a receipt by hash.
func ReceiptURL(dappURL, hash string) string {
	params := url.QueryEscape(fmt.Sprintf(`["%s"]`, hash))
	return fmt.Sprintf("%s/request.html?method=eth_getTransactionReceipt&params=%s",
		strings.TrimRight(dappURL, "/"), params)
}

// queryReceipt navigates to the diagnostic view and polls until the
// receipt renders or the deadline expires. Poll pace backs off on each
// miss; the RPC response can lag the navigation by several blocks.
func (w *Watcher) queryReceipt(ctx context.Context, dappURL, hash string) (*receipt.Receipt, error) {
	if err := w.page.Navigate(ctx, ReceiptURL(dappURL, hash)); err != nil {
		return nil, fmt.Errorf("open diagnostic query: %w", err)
	}

	pollCtx, cancel := context.WithTimeout(ctx, w.cfg.ReceiptDeadline)
	defer cancel()

	interval := w.cfg.PollInterval
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	var bar *progressbar.ProgressBar
	if w.cfg.ShowProgress {
		bar = progress.Spinner("waiting for receipt")
		defer progress.Finish(bar)
	}

	lastErr := receipt.ErrNoResponse
	for {
		if err := limiter.Wait(pollCtx); err != nil {
			return nil, fmt.Errorf("receipt not rendered within %s: %w", w.cfg.ReceiptDeadline, lastErr)
		}
		progress.Add(bar, 1)

		text, err := w.page.Text(pollCtx, "body")
		if err != nil {
			lastErr = err
			continue
		}

		rcpt, err := receipt.Parse(text)
		if err == nil {
			return rcpt, nil
		}
		lastErr = err

		if interval < w.cfg.MaxPollInterval {
			interval *= 2
			if interval > w.cfg.MaxPollInterval {
				interval = w.cfg.MaxPollInterval
			}
			limiter.SetLimit(rate.Every(interval))
		}
	}
}

// crossCheck asks the node for the same receipt and compares verdicts.
func (w *Watcher) crossCheck(ctx context.Context, hash string, rcpt *receipt.Receipt) error {
	onchain, err := w.verify.TransactionReceipt(ctx, common.HexToHash(hash))
	if err != nil {
		return fmt.Errorf("rpc receipt cross-check: %w", err)
	}

	nodeOK := onchain.Status == ethtypes.ReceiptStatusSuccessful
	if nodeOK != rcpt.Succeeded() {
		return fmt.Errorf("receipt status mismatch: dapp reports %s, node reports %d", rcpt.Status, onchain.Status)
	}
	return nil
}
