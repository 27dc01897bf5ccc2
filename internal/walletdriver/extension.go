package walletdriver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/0xmhha/walletflow/internal/browser"
	"github.com/0xmhha/walletflow/pkg/types"
)

// Selectors names the extension popup controls the driver clicks
// through. Defaults match MetaMask-style notification popups; other
// extensions can override them.
type Selectors struct {
	// Network approval popup
	ApproveNetwork string
	SwitchNetwork  string

	// Connection approval popup
	NextAccount   string
	ConnectDapp   string

	// Transaction confirmation popup
	ConfirmTx string

	// Network form fields (add-network flow)
	NetworkName   string
	NetworkRPCURL string
	NetworkChain  string
	NetworkSymbol string
	SaveNetwork   string
}

// DefaultSelectors returns the MetaMask-flavored selector table.
func DefaultSelectors() Selectors {
	return Selectors{
		ApproveNetwork: `[data-testid="confirmation-submit-button"]`,
		SwitchNetwork:  `[data-testid="confirmation-submit-button"]`,
		NextAccount:    `[data-testid="page-container-footer-next"]`,
		ConnectDapp:    `[data-testid="page-container-footer-next"]`,
		ConfirmTx:      `[data-testid="page-container-footer-next"]`,
		NetworkName:    `[data-testid="network-form-network-name"]`,
		NetworkRPCURL:  `[data-testid="network-form-rpc-url"]`,
		NetworkChain:   `[data-testid="network-form-chain-id"]`,
		NetworkSymbol:  `[data-testid="network-form-ticker-input"]`,
		SaveNetwork:    `.networks-tab__add-network-form-footer .btn-primary`,
	}
}

// ExtensionDriver drives the wallet extension popup windows through the
// shared browser session.
type ExtensionDriver struct {
	session      *browser.Session
	sel          Selectors
	settingsURL  string
	popupTimeout time.Duration
	miningWait   time.Duration
	log          *zap.Logger
}

var _ Driver = (*ExtensionDriver)(nil)

// NewExtensionDriver creates a driver bound to the session's browser.
func NewExtensionDriver(session *browser.Session, sel Selectors, log *zap.Logger) *ExtensionDriver {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExtensionDriver{
		session:      session,
		sel:          sel,
		popupTimeout: 30 * time.Second,
		miningWait:   2 * time.Minute,
		log:          log,
	}
}

// WithSettingsURL sets the extension's add-network settings page, e.g.
// chrome-extension://<id>/home.html#settings/networks/add-network.
// When set, AddNetwork fills the form there instead of waiting for a
// dApp-initiated approval popup.
func (d *ExtensionDriver) WithSettingsURL(url string) *ExtensionDriver {
	d.settingsURL = url
	return d
}

// AddNetwork registers the network on the wallet: through the settings
// form when a settings URL is configured, otherwise by approving the
// dApp-initiated add-network prompt and the follow-up switch prompt.
func (d *ExtensionDriver) AddNetwork(ctx context.Context, spec types.NetworkSpec) error {
	d.log.Debug("registering network",
		zap.String("network", spec.Name),
		zap.Uint64("chain_id", spec.ChainID))

	if d.settingsURL != "" {
		return d.addNetworkViaForm(ctx, spec)
	}

	if err := d.clickInPopup(ctx, d.sel.ApproveNetwork); err != nil {
		return fmt.Errorf("approve network %q: %w", spec.Name, err)
	}
	if err := d.clickInPopup(ctx, d.sel.SwitchNetwork); err != nil {
		return fmt.Errorf("switch to network %q: %w", spec.Name, err)
	}
	return nil
}

// addNetworkViaForm fills the extension's add-network settings form in
// a dedicated tab, leaving the dApp tab untouched.
func (d *ExtensionDriver) addNetworkViaForm(ctx context.Context, spec types.NetworkSpec) error {
	tabCtx, cancel := chromedp.NewContext(d.session.Context())
	defer cancel()

	runCtx := tabCtx
	if deadline, ok := ctx.Deadline(); ok {
		var runCancel context.CancelFunc
		runCtx, runCancel = context.WithDeadline(tabCtx, deadline)
		defer runCancel()
	}

	err := chromedp.Run(runCtx,
		chromedp.Navigate(d.settingsURL),
		chromedp.WaitVisible(d.sel.NetworkName, chromedp.ByQuery),
		chromedp.SetValue(d.sel.NetworkName, spec.Name, chromedp.ByQuery),
		chromedp.SetValue(d.sel.NetworkRPCURL, spec.RPCURL, chromedp.ByQuery),
		chromedp.SetValue(d.sel.NetworkChain, spec.ChainIDHex(), chromedp.ByQuery),
		chromedp.SetValue(d.sel.NetworkSymbol, spec.Symbol, chromedp.ByQuery),
		chromedp.Click(d.sel.SaveNetwork, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("register network %q via settings form: %w", spec.Name, err)
	}
	return nil
}

// AcceptAccess approves the pending connection request.
func (d *ExtensionDriver) AcceptAccess(ctx context.Context) error {
	popupCtx, cancel, err := d.awaitPopup(ctx)
	if err != nil {
		return fmt.Errorf("accept access: %w", err)
	}
	defer cancel()

	// Two-step flow: pick the account, then grant the connection.
	if err := d.click(popupCtx, ctx, d.sel.NextAccount); err != nil {
		return fmt.Errorf("select account: %w", err)
	}
	if err := d.click(popupCtx, ctx, d.sel.ConnectDapp); err != nil {
		return fmt.Errorf("grant connection: %w", err)
	}
	return nil
}

// ConfirmAndWait confirms the pending transaction popup, then waits for
// the popup target to go away, which the extension does once the
// transaction has been mined.
func (d *ExtensionDriver) ConfirmAndWait(ctx context.Context) error {
	popupCtx, cancel, err := d.awaitPopup(ctx)
	if err != nil {
		return fmt.Errorf("confirm transaction: %w", err)
	}
	defer cancel()

	if err := d.click(popupCtx, ctx, d.sel.ConfirmTx); err != nil {
		return fmt.Errorf("confirm transaction: %w", err)
	}

	waitCtx, waitCancel := context.WithTimeout(ctx, d.miningWait)
	defer waitCancel()

	// The popup closes when the wallet has seen the receipt; its context
	// is done at that point.
	select {
	case <-popupCtx.Done():
		return nil
	case <-waitCtx.Done():
		if waitCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("transaction not mined within %s", d.miningWait)
		}
		return waitCtx.Err()
	}
}

// clickInPopup waits for the next extension popup and clicks a single
// control in it.
func (d *ExtensionDriver) clickInPopup(ctx context.Context, sel string) error {
	popupCtx, cancel, err := d.awaitPopup(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	return d.click(popupCtx, ctx, sel)
}

// awaitPopup waits for the extension to open a notification window and
// returns a chromedp context attached to it.
func (d *ExtensionDriver) awaitPopup(ctx context.Context) (context.Context, context.CancelFunc, error) {
	browserCtx := d.session.Context()

	ch := chromedp.WaitNewTarget(browserCtx, func(info *target.Info) bool {
		return info.Type == "page" && strings.HasPrefix(info.URL, "chrome-extension://")
	})

	timer := time.NewTimer(d.popupTimeout)
	defer timer.Stop()

	select {
	case id := <-ch:
		popupCtx, cancel := chromedp.NewContext(browserCtx, chromedp.WithTargetID(id))
		return popupCtx, cancel, nil
	case <-timer.C:
		return nil, nil, fmt.Errorf("wallet popup did not appear within %s", d.popupTimeout)
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

// click clicks a visible control in the popup, bounded by the caller's
// context.
func (d *ExtensionDriver) click(popupCtx, callerCtx context.Context, sel string) error {
	runCtx := popupCtx
	if deadline, ok := callerCtx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(popupCtx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.Click(sel, chromedp.ByQuery),
	)
}
