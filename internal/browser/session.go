package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Page is the surface stages need from the shared browser session.
// Exactly one Page exists per run; the scenario owns its creation and
// final release, stages borrow it.
type Page interface {
	Navigate(ctx context.Context, url string) error
	SetValue(ctx context.Context, sel, value string) error
	SelectOption(ctx context.Context, sel, value string) error
	Click(ctx context.Context, sel string) error
	Text(ctx context.Context, sel string) (string, error)
	WaitText(ctx context.Context, sel string, timeout time.Duration) (string, error)
	WatchConsole(timeout time.Duration) *ConsoleCapture
	Close() error
}

// Options configures the browser launch.
type Options struct {
	// ExtensionDir is the unpacked wallet extension to load.
	ExtensionDir string
	// Headless runs the browser without a display. Extensions require
	// Chrome's new headless mode, which chromedp uses by default.
	Headless bool
}

// Session is the chromedp-backed Page shared by every stage of a run.
type Session struct {
	ctx         context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	closeOnce   sync.Once
	log         *zap.Logger
}

var _ Page = (*Session)(nil)

// NewSession launches a browser with the wallet extension loaded and an
// initial blank tab attached.
func NewSession(parent context.Context, opts Options, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.ExtensionDir != "" {
		allocOpts = append(allocOpts,
			chromedp.Flag("disable-extensions-except", opts.ExtensionDir),
			chromedp.Flag("load-extension", opts.ExtensionDir),
		)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// Running an empty task forces the browser process to start now, so
	// launch failures surface here instead of inside the first stage op.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	log.Debug("browser session started",
		zap.Bool("headless", opts.Headless),
		zap.String("extension", opts.ExtensionDir))

	return &Session{
		ctx:         tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
		log:         log,
	}, nil
}

// Context returns the tab's chromedp context, for collaborators that
// need target-level access (e.g. the wallet extension driver).
func (s *Session) Context() context.Context {
	return s.ctx
}

// Navigate loads the given URL in the shared tab.
func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

// SetValue sets the value of the element matching sel.
func (s *Session) SetValue(ctx context.Context, sel, value string) error {
	return s.run(ctx, chromedp.SetValue(sel, value, chromedp.ByQuery))
}

// SelectOption sets the value of a <select> element and fires its
// change event, which SetValue alone would not.
func (s *Session) SelectOption(ctx context.Context, sel, value string) error {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.value = %q;
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	})()`, sel, value)

	var found bool
	if err := s.run(ctx, chromedp.Evaluate(script, &found)); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no element matches selector %q", sel)
	}
	return nil
}

// Click clicks the element matching sel.
func (s *Session) Click(ctx context.Context, sel string) error {
	return s.run(ctx, chromedp.Click(sel, chromedp.ByQuery))
}

// Text returns the visible text of the element matching sel.
func (s *Session) Text(ctx context.Context, sel string) (string, error) {
	var out string
	if err := s.run(ctx, chromedp.Text(sel, &out, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return out, nil
}

// WaitText polls until the element matching sel has non-empty text or
// the timeout expires. Fields the dApp populates asynchronously (chain
// id, connected accounts) start empty; a plain Text read races the
// page's own update.
func (s *Session) WaitText(ctx context.Context, sel string, timeout time.Duration) (string, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		text, err := s.Text(waitCtx, sel)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}

		select {
		case <-waitCtx.Done():
			if err != nil {
				return "", fmt.Errorf("element %q not readable within %s: %w", sel, timeout, err)
			}
			return "", fmt.Errorf("element %q stayed empty for %s", sel, timeout)
		case <-ticker.C:
		}
	}
}

// WatchConsole attaches a one-shot listener to the tab's console-API
// event stream and returns its capture. The listener must be attached
// before the action that produces the message; a late attach misses
// the signal entirely.
func (s *Session) WatchConsole(timeout time.Duration) *ConsoleCapture {
	cap := NewConsoleCapture(timeout)

	listenCtx, listenCancel := context.WithCancel(s.ctx)
	cap.cancel = listenCancel

	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		e, ok := ev.(*cdpruntime.EventConsoleAPICalled)
		if !ok || len(e.Args) == 0 {
			return
		}
		cap.Fulfill(consoleText(e.Args))
		listenCancel()
	})

	return cap
}

// Close releases the browser. Idempotent: closing an already-closed
// session is a no-op.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if err := chromedp.Cancel(s.ctx); err != nil {
			s.log.Debug("browser shutdown", zap.Error(err))
		}
		s.tabCancel()
		s.allocCancel()
	})
	return nil
}

// run executes chromedp actions against the shared tab, honoring the
// caller's deadline without detaching from the tab context.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := s.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(s.ctx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

// consoleText renders console-call arguments the way the page logged
// them: string values unquoted, everything else as raw JSON.
func consoleText(args []*cdpruntime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if len(arg.Value) > 0 {
			var str string
			if err := json.Unmarshal(arg.Value, &str); err == nil {
				parts = append(parts, str)
				continue
			}
			parts = append(parts, string(arg.Value))
			continue
		}
		if arg.Description != "" {
			parts = append(parts, arg.Description)
		}
	}
	return strings.Join(parts, " ")
}
