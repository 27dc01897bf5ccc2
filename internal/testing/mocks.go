// Package testing provides shared mocks and fixtures for walletflow
// package tests.
package testing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/0xmhha/walletflow/internal/browser"
	"github.com/0xmhha/walletflow/pkg/types"
)

// MockPage is a scripted Page implementation for sequencer and watcher
// tests.
type MockPage struct {
	mu sync.Mutex

	// Scripted element text: selector to successive values. The last
	// value repeats once the series is exhausted.
	TextSeries map[string][]string
	TextErr    map[string]error

	// Error responses
	NavigateErr error
	SetValueErr error
	SelectErr   error
	ClickErr    error

	// Recorded interactions
	Navigations []string
	Filled      map[string]string
	Selected    map[string]string
	Clicked     []string
	CloseCount  int

	// LastCapture is the capture returned by the most recent
	// WatchConsole call.
	LastCapture *browser.ConsoleCapture

	// ConsoleMessage, when set, auto-fulfills new captures after
	// ConsoleDelay.
	ConsoleMessage string
	ConsoleDelay   time.Duration

	// OnClick runs after each successful click.
	OnClick func(sel string)

	CallCounts map[string]int
}

var _ browser.Page = (*MockPage)(nil)

// NewMockPage creates a mock page with empty scripts.
func NewMockPage() *MockPage {
	return &MockPage{
		TextSeries: make(map[string][]string),
		TextErr:    make(map[string]error),
		Filled:     make(map[string]string),
		Selected:   make(map[string]string),
		CallCounts: make(map[string]int),
	}
}

// SetText scripts a fixed text for a selector.
func (m *MockPage) SetText(sel, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TextSeries[sel] = []string{text}
}

func (m *MockPage) record(method string) {
	m.CallCounts[method]++
}

// GetCallCount returns the number of times a method was called.
func (m *MockPage) GetCallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCounts[method]
}

// Navigate records the navigation.
func (m *MockPage) Navigate(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Navigate")
	if m.NavigateErr != nil {
		return m.NavigateErr
	}
	m.Navigations = append(m.Navigations, url)
	return nil
}

// SetValue records the filled value.
func (m *MockPage) SetValue(ctx context.Context, sel, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SetValue")
	if m.SetValueErr != nil {
		return m.SetValueErr
	}
	m.Filled[sel] = value
	return nil
}

// SelectOption records the selected value.
func (m *MockPage) SelectOption(ctx context.Context, sel, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SelectOption")
	if m.SelectErr != nil {
		return m.SelectErr
	}
	m.Selected[sel] = value
	return nil
}

// Click records the click and runs the OnClick hook.
func (m *MockPage) Click(ctx context.Context, sel string) error {
	m.mu.Lock()
	m.record("Click")
	if m.ClickErr != nil {
		m.mu.Unlock()
		return m.ClickErr
	}
	m.Clicked = append(m.Clicked, sel)
	hook := m.OnClick
	m.mu.Unlock()

	if hook != nil {
		hook(sel)
	}
	return nil
}

// Text returns the next scripted value for sel.
func (m *MockPage) Text(ctx context.Context, sel string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Text")

	if err := m.TextErr[sel]; err != nil {
		return "", err
	}

	series, ok := m.TextSeries[sel]
	if !ok || len(series) == 0 {
		return "", fmt.Errorf("no text scripted for selector %q", sel)
	}
	text := series[0]
	if len(series) > 1 {
		m.TextSeries[sel] = series[1:]
	}
	return text, nil
}

// WaitText returns the next scripted value for sel immediately; the
// mock has no asynchronous page to wait on.
func (m *MockPage) WaitText(ctx context.Context, sel string, timeout time.Duration) (string, error) {
	return m.Text(ctx, sel)
}

// WatchConsole returns a fresh capture, auto-fulfilled when
// ConsoleMessage is scripted.
func (m *MockPage) WatchConsole(timeout time.Duration) *browser.ConsoleCapture {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("WatchConsole")

	cap := browser.NewConsoleCapture(timeout)
	m.LastCapture = cap

	if m.ConsoleMessage != "" {
		msg, delay := m.ConsoleMessage, m.ConsoleDelay
		go func() {
			if delay > 0 {
				time.Sleep(delay)
			}
			cap.Fulfill(msg)
		}()
	}

	return cap
}

// Close counts closes; always succeeds so idempotency can be asserted.
func (m *MockPage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Close")
	m.CloseCount++
	return nil
}

// MockDriver is a scripted wallet driver.
type MockDriver struct {
	mu sync.Mutex

	AddNetworkErr   error
	AcceptAccessErr error
	ConfirmErr      error

	// ConfirmDelay simulates mining time before ConfirmAndWait returns.
	ConfirmDelay time.Duration

	// OnConfirm runs when ConfirmAndWait is invoked, after ConfirmDelay.
	OnConfirm func()

	Networks []types.NetworkSpec
	Calls    []string
}

// NewMockDriver creates an empty scripted driver.
func NewMockDriver() *MockDriver {
	return &MockDriver{}
}

// CallCount returns how many times the named operation ran.
func (d *MockDriver) CallCount(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.Calls {
		if c == name {
			n++
		}
	}
	return n
}

// AddNetwork records the requested network.
func (d *MockDriver) AddNetwork(ctx context.Context, spec types.NetworkSpec) error {
	d.mu.Lock()
	d.Calls = append(d.Calls, "AddNetwork")
	d.Networks = append(d.Networks, spec)
	d.mu.Unlock()
	return d.AddNetworkErr
}

// AcceptAccess records the call.
func (d *MockDriver) AcceptAccess(ctx context.Context) error {
	d.mu.Lock()
	d.Calls = append(d.Calls, "AcceptAccess")
	d.mu.Unlock()
	return d.AcceptAccessErr
}

// ConfirmAndWait simulates the mining wait, runs the hook, and returns
// the scripted error.
func (d *MockDriver) ConfirmAndWait(ctx context.Context) error {
	d.mu.Lock()
	d.Calls = append(d.Calls, "ConfirmAndWait")
	delay := d.ConfirmDelay
	hook := d.OnConfirm
	d.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if hook != nil {
		hook()
	}
	return d.ConfirmErr
}

// MockCollector counts outcome observations.
type MockCollector struct {
	mu        sync.Mutex
	Successes int
	Failures  int
}

// RecordOutcome counts the observation.
func (c *MockCollector) RecordOutcome(ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok {
		c.Successes++
	} else {
		c.Failures++
	}
}

// Counts returns the success and failure totals.
func (c *MockCollector) Counts() (successes, failures int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Successes, c.Failures
}
