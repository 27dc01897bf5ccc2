package browser

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/go-json-experiment/json/jsontext"
	"go.uber.org/zap"
)

func TestConsoleCapture_FulfillThenWait(t *testing.T) {
	cap := NewConsoleCapture(time.Second)
	cap.Fulfill("0xabc")

	got, err := cap.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}
	if got != "0xabc" {
		t.Errorf("Wait() = %q, want 0xabc", got)
	}
}

func TestConsoleCapture_FirstFulfillWins(t *testing.T) {
	cap := NewConsoleCapture(time.Second)
	cap.Fulfill("0xabc")
	cap.Fulfill("0xdef")

	got, err := cap.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}
	if got != "0xabc" {
		t.Errorf("Wait() = %q, want the first fulfilled value", got)
	}
}

func TestConsoleCapture_WaitBeforeFulfill(t *testing.T) {
	cap := NewConsoleCapture(time.Second)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cap.Fulfill("0xabc")
	}()

	got, err := cap.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}
	if got != "0xabc" {
		t.Errorf("Wait() = %q, want 0xabc", got)
	}
}

func TestConsoleCapture_OwnTimeout(t *testing.T) {
	cap := NewConsoleCapture(20 * time.Millisecond)

	_, err := cap.Wait(context.Background())
	if !errors.Is(err, ErrCaptureTimeout) {
		t.Errorf("Wait() error = %v, want ErrCaptureTimeout", err)
	}
}

func TestConsoleCapture_ContextCancellation(t *testing.T) {
	cap := NewConsoleCapture(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cap.Wait(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestConsoleCapture_ReadMany(t *testing.T) {
	cap := NewConsoleCapture(time.Second)
	cap.Fulfill("0xabc")

	for i := 0; i < 3; i++ {
		got, err := cap.Wait(context.Background())
		if err != nil {
			t.Fatalf("Wait() #%d failed: %v", i, err)
		}
		if got != "0xabc" {
			t.Errorf("Wait() #%d = %q, want 0xabc", i, got)
		}
	}
}

func TestConsoleCapture_ConcurrentFulfill(t *testing.T) {
	cap := NewConsoleCapture(time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cap.Fulfill("0xabc")
		}()
	}
	wg.Wait()

	got, err := cap.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}
	if got != "0xabc" {
		t.Errorf("Wait() = %q, want 0xabc", got)
	}
}

func TestConsoleCapture_CancelIsSafe(t *testing.T) {
	cap := NewConsoleCapture(time.Second)
	cap.Cancel()
	cap.Cancel()

	attached := NewConsoleCapture(time.Second)
	_, cancel := context.WithCancel(context.Background())
	attached.cancel = cancel
	attached.Cancel()
	attached.Cancel()
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	s := &Session{
		ctx:         context.Background(),
		tabCancel:   func() {},
		allocCancel: func() {},
		log:         zap.NewNop(),
	}

	if err := s.Close(); err != nil {
		t.Fatalf("first Close() = %v, want nil", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() = %v, want nil", err)
	}
}

func TestConsoleText(t *testing.T) {
	raw := func(v string) jsontext.Value { return jsontext.Value(v) }

	tests := []struct {
		name     string
		args     []*cdpruntime.RemoteObject
		expected string
	}{
		{
			name:     "single string arg",
			args:     []*cdpruntime.RemoteObject{{Value: raw(`"0xabc"`)}},
			expected: "0xabc",
		},
		{
			name: "string and number",
			args: []*cdpruntime.RemoteObject{
				{Value: raw(`"nonce"`)},
				{Value: raw(`7`)},
			},
			expected: "nonce 7",
		},
		{
			name:     "unserialized object uses description",
			args:     []*cdpruntime.RemoteObject{{Description: "Object"}},
			expected: "Object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := consoleText(tt.args); got != tt.expected {
				t.Errorf("consoleText() = %q, want %q", got, tt.expected)
			}
		})
	}
}
