package receipt

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		pageText   string
		wantStatus string
		wantErr    error
		wantAnyErr bool
	}{
		{
			name:       "successful receipt",
			pageText:   `Response: {"status":"0x1","transactionHash":"0xabc","blockNumber":"0x10","gasUsed":"0x5208"}`,
			wantStatus: StatusSuccess,
		},
		{
			name:       "failed receipt",
			pageText:   `Response: {"status":"0x0","transactionHash":"0xabc"}`,
			wantStatus: StatusFailed,
		},
		{
			name:       "prefix embedded after other page text",
			pageText:   "eth_getTransactionReceipt\nResponse: {\"status\":\"0x1\"}",
			wantStatus: StatusSuccess,
		},
		{
			name:     "no prefix yet",
			pageText: "eth_getTransactionReceipt",
			wantErr:  ErrNoResponse,
		},
		{
			name:     "null body while pending",
			pageText: "Response: null",
			wantErr:  ErrNoResponse,
		},
		{
			name:     "empty body",
			pageText: "Response: ",
			wantErr:  ErrNoResponse,
		},
		{
			name:       "malformed json body",
			pageText:   `Response: {"status":`,
			wantAnyErr: true,
		},
		{
			name:       "body without status",
			pageText:   `Response: {"transactionHash":"0xabc"}`,
			wantAnyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.pageText)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if tt.wantAnyErr {
				if err == nil {
					t.Fatal("Parse() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() failed: %v", err)
			}
			if r.Status != tt.wantStatus {
				t.Errorf("Parse() status = %q, want %q", r.Status, tt.wantStatus)
			}
		})
	}
}

func TestReceipt_Succeeded(t *testing.T) {
	tests := []struct {
		status   string
		expected bool
	}{
		{StatusSuccess, true},
		{StatusFailed, false},
		{"0x2", false},
	}

	for _, tt := range tests {
		r := &Receipt{Status: tt.status}
		if got := r.Succeeded(); got != tt.expected {
			t.Errorf("Succeeded() with status %q = %v, want %v", tt.status, got, tt.expected)
		}
	}
}
