package types

import "testing"

func TestNetworkSpec_ChainIDHex(t *testing.T) {
	tests := []struct {
		name     string
		chainID  uint64
		expected string
	}{
		{"mainnet", 1, "0x1"},
		{"custom devnet", 420, "0x1a4"},
		{"large id", 11155111, "0xaa36a7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := NetworkSpec{ChainID: tt.chainID}
			if got := spec.ChainIDHex(); got != tt.expected {
				t.Errorf("ChainIDHex() = %v, want %v", got, tt.expected)
			}
		})
	}
}
