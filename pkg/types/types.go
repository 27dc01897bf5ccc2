package types

import (
	"strconv"
	"time"
)

// NetworkSpec describes a custom network to register on the wallet extension.
type NetworkSpec struct {
	Name    string `json:"name" yaml:"name"`
	RPCURL  string `json:"rpc_url" yaml:"rpc_url"`
	ChainID uint64 `json:"chain_id" yaml:"chain_id"`
	Symbol  string `json:"symbol" yaml:"symbol"`
}

// ChainIDHex returns the chain id in the 0x-prefixed lower-hex form the
// dApp renders it in.
func (n NetworkSpec) ChainIDHex() string {
	return "0x" + strconv.FormatUint(n.ChainID, 16)
}

// StageSummary holds the outcome of a single workflow stage.
type StageSummary struct {
	Stage    string        `json:"stage"`
	Success  bool          `json:"success"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// RunSummary is the exportable shape of a finished workflow run.
type RunSummary struct {
	RunID     string          `json:"run_id"`
	Succeeded bool            `json:"succeeded"`
	StartTime time.Time       `json:"start_time"`
	EndTime   time.Time       `json:"end_time"`
	Duration  time.Duration   `json:"duration"`
	Stages    []*StageSummary `json:"stages"`
	TxHash    string          `json:"tx_hash,omitempty"`
}
