package scenario

import (
	"time"

	"github.com/google/uuid"

	"github.com/0xmhha/walletflow/pkg/types"
)

// Stage identifies a workflow stage.
type Stage int

const (
	StageOpen Stage = iota
	StageNetwork
	StageConnect
	StageTransfer
)

func (s Stage) String() string {
	switch s {
	case StageOpen:
		return "OPEN"
	case StageNetwork:
		return "NETWORK"
	case StageConnect:
		return "CONNECT"
	case StageTransfer:
		return "TRANSFER"
	default:
		return "UNKNOWN"
	}
}

// StageResult represents the result of a workflow stage.
type StageResult struct {
	Stage    Stage
	Success  bool
	Duration time.Duration
	Error    error
}

// RunConfig is the resolved, immutable view of the configuration a run
// executes against. The expected addresses are derived once from the
// secret material; for this workflow they are the same address, since
// the transfer is a self-send.
type RunConfig struct {
	DappURL           string
	Network           types.NetworkSpec
	Amount            string
	TxType            string
	ExpectedSender    string
	ExpectedRecipient string
}

// DappSelectors names the test dApp's controls and fields.
type DappSelectors struct {
	ChainIDField   string
	AccountField   string
	ConnectButton  string
	RecipientInput string
	AmountInput    string
	TxTypeSelect   string
	SubmitButton   string
}

// DefaultDappSelectors matches the test dApp's element ids.
func DefaultDappSelectors() DappSelectors {
	return DappSelectors{
		ChainIDField:   "#chainId",
		AccountField:   "#accounts",
		ConnectButton:  "#connectButton",
		RecipientInput: "#toInput",
		AmountInput:    "#amountInput",
		TxTypeSelect:   "#typeInput",
		SubmitButton:   "#submitButton",
	}
}

// Result represents a complete workflow run.
type Result struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	StageResults []*StageResult
	Succeeded    bool
	TxHash       string
}

// NewResult creates a result for a fresh run.
func NewResult() *Result {
	return &Result{
		RunID:        uuid.NewString(),
		StartTime:    time.Now(),
		StageResults: make([]*StageResult, 0, 4),
	}
}

// AddStageResult appends a stage result.
func (r *Result) AddStageResult(sr *StageResult) {
	r.StageResults = append(r.StageResults, sr)
}

// Finalize completes the result.
func (r *Result) Finalize() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}

// Summary converts the result to its exportable shape.
func (r *Result) Summary() *types.RunSummary {
	stages := make([]*types.StageSummary, 0, len(r.StageResults))
	for _, sr := range r.StageResults {
		ss := &types.StageSummary{
			Stage:    sr.Stage.String(),
			Success:  sr.Success,
			Duration: sr.Duration,
		}
		if sr.Error != nil {
			ss.Error = sr.Error.Error()
		}
		stages = append(stages, ss)
	}

	return &types.RunSummary{
		RunID:     r.RunID,
		Succeeded: r.Succeeded,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Duration:  r.Duration,
		Stages:    stages,
		TxHash:    r.TxHash,
	}
}
