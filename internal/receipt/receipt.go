package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ResponsePrefix is the fixed text the dApp's diagnostic page renders
// before the JSON body of an RPC response.
const ResponsePrefix = "Response: "

// Receipt status codes as rendered by eth_getTransactionReceipt.
const (
	StatusSuccess = "0x1"
	StatusFailed  = "0x0"
)

// ErrNoResponse indicates the diagnostic page has not rendered a usable
// response yet. Callers poll until it clears or their deadline expires.
var ErrNoResponse = errors.New("diagnostic page has not rendered a response")

// Receipt is the subset of a transaction receipt the workflow inspects.
type Receipt struct {
	Status          string `json:"status"`
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
	GasUsed         string `json:"gasUsed"`
}

// Succeeded reports whether the receipt carries the success status code.
func (r *Receipt) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Parse extracts a receipt from the rendered diagnostic page text. The
// page renders the known prefix followed by a JSON body; a missing
// prefix or a "null" body (receipt not yet available) yields
// ErrNoResponse.
func Parse(pageText string) (*Receipt, error) {
	idx := strings.Index(pageText, ResponsePrefix)
	if idx < 0 {
		return nil, ErrNoResponse
	}

	body := strings.TrimSpace(pageText[idx+len(ResponsePrefix):])
	if body == "" || body == "null" {
		return nil, ErrNoResponse
	}

	var r Receipt
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("malformed receipt body: %w", err)
	}
	if r.Status == "" {
		return nil, fmt.Errorf("receipt body missing status field")
	}

	return &r, nil
}
