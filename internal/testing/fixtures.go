package testing

import "fmt"

// Shared test secrets. The mnemonic is the well-known BIP-39 test
// phrase; neither controls real funds.
const (
	TestPrivateKey = "0x0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	TestMnemonic   = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	TestTxHash     = "0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b"
)

// RenderedResponse wraps a JSON body the way the dApp's diagnostic page
// renders RPC responses.
func RenderedResponse(body string) string {
	return "Response: " + body
}

// SuccessReceiptJSON returns a successful receipt body for the hash.
func SuccessReceiptJSON(hash string) string {
	return fmt.Sprintf(`{"status":"0x1","transactionHash":"%s","blockNumber":"0x10","gasUsed":"0x5208"}`, hash)
}

// FailedReceiptJSON returns a reverted receipt body for the hash.
func FailedReceiptJSON(hash string) string {
	return fmt.Sprintf(`{"status":"0x0","transactionHash":"%s","blockNumber":"0x10","gasUsed":"0x5208"}`, hash)
}
