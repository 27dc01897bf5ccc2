// Package integration provides integration tests for walletflow.
//
// These tests verify the workflow against a real node, and optionally a
// real browser with a wallet extension. They skip themselves when the
// required environment is missing, making them safe to include in CI/CD
// pipelines.
//
// # Running Integration Tests
//
// Node-only tests (connection, chain id, account derivation):
//
//	WALLETFLOW_RPC_URL=http://localhost:8545 go test ./internal/integration/...
//
// Full workflow tests (requires a funded account, a served test dApp,
// and an unpacked wallet extension):
//
//	WALLETFLOW_RPC_URL=http://localhost:8545 \
//	WALLETFLOW_SECRET=0x... \
//	WALLETFLOW_DAPP_URL=http://localhost:8080 \
//	WALLETFLOW_EXTENSION_DIR=./extension \
//	go test ./internal/integration/...
//
// # Environment Variables
//
//   - WALLETFLOW_RPC_URL: RPC endpoint URL (default: http://localhost:8545)
//   - WALLETFLOW_SECRET: funded account private key (hex) or mnemonic
//   - WALLETFLOW_DAPP_URL: test dApp base URL
//   - WALLETFLOW_EXTENSION_DIR: unpacked wallet extension directory
//
// # Local Development
//
// For local testing, you can use anvil (from Foundry):
//
//	anvil
//
//	WALLETFLOW_RPC_URL=http://localhost:8545 \
//	WALLETFLOW_SECRET=0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80 \
//	go test ./internal/integration/...
package integration
