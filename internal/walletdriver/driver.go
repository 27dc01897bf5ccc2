// Package walletdriver automates the wallet extension the browser runs
// with. The workflow only needs three operations from it; everything
// else about the extension is opaque.
package walletdriver

import (
	"context"

	"github.com/0xmhha/walletflow/pkg/types"
)

// Driver is the narrow contract the workflow needs from the wallet
// automation layer. Every operation may suspend while the extension UI
// settles and must surface its own failures to the calling stage.
type Driver interface {
	// AddNetwork registers a custom network on the wallet.
	AddNetwork(ctx context.Context, spec types.NetworkSpec) error

	// AcceptAccess approves the dApp's pending connection request.
	AcceptAccess(ctx context.Context) error

	// ConfirmAndWait confirms the pending transaction and blocks until
	// it has been mined.
	ConfirmAndWait(ctx context.Context) error
}
