package walletdriver

import "testing"

func TestDefaultSelectors(t *testing.T) {
	sel := DefaultSelectors()

	checks := map[string]string{
		"ApproveNetwork": sel.ApproveNetwork,
		"SwitchNetwork":  sel.SwitchNetwork,
		"NextAccount":    sel.NextAccount,
		"ConnectDapp":    sel.ConnectDapp,
		"ConfirmTx":      sel.ConfirmTx,
		"NetworkName":    sel.NetworkName,
		"NetworkRPCURL":  sel.NetworkRPCURL,
		"NetworkChain":   sel.NetworkChain,
		"NetworkSymbol":  sel.NetworkSymbol,
		"SaveNetwork":    sel.SaveNetwork,
	}

	for name, value := range checks {
		if value == "" {
			t.Errorf("DefaultSelectors().%s is empty", name)
		}
	}
}
