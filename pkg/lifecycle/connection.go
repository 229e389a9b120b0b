package lifecycle

import (
	"fmt"

	"woop-pay/pkg/registry"
)

// ConnectionContext is the payer or requester wallet state at a point in time
type ConnectionContext struct {
	Address     string
	ChainID     int64
	IsConnected bool
}

// Network returns the whitelisted network the wallet is on, if any
func (c ConnectionContext) Network() (string, bool) {
	if !c.IsConnected {
		return "", false
	}
	return registry.NetworkForChainID(c.ChainID)
}

// Guard is the outcome of the network check before paying
type Guard struct {
	Allowed  bool
	Required string
	Reason   string
}

// CheckNetwork decides whether conn may pay a request on network
func CheckNetwork(network string, conn ConnectionContext) Guard {
	g := Guard{Required: network}

	if !conn.IsConnected {
		g.Reason = "Connect your wallet to pay this request"
		return g
	}

	want, ok := registry.ChainID(network)
	if !ok || conn.ChainID != want {
		g.Reason = fmt.Sprintf("Wrong network. Please connect to %s", network)
		return g
	}

	g.Allowed = true
	return g
}
