// Package wallet exposes the payer's account and chain as a connection context.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"

	"woop-pay/pkg/execution"
	"woop-pay/pkg/lifecycle"
	"woop-pay/pkg/registry"
)

// Wallet is an account that can be connected to a network
type Wallet interface {
	CurrentAddress() string
	CurrentNetwork() string
	IsConnected() bool
	Connect(ctx context.Context) error
	Context() lifecycle.ConnectionContext
}

// ChainReader reports the chain an RPC endpoint serves
type ChainReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// KeyWallet is a wallet backed by a locally held private key
type KeyWallet struct {
	address string
	client  ChainReader

	mu        sync.RWMutex
	chainID   int64
	connected bool
}

// NewKeyWallet derives the account from hexKey. The chain is learned on Connect.
func NewKeyWallet(hexKey string, client ChainReader) (*KeyWallet, error) {
	key, err := execution.ParsePrivateKey(hexKey)
	if err != nil {
		return nil, err
	}
	return newKeyWallet(key, client), nil
}

func newKeyWallet(key *ecdsa.PrivateKey, client ChainReader) *KeyWallet {
	return &KeyWallet{
		address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
		client:  client,
	}
}

// CurrentAddress returns the account address
func (w *KeyWallet) CurrentAddress() string {
	return w.address
}

// CurrentNetwork returns the whitelisted network of the connected chain, or
// an empty string when not connected or on an unsupported chain.
func (w *KeyWallet) CurrentNetwork() string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if !w.connected {
		return ""
	}
	network, _ := registry.NetworkForChainID(w.chainID)
	return network
}

// IsConnected reports whether Connect has succeeded
func (w *KeyWallet) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

// Connect asks the RPC endpoint which chain it serves
func (w *KeyWallet) Connect(ctx context.Context) error {
	if w.client == nil {
		return fmt.Errorf("no RPC client configured")
	}

	chainID, err := w.client.ChainID(ctx)
	if err != nil {
		w.mu.Lock()
		w.connected = false
		w.mu.Unlock()
		return fmt.Errorf("failed to connect wallet: %w", err)
	}

	w.mu.Lock()
	w.chainID = chainID.Int64()
	w.connected = true
	w.mu.Unlock()

	return nil
}

// Context returns the wallet state for the lifecycle controller
func (w *KeyWallet) Context() lifecycle.ConnectionContext {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if !w.connected {
		return lifecycle.ConnectionContext{Address: w.address}
	}
	return lifecycle.ConnectionContext{
		Address:     w.address,
		ChainID:     w.chainID,
		IsConnected: true,
	}
}
