// Package execution signs and submits the transfers that settle payment requests.
package execution

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNetworkMismatch   = errors.New("wallet is connected to a different network")
	ErrUserRejected      = errors.New("transaction rejected by user")
)

// Status is the confirmation state of a submitted transaction
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// PreparedTx is a signed transfer waiting to be submitted
type PreparedTx struct {
	Network  string
	From     string
	To       string
	Token    string // empty for native transfers
	Amount   *big.Int
	GasLimit uint64
	GasPrice *big.Int

	signed *types.Transaction
}

// Hash returns the hash the transaction will have once broadcast
func (p *PreparedTx) Hash() string {
	if p.signed == nil {
		return ""
	}
	return p.signed.Hash().Hex()
}

// MaxFee is the most the transaction can spend on gas
func (p *PreparedTx) MaxFee() *big.Int {
	if p.GasPrice == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(p.GasPrice, new(big.Int).SetUint64(p.GasLimit))
}

// IsNative reports whether the transfer moves the network's base currency
func (p *PreparedTx) IsNative() bool {
	return p.Token == ""
}

// Executor prepares and submits transfers on one network
type Executor interface {
	PrepareNativeTransfer(ctx context.Context, to string, amount *big.Int) (*PreparedTx, error)
	PrepareTokenTransfer(ctx context.Context, token, to string, amount *big.Int) (*PreparedTx, error)
	Submit(ctx context.Context, tx *PreparedTx) (string, error)
	AwaitConfirmation(ctx context.Context, hash string) (Status, error)
}

// ConfirmFunc asks the payer to approve a prepared transfer
type ConfirmFunc func(tx *PreparedTx) bool

// confirmingExecutor asks for approval before every submission
type confirmingExecutor struct {
	Executor
	confirm ConfirmFunc
}

// WithConfirmation wraps exec so Submit fails with ErrUserRejected unless
// confirm approves the transfer.
func WithConfirmation(exec Executor, confirm ConfirmFunc) Executor {
	return &confirmingExecutor{Executor: exec, confirm: confirm}
}

func (c *confirmingExecutor) Submit(ctx context.Context, tx *PreparedTx) (string, error) {
	if c.confirm != nil && !c.confirm(tx) {
		return "", ErrUserRejected
	}
	return c.Executor.Submit(ctx, tx)
}
