package execution

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TransactionInfo describes a transaction as seen by the RPC node
type TransactionInfo struct {
	Hash        string `json:"hash"`
	Nonce       uint64 `json:"nonce"`
	GasPrice    string `json:"gas_price"`
	GasLimit    uint64 `json:"gas_limit"`
	To          string `json:"to"`
	Value       string `json:"value"`
	Pending     bool   `json:"pending"`
	BlockNumber uint64 `json:"block_number,omitempty"`
	GasUsed     uint64 `json:"gas_used,omitempty"`
	Status      Status `json:"status"`
}

// TransactionInfo retrieves information about a transaction
func (e *EVMExecutor) TransactionInfo(ctx context.Context, txHash string) (*TransactionInfo, error) {
	hash := common.HexToHash(txHash)

	tx, isPending, err := e.client.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	info := &TransactionInfo{
		Hash:     tx.Hash().Hex(),
		Nonce:    tx.Nonce(),
		GasPrice: tx.GasPrice().String(),
		GasLimit: tx.Gas(),
		Value:    tx.Value().String(),
		Pending:  isPending,
		Status:   StatusPending,
	}
	if tx.To() != nil {
		info.To = tx.To().Hex()
	}

	if isPending {
		return info, nil
	}

	receipt, err := e.client.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return info, nil
		}
		return nil, fmt.Errorf("failed to get transaction receipt: %w", err)
	}

	if receipt.BlockNumber != nil {
		info.BlockNumber = receipt.BlockNumber.Uint64()
	}
	info.GasUsed = receipt.GasUsed
	if receipt.Status == types.ReceiptStatusSuccessful {
		info.Status = StatusSuccess
	} else {
		info.Status = StatusFailure
	}

	return info, nil
}
