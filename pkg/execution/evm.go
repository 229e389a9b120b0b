package execution

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"woop-pay/config"
)

const (
	nativeTransferGas = uint64(21000)
	tokenTransferGas  = uint64(100000)

	defaultPollInterval = 3 * time.Second
)

// ERC20 transfer and balanceOf ABI
const erc20ABI = `[
	{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"}
]`

var parsedERC20 = mustParseABI(erc20ABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("failed to parse ERC20 ABI: " + err.Error())
	}
	return parsed
}

// EVMExecutor pays requests on one EVM network with a locally held key
type EVMExecutor struct {
	networkName  string
	network      config.EVMNetwork
	client       EthClient
	privateKey   *ecdsa.PrivateKey
	from         common.Address
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewEVMExecutor connects to the RPC endpoint configured for networkName
func NewEVMExecutor(cfg config.EVMConfig, networkName string, logger *zap.Logger) (*EVMExecutor, error) {
	network, exists := cfg.Networks[networkName]
	if !exists {
		return nil, fmt.Errorf("network %s not configured", networkName)
	}

	if network.RPCUrl == "" {
		return nil, fmt.Errorf("RPC URL not configured for network %s", networkName)
	}
	if network.PrivateKey == "" {
		return nil, fmt.Errorf("private key not configured for network %s", networkName)
	}

	client, err := NewEthClient(network.RPCUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	exec, err := NewEVMExecutorWithClient(networkName, network, client, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	return exec, nil
}

// NewEVMExecutorWithClient builds an executor around an existing client
func NewEVMExecutorWithClient(networkName string, network config.EVMNetwork, client EthClient, logger *zap.Logger) (*EVMExecutor, error) {
	privateKey, err := ParsePrivateKey(network.PrivateKey)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EVMExecutor{
		networkName:  networkName,
		network:      network,
		client:       client,
		privateKey:   privateKey,
		from:         crypto.PubkeyToAddress(privateKey.PublicKey),
		pollInterval: defaultPollInterval,
		logger:       logger.With(zap.String("network", networkName)),
	}, nil
}

// ParsePrivateKey decodes a hex private key with or without the 0x prefix
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return privateKey, nil
}

// Address returns the paying account
func (e *EVMExecutor) Address() string {
	return e.from.Hex()
}

// Network returns the network name this executor signs for
func (e *EVMExecutor) Network() string {
	return e.networkName
}

// Client returns the underlying RPC client
func (e *EVMExecutor) Client() EthClient {
	return e.client
}

// SetPollInterval changes how often AwaitConfirmation polls for a receipt
func (e *EVMExecutor) SetPollInterval(d time.Duration) {
	e.pollInterval = d
}

// PrepareNativeTransfer builds and signs a plain value transfer
func (e *EVMExecutor) PrepareNativeTransfer(ctx context.Context, to string, amount *big.Int) (*PreparedTx, error) {
	toAddress, err := parseAddress(to)
	if err != nil {
		return nil, err
	}

	if err := e.checkChain(ctx); err != nil {
		return nil, err
	}

	gasPrice, err := e.getGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	gasLimit := nativeTransferGas
	if e.network.GasLimit != nil {
		gasLimit = *e.network.GasLimit
	}

	balance, err := e.client.BalanceAt(ctx, e.from, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	need := new(big.Int).Add(amount, new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gasLimit)))
	if balance.Cmp(need) < 0 {
		return nil, fmt.Errorf("%w: have %s wei, need %s wei", ErrInsufficientFunds, balance.String(), need.String())
	}

	prepared := &PreparedTx{
		Network:  e.networkName,
		From:     e.from.Hex(),
		To:       toAddress.Hex(),
		Amount:   new(big.Int).Set(amount),
		GasLimit: gasLimit,
		GasPrice: gasPrice,
	}

	if err := e.sign(ctx, prepared, toAddress, amount, nil); err != nil {
		return nil, err
	}

	return prepared, nil
}

// PrepareTokenTransfer builds and signs an ERC20 transfer call
func (e *EVMExecutor) PrepareTokenTransfer(ctx context.Context, token, to string, amount *big.Int) (*PreparedTx, error) {
	toAddress, err := parseAddress(to)
	if err != nil {
		return nil, err
	}
	tokenAddress, err := parseAddress(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token contract: %w", err)
	}

	if err := e.checkChain(ctx); err != nil {
		return nil, err
	}

	balance, err := e.tokenBalance(ctx, tokenAddress, e.from)
	if err != nil {
		return nil, fmt.Errorf("failed to get token balance: %w", err)
	}
	if balance.Cmp(amount) < 0 {
		return nil, fmt.Errorf("%w: have %s, need %s token units", ErrInsufficientFunds, balance.String(), amount.String())
	}

	data, err := parsedERC20.Pack("transfer", toAddress, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack transfer data: %w", err)
	}

	gasPrice, err := e.getGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	gasLimit := tokenTransferGas
	if e.network.GasLimit != nil {
		gasLimit = *e.network.GasLimit
	} else {
		estimated, err := e.client.EstimateGas(ctx, ethereum.CallMsg{
			From: e.from,
			To:   &tokenAddress,
			Data: data,
		})
		if err == nil {
			gasLimit = estimated * 120 / 100
		} else {
			e.logger.Debug("gas estimate failed, using default", zap.Error(err))
		}
	}

	// Gas is paid in the native currency
	nativeBalance, err := e.client.BalanceAt(ctx, e.from, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	fee := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gasLimit))
	if nativeBalance.Cmp(fee) < 0 {
		return nil, fmt.Errorf("%w: have %s wei, need %s wei for gas", ErrInsufficientFunds, nativeBalance.String(), fee.String())
	}

	prepared := &PreparedTx{
		Network:  e.networkName,
		From:     e.from.Hex(),
		To:       toAddress.Hex(),
		Token:    tokenAddress.Hex(),
		Amount:   new(big.Int).Set(amount),
		GasLimit: gasLimit,
		GasPrice: gasPrice,
	}

	if err := e.sign(ctx, prepared, tokenAddress, big.NewInt(0), data); err != nil {
		return nil, err
	}

	return prepared, nil
}

// Submit broadcasts a prepared transaction and returns its hash
func (e *EVMExecutor) Submit(ctx context.Context, tx *PreparedTx) (string, error) {
	if tx == nil || tx.signed == nil {
		return "", fmt.Errorf("transaction has not been prepared")
	}

	if err := e.client.SendTransaction(ctx, tx.signed); err != nil {
		if isInsufficientFunds(err) {
			return "", fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
		}
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	hash := tx.signed.Hash().Hex()
	e.logger.Info("transaction submitted", zap.String("tx_hash", hash), zap.String("to", tx.To))

	return hash, nil
}

// AwaitConfirmation polls for the receipt of hash until it is mined or ctx ends
func (e *EVMExecutor) AwaitConfirmation(ctx context.Context, hash string) (Status, error) {
	txHash := common.HexToHash(hash)

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := e.client.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status == types.ReceiptStatusSuccessful {
				return StatusSuccess, nil
			}
			return StatusFailure, nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			return StatusPending, fmt.Errorf("failed to get transaction receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return StatusPending, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close closes the client connection
func (e *EVMExecutor) Close() {
	if e.client != nil {
		e.client.Close()
	}
}

// checkChain refuses to sign when the RPC serves another chain than configured
func (e *EVMExecutor) checkChain(ctx context.Context) error {
	chainID, err := e.client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain id: %w", err)
	}
	if chainID.Int64() != e.network.ChainID {
		return fmt.Errorf("%w: RPC serves chain %s, %s expects %d",
			ErrNetworkMismatch, chainID.String(), e.networkName, e.network.ChainID)
	}
	return nil
}

func (e *EVMExecutor) sign(ctx context.Context, prepared *PreparedTx, to common.Address, value *big.Int, data []byte) error {
	nonce, err := e.client.PendingNonceAt(ctx, e.from)
	if err != nil {
		return fmt.Errorf("failed to get nonce: %w", err)
	}

	tx := types.NewTransaction(nonce, to, value, prepared.GasLimit, prepared.GasPrice, data)

	chainID := big.NewInt(e.network.ChainID)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(chainID), e.privateKey)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	prepared.signed = signedTx
	return nil
}

func (e *EVMExecutor) getGasPrice(ctx context.Context) (*big.Int, error) {
	if e.network.GasPrice != nil {
		return big.NewInt(*e.network.GasPrice), nil
	}

	gasPrice, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	return gasPrice, nil
}

func (e *EVMExecutor) tokenBalance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	data, err := parsedERC20.Pack("balanceOf", account)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf data: %w", err)
	}

	result, err := e.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call balanceOf: %w", err)
	}

	return new(big.Int).SetBytes(result), nil
}

func parseAddress(addr string) (common.Address, error) {
	if !common.IsHexAddress(addr) {
		return common.Address{}, fmt.Errorf("invalid address: %s", addr)
	}
	return common.HexToAddress(addr), nil
}

func isInsufficientFunds(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "insufficient funds")
}
