package wallet

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"woop-pay/pkg/lifecycle"
)

type fakeChain struct {
	id  int64
	err error
}

func (f *fakeChain) ChainID(ctx context.Context) (*big.Int, error) {
	if f.err != nil {
		return nil, f.err
	}
	return big.NewInt(f.id), nil
}

func TestKeyWallet(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	chain := &fakeChain{id: 10}
	w, err := NewKeyWallet(hexutil.Encode(crypto.FromECDSA(key)), chain)
	require.NoError(t, err)

	var _ Wallet = w

	assert.Equal(t, address, w.CurrentAddress())
	assert.False(t, w.IsConnected())
	assert.Empty(t, w.CurrentNetwork())
	assert.Equal(t, lifecycle.ConnectionContext{Address: address}, w.Context())

	require.NoError(t, w.Connect(context.Background()))
	assert.True(t, w.IsConnected())
	assert.Equal(t, "optimism", w.CurrentNetwork())
	assert.Equal(t, lifecycle.ConnectionContext{Address: address, ChainID: 10, IsConnected: true}, w.Context())

	// Unsupported chains still connect but have no network name
	chain.id = 56
	require.NoError(t, w.Connect(context.Background()))
	assert.Empty(t, w.CurrentNetwork())
	assert.Equal(t, int64(56), w.Context().ChainID)

	chain.err = errors.New("dial tcp: connection refused")
	assert.Error(t, w.Connect(context.Background()))
	assert.False(t, w.IsConnected())
}

func TestKeyWallet_GuardsPayment(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	w, err := NewKeyWallet(hexutil.Encode(crypto.FromECDSA(key)), &fakeChain{id: 1})
	require.NoError(t, err)
	require.NoError(t, w.Connect(context.Background()))

	g := lifecycle.CheckNetwork("arbitrum", w.Context())
	assert.False(t, g.Allowed)
	assert.Equal(t, "Wrong network. Please connect to arbitrum", g.Reason)

	assert.True(t, lifecycle.CheckNetwork("mainnet", w.Context()).Allowed)
}

func TestNewKeyWallet_InvalidKey(t *testing.T) {
	_, err := NewKeyWallet("not-a-key", &fakeChain{})
	assert.Error(t, err)

	w, err := NewKeyWallet("0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318", nil)
	require.NoError(t, err)
	assert.Error(t, w.Connect(context.Background()))
}
