package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, "mainnet", cfg.DefaultNetwork)
	assert.True(t, cfg.MultiNetwork)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultIPFSAPIURL, cfg.IPFS.APIURL)
	assert.Equal(t, DefaultIPFSGatewayURL, cfg.IPFS.GatewayURL)
	assert.Empty(t, cfg.EVM.Networks)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".woop.yaml")
	content := `
base_url: https://pay.example.com/woop
default_network: optimism
multi_network: false
evm:
  networks:
    optimism:
      rpc_url: https://mainnet.optimism.io
      private_key: "0xabc"
      gas_limit: 90000
    mainnet:
      rpc_url: https://eth.example.com
      chain_id: 1
      gas_price: 30000000000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	t.Setenv("WOOP_IPFS_PROJECT_ID", "project")
	t.Setenv("WOOP_LOG_LEVEL", "debug")

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := load(v)
	require.NoError(t, err)

	assert.Equal(t, "https://pay.example.com/woop/", cfg.BaseURL)
	assert.Equal(t, "optimism", cfg.DefaultNetwork)
	assert.False(t, cfg.MultiNetwork)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "project", cfg.IPFS.ProjectID)

	optimism, err := cfg.Network("optimism")
	require.NoError(t, err)
	assert.Equal(t, "https://mainnet.optimism.io", optimism.RPCUrl)
	assert.Equal(t, int64(10), optimism.ChainID)
	require.NotNil(t, optimism.GasLimit)
	assert.Equal(t, uint64(90000), *optimism.GasLimit)
	assert.Nil(t, optimism.GasPrice)

	mainnet, err := cfg.Network("mainnet")
	require.NoError(t, err)
	require.NotNil(t, mainnet.GasPrice)
	assert.Equal(t, int64(30000000000), *mainnet.GasPrice)

	_, err = cfg.Network("arbitrum")
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownNetworks(t *testing.T) {
	v := viper.New()
	v.Set("default_network", "solana")
	_, err := load(v)
	assert.Error(t, err)

	v = viper.New()
	v.Set("evm.networks.bsc.rpc_url", "https://bsc.example.com")
	_, err = load(v)
	assert.Error(t, err)
}
