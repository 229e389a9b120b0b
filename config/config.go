package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"woop-pay/pkg/registry"
)

// Config holds the application configuration
type Config struct {
	BaseURL        string
	DefaultNetwork string
	MultiNetwork   bool
	LogLevel       string
	StorePath      string
	IPFS           IPFSConfig
	EVM            EVMConfig
}

// IPFSConfig holds the IPFS provider settings
type IPFSConfig struct {
	APIURL        string `mapstructure:"api_url"`
	GatewayURL    string `mapstructure:"gateway_url"`
	ProjectID     string `mapstructure:"project_id"`
	ProjectSecret string `mapstructure:"project_secret"`
}

// EVMConfig holds the per-network settings used to pay requests
type EVMConfig struct {
	Networks map[string]EVMNetwork `mapstructure:"networks"`
}

// EVMNetwork holds the RPC endpoint and signing key for one network
type EVMNetwork struct {
	RPCUrl     string  `mapstructure:"rpc_url"`
	ChainID    int64   `mapstructure:"chain_id"`
	PrivateKey string  `mapstructure:"private_key"`
	GasPrice   *int64  `mapstructure:"gas_price"`
	GasLimit   *uint64 `mapstructure:"gas_limit"`
}

const (
	DefaultBaseURL        = "https://web3-pay-alpha.vercel.app/woop/"
	DefaultIPFSAPIURL     = "https://ipfs.infura.io:5001"
	DefaultIPFSGatewayURL = "https://web3-pay.infura-ipfs.io"
	DefaultNetwork        = "mainnet"
	DefaultStoreFileName  = ".woop-requests.json"
)

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".woop")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Read config file (optional)
	_ = viper.ReadInConfig()

	cfg, err := load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

// load fills a Config from v after applying defaults and env bindings
func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// WOOP_IPFS_API_URL maps to ipfs.api_url
	v.SetEnvPrefix("WOOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		BaseURL:        v.GetString("base_url"),
		DefaultNetwork: registry.NormalizeNetwork(v.GetString("default_network")),
		MultiNetwork:   v.GetBool("multi_network"),
		LogLevel:       v.GetString("log_level"),
		StorePath:      v.GetString("store_path"),
		IPFS: IPFSConfig{
			APIURL:        v.GetString("ipfs.api_url"),
			GatewayURL:    v.GetString("ipfs.gateway_url"),
			ProjectID:     v.GetString("ipfs.project_id"),
			ProjectSecret: v.GetString("ipfs.project_secret"),
		},
	}

	if err := v.UnmarshalKey("evm", &cfg.EVM); err != nil {
		return nil, fmt.Errorf("failed to parse evm config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()

	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("default_network", DefaultNetwork)
	v.SetDefault("multi_network", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("store_path", filepath.Join(home, DefaultStoreFileName))
	v.SetDefault("ipfs.api_url", DefaultIPFSAPIURL)
	v.SetDefault("ipfs.gateway_url", DefaultIPFSGatewayURL)
	v.SetDefault("ipfs.project_id", "")
	v.SetDefault("ipfs.project_secret", "")
}

func (c *Config) normalize() error {
	if !registry.IsKnownNetwork(c.DefaultNetwork) {
		return fmt.Errorf("default network %q is not supported (supported: %s)",
			c.DefaultNetwork, strings.Join(registry.KnownNetworks, ", "))
	}

	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}

	if c.EVM.Networks == nil {
		c.EVM.Networks = map[string]EVMNetwork{}
	}

	for name, network := range c.EVM.Networks {
		if !registry.IsKnownNetwork(name) {
			return fmt.Errorf("evm network %q is not supported", name)
		}
		if network.ChainID == 0 {
			network.ChainID, _ = registry.ChainID(name)
			c.EVM.Networks[name] = network
		}
	}

	return nil
}

// Network returns the settings for a configured network
func (c *Config) Network(name string) (EVMNetwork, error) {
	network, ok := c.EVM.Networks[name]
	if !ok {
		return EVMNetwork{}, fmt.Errorf("network %s not configured. Add evm.networks.%s to your .woop.yaml", name, name)
	}
	return network, nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
