// Package registry holds the static token and network tables used to build
// and redeem payment requests.
package registry

import (
	"errors"
	"fmt"
	"strings"
)

// NativeAddress is the placeholder contract address for a network's base currency.
const NativeAddress = "0x0000000000000000000000000000000000000000"

// DefaultDecimals is the precision the execution layer works in.
const DefaultDecimals = 18

// ErrUnknownPair is returned when a token/network pair has no contract address.
var ErrUnknownPair = errors.New("unknown token/network pair")

// Token describes a whitelisted token and its per-network contract addresses
type Token struct {
	Symbol    string
	Decimals  int
	Native    bool
	Addresses map[string]string
}

// Network describes a whitelisted network
type Network struct {
	Name     string
	ChainID  int64
	Explorer string
}

// KnownTokens lists the token symbols a request may use, in display order
var KnownTokens = []string{"ETH", "WETH", "DAI", "USDC", "UNI", "MATIC"}

// KnownNetworks lists the network symbols a request may use, in display order
var KnownNetworks = []string{"mainnet", "goerli", "optimism", "arbitrum"}

var tokens = map[string]Token{
	"ETH": {
		Symbol:   "ETH",
		Decimals: 18,
		Native:   true,
		Addresses: map[string]string{
			"mainnet":  NativeAddress,
			"goerli":   NativeAddress,
			"optimism": NativeAddress,
			"arbitrum": NativeAddress,
		},
	},
	"WETH": {
		Symbol:   "WETH",
		Decimals: 18,
		Addresses: map[string]string{
			"mainnet":  "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
			"goerli":   "0xB4FBF271143F4FBf7B91A5ded31805e42b2208d6",
			"optimism": "0x4200000000000000000000000000000000000006",
			"arbitrum": "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1",
		},
	},
	"DAI": {
		Symbol:   "DAI",
		Decimals: 18,
		Addresses: map[string]string{
			"mainnet":  "0x6B175474E89094C44Da98b954EedeAC495271d0F",
			"goerli":   "0xdc31Ee1784292379Fbb2964b3B9C4124D8F89C60",
			"optimism": "0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1",
			"arbitrum": "0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1",
		},
	},
	"USDC": {
		Symbol:   "USDC",
		Decimals: 6,
		Addresses: map[string]string{
			"mainnet":  "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			"goerli":   "0xD87Ba7A50B2E7E660f678A895E4B72E7CB4CCd9C",
			"optimism": "0x7F5c764cBc14f9669B88837ca1490cCa17c31607",
			"arbitrum": "0xFF970A61A04b1cA14834A43f5dE4533eBDDB5CC8",
		},
	},
	"UNI": {
		Symbol:   "UNI",
		Decimals: 18,
		Addresses: map[string]string{
			"mainnet":  "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984",
			"goerli":   "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984",
			"optimism": "0x6fd9d7AD17242c41f7131d257212c54A0e816691",
			"arbitrum": "0xFa7F8980b0f1E64A2062791cc3b0871572f1F7f0",
		},
	},
	"MATIC": {
		Symbol:   "MATIC",
		Decimals: 18,
		Native:   true,
		Addresses: map[string]string{
			"mainnet":  NativeAddress,
			"goerli":   NativeAddress,
			"optimism": NativeAddress,
			"arbitrum": NativeAddress,
		},
	},
}

var networks = map[string]Network{
	"mainnet":  {Name: "mainnet", ChainID: 1, Explorer: "https://etherscan.io"},
	"goerli":   {Name: "goerli", ChainID: 5, Explorer: "https://goerli.etherscan.io"},
	"optimism": {Name: "optimism", ChainID: 10, Explorer: "https://optimistic.etherscan.io"},
	"arbitrum": {Name: "arbitrum", ChainID: 42161, Explorer: "https://arbiscan.io"},
}

// IsKnownToken reports whether symbol is in the token whitelist
func IsKnownToken(symbol string) bool {
	_, ok := tokens[symbol]
	return ok
}

// IsKnownNetwork reports whether name is in the network whitelist
func IsKnownNetwork(name string) bool {
	_, ok := networks[name]
	return ok
}

// IsNativeToken reports whether symbol is paid with a plain value transfer
// rather than a token contract call.
func IsNativeToken(symbol string) bool {
	t, ok := tokens[symbol]
	return ok && t.Native
}

// LookupToken returns the table entry for symbol
func LookupToken(symbol string) (Token, bool) {
	t, ok := tokens[symbol]
	return t, ok
}

// ResolveTokenAddress returns the contract address of token on network.
// Unknown tokens, unknown networks and pairs without a deployment all
// return ErrUnknownPair.
func ResolveTokenAddress(token, network string) (string, error) {
	if !IsKnownNetwork(network) {
		return "", fmt.Errorf("%w: %s on %s", ErrUnknownPair, token, network)
	}

	t, ok := tokens[token]
	if !ok {
		return "", fmt.Errorf("%w: %s on %s", ErrUnknownPair, token, network)
	}

	addr, ok := t.Addresses[network]
	if !ok || addr == "" {
		return "", fmt.Errorf("%w: %s on %s", ErrUnknownPair, token, network)
	}

	return addr, nil
}

// ResolveTokenDecimals returns the on-chain decimal precision of token
func ResolveTokenDecimals(token string) (int, bool) {
	t, ok := tokens[token]
	if !ok {
		return 0, false
	}
	return t.Decimals, true
}

// explorerHost falls back to the mainnet explorer so an unrecognised
// network only degrades links instead of failing.
func explorerHost(network string) string {
	if n, ok := networks[network]; ok {
		return n.Explorer
	}
	return networks["mainnet"].Explorer
}

// ResolveExplorerTxBase returns the transaction explorer base URL for network
func ResolveExplorerTxBase(network string) string {
	return explorerHost(network) + "/tx/"
}

// ResolveExplorerAddressBase returns the address explorer base URL for network
func ResolveExplorerAddressBase(network string) string {
	return explorerHost(network) + "/address/"
}

// TxURL returns the explorer link for a transaction hash
func TxURL(network, hash string) string {
	return ResolveExplorerTxBase(network) + hash
}

// AddressURL returns the explorer link for an account
func AddressURL(network, address string) string {
	return ResolveExplorerAddressBase(network) + address
}

// ChainID returns the EVM chain id of network
func ChainID(network string) (int64, bool) {
	n, ok := networks[network]
	if !ok {
		return 0, false
	}
	return n.ChainID, true
}

// NetworkForChainID maps an EVM chain id back to a network name
func NetworkForChainID(id int64) (string, bool) {
	for _, n := range networks {
		if n.ChainID == id {
			return n.Name, true
		}
	}
	return "", false
}

// NormalizeTokenSymbol upper-cases and trims a user-entered token symbol
func NormalizeTokenSymbol(symbol string) string {
	return strings.TrimSpace(strings.ToUpper(symbol))
}

// NormalizeNetwork lower-cases and trims a user-entered network name
func NormalizeNetwork(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}
