package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"woop-pay/pkg/execution"
	"woop-pay/pkg/parser"
	"woop-pay/pkg/registry"
)

var filterNetwork string

var tokensCmd = &cobra.Command{
	Use:     "tokens",
	Aliases: []string{"list-tokens", "ls"},
	Short:   "List supported tokens and networks",
	Long: `List every token a payment request may use, with its contract address
on each supported network.

Examples:
  woop tokens
  woop tokens --network optimism`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterNetwork, "network", "", "Only show one network")
}

type tokenEntry struct {
	Symbol     string `json:"symbol"`
	Network    string `json:"network"`
	Decimals   int    `json:"decimals"`
	Native     bool   `json:"native"`
	Address    string `json:"address,omitempty"`
	Configured bool   `json:"configured"`
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cfg, log := setup(cmd)
	defer log.Sync()

	manager := execution.NewManager(cfg.EVM, log)

	networks := registry.KnownNetworks
	if filterNetwork != "" {
		network := parser.NormalizeNetwork(filterNetwork)
		if !registry.IsKnownNetwork(network) {
			printError(fmt.Errorf("network %s is not supported (supported: %s)",
				filterNetwork, strings.Join(registry.KnownNetworks, ", ")))
			os.Exit(1)
		}
		networks = []string{network}
	}

	entries := tokenEntries(networks, manager)

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayTokens(entries, networks, manager)
}

// tokenEntries lists every token available on networks
func tokenEntries(networks []string, manager *execution.Manager) []tokenEntry {
	entries := make([]tokenEntry, 0)
	for _, network := range networks {
		configured := manager.IsConfigured(network)
		for _, symbol := range registry.KnownTokens {
			token, _ := registry.LookupToken(symbol)
			address, err := registry.ResolveTokenAddress(symbol, network)
			if err != nil {
				continue
			}
			entry := tokenEntry{
				Symbol:     symbol,
				Network:    network,
				Decimals:   token.Decimals,
				Native:     token.Native,
				Configured: configured,
			}
			if !token.Native {
				entry.Address = address
			}
			entries = append(entries, entry)
		}
	}
	return entries
}

func displayTokens(entries []tokenEntry, networks []string, manager *execution.Manager) {
	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                            SUPPORTED TOKENS")
	fmt.Println(strings.Repeat("=", 90))

	for _, network := range networks {
		chainID, _ := registry.ChainID(network)
		status := color.HiBlackString("not configured for payments")
		if manager.IsConfigured(network) {
			status = color.GreenString("configured")
		}
		color.Cyan("\n%s (chain %d)", strings.ToUpper(network), chainID)
		fmt.Printf("  %s\n", status)
		fmt.Println(strings.Repeat("-", 90))

		for _, entry := range entries {
			if entry.Network != network {
				continue
			}
			address := entry.Address
			if entry.Native {
				address = "native"
			}
			fmt.Printf("  %-10s  %2d decimals  %s\n",
				color.YellowString(entry.Symbol),
				entry.Decimals,
				color.HiBlackString(address))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens across %d networks\n", len(entries), len(networks))
	if configured := manager.Networks(); len(configured) > 0 {
		fmt.Printf("Payments configured on: %s\n", strings.Join(configured, ", "))
	}
	fmt.Println()
}
