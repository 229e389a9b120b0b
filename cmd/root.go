package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"woop-pay/config"
	"woop-pay/pkg/execution"
	"woop-pay/pkg/lifecycle"
	"woop-pay/pkg/logger"
	"woop-pay/pkg/storage"
)

var rootCmd = &cobra.Command{
	Use:   "woop",
	Short: "Create and pay crypto payment requests",
	Long: `woop is a command-line tool for Woop Pay payment requests. Create a request
for an amount of a token on a network, share the link, and let the payer settle
it from their wallet.

Examples:
  woop create 2.5 DAI on optimism
  woop show https://web3-pay-alpha.vercel.app/woop/QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG
  woop pay QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG
  woop tokens --network arbitrum`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().Bool("local", false, "Use the local request store instead of IPFS")
}

// setup loads configuration and builds the logger shared by every command
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger) {
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	} else if !jsonOutput && level == "info" {
		// Keep the terminal output readable unless asked otherwise
		level = "warn"
	}

	log, err := logger.New(level, jsonOutput)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	return cfg, log
}

// newStore returns the IPFS store, or the local file store with --local
func newStore(cmd *cobra.Command, cfg *config.Config, log *zap.Logger) storage.Store {
	local, _ := cmd.Flags().GetBool("local")
	if local {
		store, err := storage.NewLocalStore(cfg.StorePath)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		return store
	}

	store, err := storage.NewIPFSStore(storage.IPFSConfig{
		APIURL:        cfg.IPFS.APIURL,
		GatewayURL:    cfg.IPFS.GatewayURL,
		ProjectID:     cfg.IPFS.ProjectID,
		ProjectSecret: cfg.IPFS.ProjectSecret,
	}, log)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	return store
}

func newController(store storage.Store, cfg *config.Config, log *zap.Logger) *lifecycle.Controller {
	return lifecycle.New(store,
		lifecycle.WithLogger(log),
		lifecycle.WithBaseURL(cfg.BaseURL),
		lifecycle.WithDefaultNetwork(cfg.DefaultNetwork),
		lifecycle.WithMultiNetwork(cfg.MultiNetwork),
	)
}

// configuredExecutor returns the executor for network or lists what is configured
func configuredExecutor(manager *execution.Manager, network string) (*execution.EVMExecutor, error) {
	if !manager.IsConfigured(network) {
		configured := "none"
		if names := manager.Networks(); len(names) > 0 {
			configured = strings.Join(names, ", ")
		}
		return nil, fmt.Errorf("network %s needs evm.networks.%s.rpc_url and private_key in .woop.yaml (configured: %s)",
			network, network, configured)
	}
	return manager.Executor(network)
}

func confirm(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("\n%s (y/N): ", prompt)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
