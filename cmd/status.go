package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"woop-pay/pkg/execution"
	"woop-pay/pkg/parser"
	"woop-pay/pkg/registry"
)

var (
	statusNetwork string
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash>",
	Short: "Check the status of a payment transaction",
	Long: `Check whether a payment transaction has been mined.

Examples:
  woop status 0x1234...abcd --network optimism
  woop status 0x1234...abcd --network mainnet --watch
  woop status 0x1234...abcd --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusNetwork, "network", "", "Network the transaction was sent on (default: configured default network)")
	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates until the transaction is mined")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	txHash := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cfg, log := setup(cmd)
	defer log.Sync()

	network := cfg.DefaultNetwork
	if statusNetwork != "" {
		network = parser.NormalizeNetwork(statusNetwork)
	}

	manager := execution.NewManager(cfg.EVM, log)
	defer manager.Close()

	exec, err := configuredExecutor(manager, network)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if watchStatus {
		watchTxStatus(exec, network, txHash, jsonOutput)
	} else {
		checkTxStatus(exec, network, txHash, jsonOutput)
	}
}

func checkTxStatus(exec *execution.EVMExecutor, network, txHash string, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking transaction status..."
		s.Start()
	}

	info, err := exec.TransactionInfo(context.Background(), txHash)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(info, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayStatus(info, network)
	}
}

func watchTxStatus(exec *execution.EVMExecutor, network, txHash string, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching transaction %s on %s\n", color.CyanString(txHash), network)
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	// Check immediately first
	if checkAndDisplayStatus(exec, network, txHash) {
		return
	}

	for range ticker.C {
		if checkAndDisplayStatus(exec, network, txHash) {
			return
		}
	}
}

// checkAndDisplayStatus reports whether the transaction has been mined
func checkAndDisplayStatus(exec *execution.EVMExecutor, network, txHash string) bool {
	info, err := exec.TransactionInfo(context.Background(), txHash)
	if err != nil {
		color.Red("Error: %v", err)
		return false
	}

	displayStatus(info, network)
	return info.Status != execution.StatusPending
}

func displayStatus(info *execution.TransactionInfo, network string) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                       TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Tx Hash:     %s\n", color.CyanString(info.Hash))
	fmt.Printf("  Status:      %s\n", getColoredStatus(string(info.Status)))
	fmt.Printf("  Network:     %s\n", network)
	fmt.Printf("  To:          %s\n", info.To)
	fmt.Printf("  Value:       %s wei\n", info.Value)
	if info.BlockNumber > 0 {
		fmt.Printf("  Block:       %d\n", info.BlockNumber)
		fmt.Printf("  Gas Used:    %d\n", info.GasUsed)
	}
	fmt.Printf("  Explorer:    %s\n", color.HiBlackString(registry.TxURL(network, info.Hash)))

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func getColoredStatus(status string) string {
	status = strings.ToUpper(status)

	switch status {
	case "SUCCESS":
		return color.GreenString(status)
	case "PENDING":
		return color.YellowString(status)
	case "FAILURE":
		return color.RedString(status)
	default:
		return status
	}
}
