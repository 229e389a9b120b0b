package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"woop-pay/pkg/execution"
	"woop-pay/pkg/lifecycle"
	"woop-pay/pkg/registry"
	"woop-pay/pkg/wallet"
)

var payNoConfirm bool

var payCmd = &cobra.Command{
	Use:   "pay <id|link>",
	Short: "Pay a payment request",
	Long: `Pay a payment request from the account configured for its network.

The configured RPC endpoint must serve the request's network; otherwise the
payment is blocked until the wallet is switched.

Examples:
  woop pay QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG
  woop pay https://web3-pay-alpha.vercel.app/woop/QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG --yes`,
	Args: cobra.ExactArgs(1),
	Run:  runPay,
}

func init() {
	rootCmd.AddCommand(payCmd)

	payCmd.Flags().BoolVarP(&payNoConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runPay(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	if err := checkPayFlags(jsonOutput, payNoConfirm); err != nil {
		printError(err)
		os.Exit(1)
	}

	cfg, log := setup(cmd)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	controller := newController(newStore(cmd, cfg, log), cfg, log)

	payment := controller.OpenLink(ctx, args[0])
	if err := payment.Err(); err != nil {
		printError(err)
		os.Exit(1)
	}
	decoded := payment.Decoded()

	manager := execution.NewManager(cfg.EVM, log)
	defer manager.Close()

	exec, err := configuredExecutor(manager, decoded.Network)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	network, err := cfg.Network(decoded.Network)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	w, err := wallet.NewKeyWallet(network.PrivateKey, exec.Client())
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	guard, err := connectWallet(ctx, w, payment)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if !guard.Allowed {
		printError(fmt.Errorf("%s", guard.Reason))
		os.Exit(1)
	}

	if !jsonOutput {
		displayRequest(newRequestOutput(decoded))
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Preparing transaction..."

	executor := execution.WithConfirmation(exec, func(tx *execution.PreparedTx) bool {
		if payNoConfirm {
			return true
		}
		s.Stop()
		displayPreparedTx(tx, decoded.Request.Value, decoded.Request.TokenName)
		approved := confirm("Send payment?")
		if approved && !jsonOutput {
			s.Suffix = " Waiting for confirmation..."
			s.Start()
		}
		return approved
	})

	if !jsonOutput {
		s.Start()
	}
	receipt, err := payment.Pay(ctx, executor)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		if receipt != nil && receipt.TxHash != "" {
			fmt.Printf("\n  Tx Hash:  %s\n  Explorer: %s\n", receipt.TxHash, receipt.ExplorerURL)
		}
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(receipt, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayReceipt(receipt)
}

// checkPayFlags refuses the interactive prompt when stdout carries JSON
func checkPayFlags(jsonOutput, noConfirm bool) error {
	if jsonOutput && !noConfirm {
		return fmt.Errorf("--json requires --yes, the confirmation prompt cannot share stdout with JSON output")
	}
	return nil
}

// connectWallet brings w online and runs the network guard for payment
func connectWallet(ctx context.Context, w wallet.Wallet, payment *lifecycle.Payment) (lifecycle.Guard, error) {
	if err := w.Connect(ctx); err != nil {
		return lifecycle.Guard{}, err
	}
	return payment.UpdateConnection(w.Context()), nil
}

func displayPreparedTx(tx *execution.PreparedTx, value, token string) {
	fee := decimal.NewFromBigInt(tx.MaxFee(), -registry.DefaultDecimals)

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Yellow("                    CONFIRM PAYMENT")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("\n  Pay:       %s %s\n", value, color.YellowString(token))
	fmt.Printf("  To:        %s\n", color.CyanString(tx.To))
	fmt.Printf("  From:      %s\n", tx.From)
	fmt.Printf("  Network:   %s\n", tx.Network)
	fmt.Printf("  Max Fee:   %s\n", fee.String())
	fmt.Println("\n" + strings.Repeat("=", 60))
}

func displayReceipt(receipt *lifecycle.Receipt) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                         PAYMENT SENT")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("\n  Status:    %s\n", getColoredStatus(string(receipt.Status)))
	fmt.Printf("  Tx Hash:   %s\n", color.CyanString(receipt.TxHash))
	fmt.Printf("  Explorer:  %s\n", receipt.ExplorerURL)
	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
