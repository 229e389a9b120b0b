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

	"woop-pay/pkg/registry"
	"woop-pay/pkg/request"
)

var showCmd = &cobra.Command{
	Use:   "show <id|link>",
	Short: "Show a payment request",
	Long: `Fetch and decode a payment request by id or link.

Examples:
  woop show QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG
  woop show https://web3-pay-alpha.vercel.app/woop/QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG
  woop show "https://web3-pay-alpha.vercel.app/create/params?from=0x...&value=1&token=DAI&network=optimism"`,
	Args: cobra.ExactArgs(1),
	Run:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

type requestOutput struct {
	From            string `json:"from"`
	Value           string `json:"value"`
	Token           string `json:"token"`
	TokenAddress    string `json:"token_address,omitempty"`
	Network         string `json:"network"`
	Native          bool   `json:"native"`
	ExecutionAmount string `json:"execution_amount"`
	BaseUnits       string `json:"base_units"`
	RecipientURL    string `json:"recipient_url"`
}

func newRequestOutput(d *request.Decoded) requestOutput {
	return requestOutput{
		From:            d.Request.From,
		Value:           d.Request.Value,
		Token:           d.Request.TokenName,
		TokenAddress:    d.Request.TokenAddress,
		Network:         d.Network,
		Native:          d.IsNativeTransaction,
		ExecutionAmount: d.ExecutionAmount.String(),
		BaseUnits:       d.BaseUnits.String(),
		RecipientURL:    registry.AddressURL(d.Network, d.Request.From),
	}
}

func runShow(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cfg, log := setup(cmd)
	defer log.Sync()

	controller := newController(newStore(cmd, cfg, log), cfg, log)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching payment request..."
		s.Start()
	}

	payment := controller.OpenLink(context.Background(), args[0])
	if !jsonOutput {
		s.Stop()
	}

	if err := payment.Err(); err != nil {
		printError(err)
		os.Exit(1)
	}

	out := newRequestOutput(payment.Decoded())

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayRequest(out)
}

func displayRequest(out requestOutput) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                         PAYMENT REQUEST")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Amount:     %s %s\n", out.Value, color.YellowString(out.Token))
	fmt.Printf("  Network:    %s\n", out.Network)
	fmt.Printf("  Recipient:  %s\n", color.CyanString(out.From))
	if out.TokenAddress != "" {
		fmt.Printf("  Token:      %s\n", color.HiBlackString(out.TokenAddress))
	}
	fmt.Printf("  Explorer:   %s\n", color.HiBlackString(out.RecipientURL))

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
