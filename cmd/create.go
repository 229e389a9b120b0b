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
	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"woop-pay/config"
	"woop-pay/pkg/lifecycle"
	"woop-pay/pkg/parser"
	"woop-pay/pkg/registry"
	"woop-pay/pkg/wallet"
)

var (
	createNetwork string
	createFrom    string
	createQR      string
)

var createCmd = &cobra.Command{
	Use:   "create <amount> <token> [on <network>]",
	Short: "Create and publish a payment request",
	Long: `Create a payment request and publish it so it can be shared as a link.

The recipient is the --from address, or the account of the private key
configured for the request's network.

Examples:
  woop create 2.5 DAI on optimism
  woop create 100 USDC --network arbitrum --from 0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B
  woop create 0.1 ETH --qr request.png
  woop create 1 UNI --local`,
	Args: cobra.MinimumNArgs(2),
	Run:  runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&createNetwork, "network", "", "Network to receive payment on")
	createCmd.Flags().StringVar(&createFrom, "from", "", "Address that receives the payment")
	createCmd.Flags().StringVar(&createQR, "qr", "", "Write a QR code PNG of the link to this file")
}

type createOutput struct {
	ID         string `json:"id"`
	Link       string `json:"link"`
	ParamsLink string `json:"params_link"`
	From       string `json:"from"`
	Value      string `json:"value"`
	Token      string `json:"token"`
	Network    string `json:"network"`
	QRCode     string `json:"qr_code,omitempty"`
}

func runCreate(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cfg, log := setup(cmd)
	defer log.Sync()

	in, err := parser.ParseRequestCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if createNetwork != "" {
		in.Network = parser.NormalizeNetwork(createNetwork)
	}
	in.Network, err = createNetworkFor(cfg, in.Network)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	from := createFrom
	if from == "" {
		network, err := cfg.Network(in.Network)
		if err != nil {
			printError(fmt.Errorf("no recipient: pass --from or %w", err))
			os.Exit(1)
		}
		w, err := wallet.NewKeyWallet(network.PrivateKey, nil)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		from = w.CurrentAddress()
	}

	chainID, _ := registry.ChainID(in.Network)
	conn := lifecycle.ConnectionContext{Address: from, ChainID: chainID, IsConnected: true}

	controller := newController(newStore(cmd, cfg, log), cfg, log)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Publishing payment request..."
		s.Start()
	}

	published, err := controller.Create(context.Background(), *in, conn)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	out := createOutput{
		ID:         published.ID,
		Link:       published.Link,
		ParamsLink: controller.ParamsLink(published.Request),
		From:       published.Request.From,
		Value:      published.Request.Value,
		Token:      published.Request.TokenName,
		Network:    published.Network,
	}

	if createQR != "" {
		if err := qrcode.WriteFile(published.Link, qrcode.Medium, 256, createQR); err != nil {
			printError(fmt.Errorf("failed to write QR code: %w", err))
			os.Exit(1)
		}
		out.QRCode = createQR
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayPublished(out)
}

// createNetworkFor returns the network a request will be created on.
// Single-network setups only accept the default network.
func createNetworkFor(cfg *config.Config, requested string) (string, error) {
	if requested == "" {
		return cfg.DefaultNetwork, nil
	}
	if !cfg.MultiNetwork && requested != cfg.DefaultNetwork {
		return "", fmt.Errorf("multi_network is disabled: requests can only be created on %s", cfg.DefaultNetwork)
	}
	return requested, nil
}

func displayPublished(out createOutput) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                     PAYMENT REQUEST CREATED")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Amount:      %s %s\n", out.Value, color.YellowString(out.Token))
	fmt.Printf("  Network:     %s\n", out.Network)
	fmt.Printf("  Recipient:   %s\n", color.CyanString(out.From))
	fmt.Printf("  Request ID:  %s\n", color.HiBlackString(out.ID))

	fmt.Printf("\n  Share this link:\n")
	color.Cyan("  %s", out.Link)
	fmt.Printf("\n  Editable link:\n")
	fmt.Printf("  %s\n", color.HiBlackString(out.ParamsLink))

	if out.QRCode != "" {
		fmt.Printf("\n  QR code written to %s\n", out.QRCode)
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
