package cmd

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"woop-pay/pkg/lifecycle"
	"woop-pay/pkg/parser"
	"woop-pay/pkg/registry"
	"woop-pay/pkg/request"
)

var (
	linkFrom    string
	linkValue   string
	linkToken   string
	linkNetwork string
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Print an editable request link without publishing",
	Long: `Build a payment request link that carries every field in its query string.
Nothing is published; the payer's page decodes the link directly.

Examples:
  woop link --from 0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B --value 2.5 --token DAI --network optimism`,
	Args: cobra.NoArgs,
	Run:  runLink,
}

func init() {
	rootCmd.AddCommand(linkCmd)

	linkCmd.Flags().StringVar(&linkFrom, "from", "", "Address that receives the payment")
	linkCmd.Flags().StringVar(&linkValue, "value", "", "Amount to request")
	linkCmd.Flags().StringVar(&linkToken, "token", "", "Token symbol")
	linkCmd.Flags().StringVar(&linkNetwork, "network", "", "Network to receive payment on")
}

func runLink(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cfg, log := setup(cmd)
	defer log.Sync()

	q := url.Values{}
	q.Set("create", request.ParamsMarker)
	q.Set("from", linkFrom)
	q.Set("value", linkValue)
	q.Set("token", registry.NormalizeTokenSymbol(linkToken))
	q.Set("network", parser.NormalizeNetwork(linkNetwork))

	req, err := request.BuildFromQuery(q)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// Query links are never published, so no store is needed
	controller := lifecycle.New(nil,
		lifecycle.WithLogger(log),
		lifecycle.WithBaseURL(cfg.BaseURL),
		lifecycle.WithDefaultNetwork(cfg.DefaultNetwork),
	)
	link := controller.ParamsLink(req)

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(map[string]string{"link": link}, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	printSuccess(link)
}
