package parser

import (
	"fmt"
	"regexp"
	"strings"

	"woop-pay/pkg/lifecycle"
	"woop-pay/pkg/registry"
)

// Pattern: [request] <amount> <token> [on <network>]
var requestPattern = regexp.MustCompile(`^(?:REQUEST\s+)?(\S+)\s+([A-Z0-9]+)(?:\s+(?:ON|IN)\s+([A-Z0-9-]+))?$`)

var networkAliases = map[string]string{
	"ethereum":     "mainnet",
	"eth":          "mainnet",
	"op":           "optimism",
	"arb":          "arbitrum",
	"arbitrum-one": "arbitrum",
}

// ParseRequestCommand parses a short request description
// Examples:
//   - "2.5 DAI on optimism"
//   - "request 100 usdc"
//   - "0.1 ETH on arb"
func ParseRequestCommand(command string) (*lifecycle.CreateInput, error) {
	normalized := strings.Join(strings.Fields(strings.ToUpper(command)), " ")

	matches := requestPattern.FindStringSubmatch(normalized)
	if matches == nil {
		return nil, fmt.Errorf("invalid request format. Expected: '<amount> <token> [on <network>]' (e.g., '2.5 DAI on optimism')")
	}

	in := &lifecycle.CreateInput{
		Value: matches[1],
		Token: registry.NormalizeTokenSymbol(matches[2]),
	}
	if matches[3] != "" {
		in.Network = NormalizeNetwork(matches[3])
	}

	return in, nil
}

// NormalizeNetwork maps common network aliases to registry names
func NormalizeNetwork(name string) string {
	name = registry.NormalizeNetwork(name)
	if alias, ok := networkAliases[name]; ok {
		return alias
	}
	return name
}
