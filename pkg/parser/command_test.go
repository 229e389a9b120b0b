package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"woop-pay/pkg/lifecycle"
)

func TestParseRequestCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    lifecycle.CreateInput
		wantErr bool
	}{
		{
			name:    "amount token network",
			command: "2.5 DAI on optimism",
			want:    lifecycle.CreateInput{Value: "2.5", Token: "DAI", Network: "optimism"},
		},
		{
			name:    "request prefix lower case",
			command: "request 100 usdc",
			want:    lifecycle.CreateInput{Value: "100", Token: "USDC"},
		},
		{
			name:    "network alias",
			command: "  0.1   eth in arb ",
			want:    lifecycle.CreateInput{Value: "0.1", Token: "ETH", Network: "arbitrum"},
		},
		{
			name:    "ethereum means mainnet",
			command: "1 UNI on ethereum",
			want:    lifecycle.CreateInput{Value: "1", Token: "UNI", Network: "mainnet"},
		},
		{
			name:    "amount left for validation",
			command: "abc DAI",
			want:    lifecycle.CreateInput{Value: "ABC", Token: "DAI"},
		},
		{name: "missing token", command: "2.5", wantErr: true},
		{name: "dangling on", command: "2.5 DAI on", wantErr: true},
		{name: "empty", command: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRequestCommand(tt.command)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestNormalizeNetwork(t *testing.T) {
	assert.Equal(t, "optimism", NormalizeNetwork(" OP "))
	assert.Equal(t, "goerli", NormalizeNetwork("Goerli"))
	assert.Equal(t, "polygon", NormalizeNetwork("polygon"))
}
