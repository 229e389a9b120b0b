package request

import (
	"math/big"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddr = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"

func validQuery() url.Values {
	q := url.Values{}
	q.Set("create", "params")
	q.Set("from", testAddr)
	q.Set("value", "2.5")
	q.Set("token", "DAI")
	q.Set("network", "mainnet")
	return q
}

func TestBuildRequest(t *testing.T) {
	tests := []struct {
		name   string
		fields Fields
		want   *ValidationError
	}{
		{
			name:   "valid dai request",
			fields: Fields{From: testAddr, Value: "10", Token: "DAI", Network: "optimism"},
		},
		{
			name:   "zero amount",
			fields: Fields{From: testAddr, Value: "0", Token: "DAI", Network: "mainnet"},
			want:   ErrZeroAmount,
		},
		{
			name:   "zero amount wins over every other failure",
			fields: Fields{From: "0x1", Value: "0.000", Token: "DOGE", Network: "moon"},
			want:   ErrZeroAmount,
		},
		{
			name:   "empty amount counts as zero",
			fields: Fields{From: testAddr, Token: "DAI", Network: "mainnet"},
			want:   ErrZeroAmount,
		},
		{
			name:   "no token",
			fields: Fields{From: testAddr, Value: "1", Network: "mainnet"},
			want:   ErrMissingField,
		},
		{
			name:   "unknown token",
			fields: Fields{From: testAddr, Value: "1", Token: "DOGE", Network: "mainnet"},
			want:   ErrUnknownToken,
		},
		{
			name:   "no sender",
			fields: Fields{Value: "1", Token: "DAI", Network: "mainnet"},
			want:   ErrMissingField,
		},
		{
			name:   "no network",
			fields: Fields{From: testAddr, Value: "1", Token: "DAI"},
			want:   ErrMissingField,
		},
		{
			name:   "not a number",
			fields: Fields{From: testAddr, Value: "abc", Token: "DAI", Network: "mainnet"},
			want:   ErrInvalidAmount,
		},
		{
			name:   "negative amount",
			fields: Fields{From: testAddr, Value: "-1", Token: "DAI", Network: "mainnet"},
			want:   ErrInvalidAmount,
		},
		{
			name:   "eth below one wei",
			fields: Fields{From: testAddr, Value: "0.0000000000000000001", Token: "ETH", Network: "mainnet"},
			want:   ErrZeroAmount,
		},
		{
			name:   "usdc below one unit",
			fields: Fields{From: testAddr, Value: "0.0000001", Token: "USDC", Network: "mainnet"},
			want:   ErrZeroAmount,
		},
		{
			name:   "more decimals than dai has",
			fields: Fields{From: testAddr, Value: "1.0000000000000000001", Token: "DAI", Network: "mainnet"},
			want:   ErrInvalidAmount,
		},
		{
			name:   "more decimals than usdc has",
			fields: Fields{From: testAddr, Value: "1.0000001", Token: "USDC", Network: "mainnet"},
			want:   ErrInvalidAmount,
		},
		{
			name:   "exponent notation",
			fields: Fields{From: testAddr, Value: "1e18", Token: "DAI", Network: "mainnet"},
			want:   ErrInvalidAmount,
		},
		{
			name:   "short address",
			fields: Fields{From: testAddr[:41], Value: "1", Token: "DAI", Network: "mainnet"},
			want:   ErrInvalidAddress,
		},
		{
			name:   "long address",
			fields: Fields{From: testAddr + "0", Value: "1", Token: "DAI", Network: "mainnet"},
			want:   ErrInvalidAddress,
		},
		{
			name:   "unknown network",
			fields: Fields{From: testAddr, Value: "1", Token: "DAI", Network: "polygon"},
			want:   ErrUnknownNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BuildRequest(tt.fields)
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
				assert.Nil(t, req)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Version, req.Version)
			assert.Equal(t, tt.fields.From, req.From)
			assert.Equal(t, tt.fields.Value, req.Value)
		})
	}
}

func TestBuildRequest_ResolvesTokenAddress(t *testing.T) {
	req, err := BuildRequest(Fields{From: testAddr, Value: "1", Token: "USDC", Network: "arbitrum"})
	require.NoError(t, err)
	assert.Equal(t, "0xFF970A61A04b1cA14834A43f5dE4533eBDDB5CC8", req.TokenAddress)
	assert.Equal(t, "arbitrum", req.Network)

	req, err = BuildRequest(Fields{From: testAddr, Value: "1", Token: "ETH", Network: "mainnet"})
	require.NoError(t, err)
	assert.Empty(t, req.TokenAddress)
}

func TestBuildFromQuery(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(url.Values)
		want   *ValidationError
		reason string
	}{
		{name: "valid", mutate: func(url.Values) {}},
		{name: "missing marker", mutate: func(q url.Values) { q.Del("create") }, want: ErrMalformedURL},
		{name: "wrong marker", mutate: func(q url.Values) { q.Set("create", "json") }, want: ErrMalformedURL},
		{name: "missing from", mutate: func(q url.Values) { q.Del("from") }, want: ErrMissingField, reason: "no wallet address entered"},
		{name: "missing value", mutate: func(q url.Values) { q.Del("value") }, want: ErrMissingField, reason: "no amount entered"},
		{name: "missing token", mutate: func(q url.Values) { q.Del("token") }, want: ErrMissingField, reason: "no token entered"},
		{name: "missing network", mutate: func(q url.Values) { q.Del("network") }, want: ErrMissingField, reason: "no network entered"},
		{name: "bad address", mutate: func(q url.Values) { q.Set("from", "0x1234") }, want: ErrInvalidAddress},
		{name: "unknown token", mutate: func(q url.Values) { q.Set("token", "SHIB") }, want: ErrUnknownToken},
		{name: "unknown network", mutate: func(q url.Values) { q.Set("network", "base") }, want: ErrUnknownNetwork},
		{name: "zero value", mutate: func(q url.Values) { q.Set("value", "0") }, want: ErrZeroAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuery()
			tt.mutate(q)

			req, err := BuildFromQuery(q)
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
				assert.Nil(t, req)
				if tt.reason != "" {
					assert.Equal(t, tt.reason, err.Error())
				}
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestParseQuery_DaiOnMainnet(t *testing.T) {
	decoded, err := ParseQuery(validQuery())
	require.NoError(t, err)

	assert.Equal(t, "2.5", decoded.Request.Value)
	assert.Equal(t, "DAI", decoded.Request.TokenName)
	assert.Equal(t, "0x6B175474E89094C44Da98b954EedeAC495271d0F", decoded.Request.TokenAddress)
	assert.False(t, decoded.IsNativeTransaction)
	assert.Equal(t, "mainnet", decoded.Network)

	want, _ := new(big.Int).SetString("2500000000000000000", 10)
	assert.Equal(t, 0, want.Cmp(decoded.BaseUnits))
}

func TestRoundTrip_EighteenDecimals(t *testing.T) {
	for _, value := range []string{"1", "2.5", "0.000000000000000001", "123456.789"} {
		req, err := BuildRequest(Fields{From: testAddr, Value: value, Token: "DAI", Network: "goerli"})
		require.NoError(t, err)

		doc, err := EncodeDocument(req)
		require.NoError(t, err)

		decoded, err := ParseDocument(doc, "mainnet")
		require.NoError(t, err)

		assert.Equal(t, value, decoded.Request.Value)
		assert.True(t, decoded.ExecutionAmount.Equal(decimal.RequireFromString(value)), value)
	}
}

func TestParseDocument_RescalesSixDecimals(t *testing.T) {
	req, err := BuildRequest(Fields{From: testAddr, Value: "1000000", Token: "USDC", Network: "mainnet"})
	require.NoError(t, err)

	doc, err := EncodeDocument(req)
	require.NoError(t, err)
	assert.Contains(t, string(doc), `"value":"1000000"`)

	decoded, err := ParseDocument(doc, "mainnet")
	require.NoError(t, err)

	assert.Equal(t, "1000000", decoded.Request.Value)
	assert.Equal(t, "0.000001", decoded.ExecutionAmount.String())
	assert.Equal(t, "1000000000000", decoded.BaseUnits.String())

	again, err := ParseDocument(doc, "mainnet")
	require.NoError(t, err)
	assert.True(t, again.ExecutionAmount.Equal(decoded.ExecutionAmount))
}

func TestRescale(t *testing.T) {
	assert.Equal(t, "0.0000000000025", Rescale(decimal.RequireFromString("2.5"), "USDC").String())
	assert.Equal(t, "2.5", Rescale(decimal.RequireFromString("2.5"), "DAI").String())
	assert.Equal(t, "2500000", ToBaseUnits(Rescale(decimal.RequireFromString("2.5"), "USDC")).String())
}

func TestParseDocument_NativeEth(t *testing.T) {
	doc := `{"version":"1.0.0","from":"` + testAddr + `","value":"1","tokenName":"ETH","network":"arbitrum"}`

	decoded, err := ParseDocument([]byte(doc), "mainnet")
	require.NoError(t, err)

	assert.True(t, decoded.IsNativeTransaction)
	assert.Empty(t, decoded.Request.TokenAddress)
	assert.Equal(t, "arbitrum", decoded.Network)
	assert.Equal(t, "1000000000000000000", decoded.BaseUnits.String())
}

func TestParseDocument_LegacyWithoutNetwork(t *testing.T) {
	doc := `{"version":"1.0.0","from":"` + testAddr + `","value":"3","tokenName":"WETH","tokenAddress":"0xdeadbeef"}`

	decoded, err := ParseDocument([]byte(doc), "goerli")
	require.NoError(t, err)

	assert.Equal(t, "goerli", decoded.Network)
	assert.Empty(t, decoded.Request.Network)
	assert.Equal(t, "0xB4FBF271143F4FBf7B91A5ded31805e42b2208d6", decoded.Request.TokenAddress)
}

func TestParseDocument_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want *ValidationError
	}{
		{name: "not json", doc: "<html>", want: ErrMalformedDocument},
		{name: "no version", doc: `{"from":"` + testAddr + `","value":"1","tokenName":"DAI","network":"mainnet"}`, want: ErrMissingField},
		{name: "no value", doc: `{"version":"1.0.0","from":"` + testAddr + `","tokenName":"DAI","network":"mainnet"}`, want: ErrMissingField},
		{name: "zero value", doc: `{"version":"1.0.0","from":"` + testAddr + `","value":"0","tokenName":"DAI","network":"mainnet"}`, want: ErrZeroAmount},
		{name: "bad address", doc: `{"version":"1.0.0","from":"0xabc","value":"1","tokenName":"DAI","network":"mainnet"}`, want: ErrInvalidAddress},
		{name: "unknown token", doc: `{"version":"1.0.0","from":"` + testAddr + `","value":"1","tokenName":"PEPE","network":"mainnet"}`, want: ErrUnknownToken},
		{name: "unknown network", doc: `{"version":"1.0.0","from":"` + testAddr + `","value":"1","tokenName":"DAI","network":"solana"}`, want: ErrUnknownNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := ParseDocument([]byte(tt.doc), "mainnet")
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, decoded)
		})
	}
}

func TestIsNativeTransaction(t *testing.T) {
	for _, token := range []string{"ETH", "WETH", "DAI", "USDC", "UNI", "MATIC"} {
		decoded, err := ParseQuery(url.Values{
			"create":  {"params"},
			"from":    {testAddr},
			"value":   {"1"},
			"token":   {token},
			"network": {"mainnet"},
		})
		require.NoError(t, err)
		assert.Equal(t, token == "ETH" || token == "MATIC", decoded.IsNativeTransaction, token)
	}
}

func TestEncodeQuery(t *testing.T) {
	req, err := BuildRequest(Fields{From: testAddr, Value: "7", Token: "UNI", Network: "optimism"})
	require.NoError(t, err)

	q := EncodeQuery(req, "mainnet")
	assert.Equal(t, "optimism", q.Get("network"))

	back, err := BuildFromQuery(q)
	require.NoError(t, err)
	assert.Equal(t, req, back)

	req.Network = ""
	assert.Equal(t, "mainnet", EncodeQuery(req, "mainnet").Get("network"))
}

func TestValidationErrorIs(t *testing.T) {
	_, err := BuildRequest(Fields{From: testAddr, Value: "1", Token: "DAI"})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, KindMissingField, verr.Kind)
	assert.Equal(t, "network", verr.Field)
	assert.ErrorIs(t, err, &ValidationError{Kind: KindMissingField, Field: "network"})
	assert.NotErrorIs(t, err, &ValidationError{Kind: KindMissingField, Field: "from"})
	assert.False(t, strings.HasPrefix(err.Error(), "No"))
}

func TestParseDocument_BoundsAmount(t *testing.T) {
	doc := func(value string) []byte {
		return []byte(`{"version":"1.0.0","from":"` + testAddr + `","value":"` + value + `","tokenName":"ETH","network":"mainnet"}`)
	}

	tests := []struct {
		name  string
		value string
		want  *ValidationError
	}{
		{name: "huge exponent", value: "1e2000000", want: ErrInvalidAmount},
		{name: "upper case exponent", value: "5E3", want: ErrInvalidAmount},
		{name: "overlong digits", value: strings.Repeat("9", 101), want: ErrInvalidAmount},
		{name: "beyond uint256", value: strings.Repeat("9", 80), want: ErrInvalidAmount},
		{name: "sub wei", value: "0.0000000000000000009", want: ErrZeroAmount},
		{name: "one wei", value: "0.000000000000000001"},
		{name: "largest plain amount", value: strings.Repeat("9", 59)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDocument(doc(tt.value), "mainnet")
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				assert.Nil(t, d)
				return
			}
			require.NoError(t, err)
			assert.Positive(t, d.BaseUnits.Sign())
			assert.LessOrEqual(t, d.BaseUnits.BitLen(), 256)
		})
	}
}
