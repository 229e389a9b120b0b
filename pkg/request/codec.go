// Package request builds, validates and decodes Woop payment requests.
package request

import (
	"encoding/json"
	"math/big"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"woop-pay/pkg/registry"
)

// ParamsMarker is the value of the create query parameter on parameterised links
const ParamsMarker = "params"

const (
	maxAmountLength = 100
	maxUnitBits     = 256
)

var validate = validator.New()

// BuildRequest validates form input and returns a request ready to publish.
// An empty amount is treated as zero.
func BuildRequest(f Fields) (*PaymentRequest, error) {
	return build(f, false)
}

// BuildFromQuery validates the query string of a parameterised link
// (?create=params&from=..&value=..&token=..&network=..). Every data field
// is required because the link is user-editable.
func BuildFromQuery(q url.Values) (*PaymentRequest, error) {
	if q.Get("create") != ParamsMarker {
		return nil, invalid(KindMalformedURL, "create", "wrong URL request format")
	}

	return build(Fields{
		From:    q.Get("from"),
		Value:   q.Get("value"),
		Token:   q.Get("token"),
		Network: q.Get("network"),
	}, true)
}

// ParseQuery builds a request from a parameterised link and normalises it for execution
func ParseQuery(q url.Values) (*Decoded, error) {
	req, err := BuildFromQuery(q)
	if err != nil {
		return nil, err
	}
	return decode(req, req.Network)
}

// ParseDocument decodes a fetched request document. Documents written without
// a network field are read against defaultNetwork.
func ParseDocument(data []byte, defaultNetwork string) (*Decoded, error) {
	var doc PaymentRequest
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, invalid(KindMalformedDocument, "", "request document is not valid JSON")
	}

	if strings.TrimSpace(doc.Version) == "" {
		return nil, invalid(KindMissingField, "version", "request has no version")
	}

	network := doc.Network
	if network == "" {
		network = defaultNetwork
	}

	req, err := build(Fields{
		From:    doc.From,
		Value:   doc.Value,
		Token:   doc.TokenName,
		Network: network,
	}, true)
	if err != nil {
		return nil, err
	}

	req.Version = doc.Version
	req.Network = doc.Network

	return decode(req, network)
}

// EncodeDocument serialises a request for publication
func EncodeDocument(req *PaymentRequest) ([]byte, error) {
	return json.Marshal(req)
}

// EncodeQuery returns the query string of a parameterised link for req
func EncodeQuery(req *PaymentRequest, network string) url.Values {
	if req.Network != "" {
		network = req.Network
	}

	q := url.Values{}
	q.Set("create", ParamsMarker)
	q.Set("from", req.From)
	q.Set("value", req.Value)
	q.Set("token", req.TokenName)
	q.Set("network", network)
	return q
}

// build runs the checks in order and stops at the first failure.
// requireValue makes an absent amount a missing field instead of a zero amount.
func build(f Fields, requireValue bool) (*PaymentRequest, error) {
	from := strings.TrimSpace(f.From)
	value := strings.TrimSpace(f.Value)
	token := strings.TrimSpace(f.Token)
	network := strings.TrimSpace(f.Network)

	if (value == "" && !requireValue) || isZero(value) {
		return nil, invalid(KindZeroAmount, "value", "you can't create a payment request with value 0")
	}

	if token == "" {
		return nil, invalid(KindMissingField, "token", "no token entered")
	}
	if !registry.IsKnownToken(token) {
		return nil, invalid(KindUnknownToken, "token", "the token entered does not exist")
	}

	if from == "" {
		return nil, invalid(KindMissingField, "from", "no wallet address entered")
	}
	if value == "" {
		return nil, invalid(KindMissingField, "value", "no amount entered")
	}
	if network == "" {
		return nil, invalid(KindMissingField, "network", "no network entered")
	}

	amount, verr := parseAmount(value)
	if verr != nil {
		return nil, verr
	}
	if err := checkUnits(amount, token); err != nil {
		return nil, err
	}

	if err := validate.Var(from, "len=42"); err != nil {
		return nil, invalid(KindInvalidAddress, "from", "the wallet address entered is not correct")
	}

	if !registry.IsKnownNetwork(network) {
		return nil, invalid(KindUnknownNetwork, "network", "the network entered does not exist")
	}

	tokenAddress, err := registry.ResolveTokenAddress(token, network)
	if err != nil {
		return nil, invalid(KindUnknownToken, "token", "the token entered is not available on "+network)
	}
	if registry.IsNativeToken(token) {
		tokenAddress = ""
	}

	req := &PaymentRequest{
		Version:      Version,
		From:         from,
		Value:        value,
		TokenName:    token,
		TokenAddress: tokenAddress,
		Network:      network,
	}

	if err := validate.Struct(req); err != nil {
		return nil, invalid(KindMalformedDocument, "", "request failed validation: "+err.Error())
	}

	return req, nil
}

// decode applies the one-time decimal rescale and derives the execution path
func decode(req *PaymentRequest, network string) (*Decoded, error) {
	amount, err := decimal.NewFromString(req.Value)
	if err != nil {
		return nil, invalid(KindInvalidAmount, "value", "the amount entered is not a valid number")
	}

	execAmount := Rescale(amount, req.TokenName)

	return &Decoded{
		Request:             *req,
		Network:             network,
		ExecutionAmount:     execAmount,
		BaseUnits:           ToBaseUnits(execAmount),
		IsNativeTransaction: registry.IsNativeToken(req.TokenName),
	}, nil
}

// Rescale converts a display amount of token into 18-decimal execution units:
// value / 10^(18 - decimals). Tokens already at 18 decimals are returned unchanged.
func Rescale(amount decimal.Decimal, token string) decimal.Decimal {
	decimals, ok := registry.ResolveTokenDecimals(token)
	if !ok || decimals == registry.DefaultDecimals {
		return amount
	}
	return amount.Shift(int32(decimals - registry.DefaultDecimals))
}

// ToBaseUnits converts an 18-decimal amount into integer base units,
// truncating anything below one unit.
func ToBaseUnits(amount decimal.Decimal) *big.Int {
	return amount.Shift(registry.DefaultDecimals).BigInt()
}

// parseAmount accepts plain decimal notation only. Exponents and overlong
// strings are refused before any scaling is done.
func parseAmount(value string) (decimal.Decimal, *ValidationError) {
	if len(value) > maxAmountLength || strings.ContainsAny(value, "eE") {
		return decimal.Decimal{}, invalid(KindInvalidAmount, "value", "the amount entered is not a valid number")
	}

	amount, err := decimal.NewFromString(value)
	if err != nil || amount.IsNegative() {
		return decimal.Decimal{}, invalid(KindInvalidAmount, "value", "the amount entered is not a valid number")
	}
	return amount, nil
}

// checkUnits rejects amounts that are not a whole, non-zero number of base
// units or that do not fit a uint256 transfer.
func checkUnits(amount decimal.Decimal, token string) *ValidationError {
	units := Rescale(amount, token).Shift(registry.DefaultDecimals)

	if units.Truncate(0).IsZero() {
		return invalid(KindZeroAmount, "value", "the amount entered is smaller than the smallest unit of "+token)
	}
	if !units.Equal(units.Truncate(0)) {
		return invalid(KindInvalidAmount, "value", "the amount entered has more decimal places than "+token+" supports")
	}
	if units.BigInt().BitLen() > maxUnitBits {
		return invalid(KindInvalidAmount, "value", "the amount entered is too large")
	}
	return nil
}

func isZero(value string) bool {
	d, err := decimal.NewFromString(value)
	return err == nil && d.IsZero()
}
