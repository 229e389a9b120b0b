package request

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Version is stamped on every request document we publish
const Version = "1.0.0"

// PaymentRequest is the immutable document shared between requester and payer
type PaymentRequest struct {
	Version      string `json:"version" validate:"required"`
	From         string `json:"from" validate:"required,len=42"`
	Value        string `json:"value" validate:"required"`
	TokenName    string `json:"tokenName" validate:"required"`
	TokenAddress string `json:"tokenAddress,omitempty" validate:"omitempty,len=42"`
	Network      string `json:"network,omitempty"`
}

// Fields holds the raw user-entered values a request is built from
type Fields struct {
	From    string
	Value   string
	Token   string
	Network string
}

// Decoded is a validated request normalised for execution
type Decoded struct {
	Request PaymentRequest

	// Network is the effective network, which for legacy documents
	// without a network field is the decoder's default.
	Network string

	// ExecutionAmount is Value rescaled into 18-decimal units.
	ExecutionAmount decimal.Decimal

	// BaseUnits is ExecutionAmount in wei-style integer units.
	BaseUnits *big.Int

	IsNativeTransaction bool
}
