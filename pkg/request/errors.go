package request

// Kind classifies why a request failed validation
type Kind string

const (
	KindMalformedURL      Kind = "malformed_url"
	KindMalformedDocument Kind = "malformed_document"
	KindMissingField      Kind = "missing_field"
	KindInvalidAddress    Kind = "invalid_address"
	KindInvalidAmount     Kind = "invalid_amount"
	KindUnknownToken      Kind = "unknown_token"
	KindUnknownNetwork    Kind = "unknown_network"
	KindZeroAmount        Kind = "zero_amount"
)

// ValidationError is returned for every request that cannot be built or decoded.
// Reason is meant to be shown to the user as-is.
type ValidationError struct {
	Kind   Kind
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Is matches sentinel errors by kind so callers can use errors.Is(err, ErrZeroAmount).
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Field == "" || t.Field == e.Field)
}

// Sentinels for errors.Is checks
var (
	ErrMalformedURL      = &ValidationError{Kind: KindMalformedURL, Reason: "malformed url"}
	ErrMalformedDocument = &ValidationError{Kind: KindMalformedDocument, Reason: "malformed document"}
	ErrMissingField      = &ValidationError{Kind: KindMissingField, Reason: "missing field"}
	ErrInvalidAddress    = &ValidationError{Kind: KindInvalidAddress, Reason: "invalid address"}
	ErrInvalidAmount     = &ValidationError{Kind: KindInvalidAmount, Reason: "invalid amount"}
	ErrUnknownToken      = &ValidationError{Kind: KindUnknownToken, Reason: "unknown token"}
	ErrUnknownNetwork    = &ValidationError{Kind: KindUnknownNetwork, Reason: "unknown network"}
	ErrZeroAmount        = &ValidationError{Kind: KindZeroAmount, Reason: "zero amount"}
)

func invalid(kind Kind, field, reason string) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Reason: reason}
}
