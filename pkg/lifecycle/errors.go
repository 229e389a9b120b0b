package lifecycle

import (
	"errors"
	"fmt"

	"woop-pay/pkg/execution"
	"woop-pay/pkg/storage"
)

var (
	// ErrSubmitInFlight is returned when Pay is called while a payment is being submitted
	ErrSubmitInFlight = errors.New("a payment is already being submitted")

	// ErrNotReady is returned when Pay is called before the guard allows it
	ErrNotReady = errors.New("payment is not ready to be submitted")
)

// PublishErrorKind classifies a failed publish
type PublishErrorKind string

const PublishStorageUnavailable PublishErrorKind = "storage_unavailable"

// PublishError reports that a built request could not be stored
type PublishError struct {
	Kind PublishErrorKind
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("failed to publish request: %v", e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// FetchErrorKind classifies a failed fetch
type FetchErrorKind string

const (
	FetchNotFound           FetchErrorKind = "not_found"
	FetchStorageUnavailable FetchErrorKind = "storage_unavailable"
)

// FetchError reports that a request document could not be retrieved
type FetchError struct {
	Kind FetchErrorKind
	ID   string
	Err  error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchNotFound {
		return fmt.Sprintf("request %s not found", e.ID)
	}
	return fmt.Sprintf("failed to fetch request %s: %v", e.ID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func newFetchError(id string, err error) *FetchError {
	kind := FetchStorageUnavailable
	if errors.Is(err, storage.ErrNotFound) {
		kind = FetchNotFound
	}
	return &FetchError{Kind: kind, ID: id, Err: err}
}

// ExecutionErrorKind classifies a failed payment
type ExecutionErrorKind string

const (
	ExecInsufficientFunds ExecutionErrorKind = "insufficient_funds"
	ExecNetworkMismatch   ExecutionErrorKind = "network_mismatch"
	ExecUserRejected      ExecutionErrorKind = "user_rejected"
	ExecUnknown           ExecutionErrorKind = "unknown"
)

// ExecutionError reports that a payment transaction did not go through
type ExecutionError struct {
	Kind ExecutionErrorKind
	Err  error
}

func (e *ExecutionError) Error() string {
	switch e.Kind {
	case ExecInsufficientFunds:
		return fmt.Sprintf("insufficient funds: %v", e.Err)
	case ExecNetworkMismatch:
		return fmt.Sprintf("network mismatch: %v", e.Err)
	case ExecUserRejected:
		return "transaction rejected"
	default:
		return fmt.Sprintf("payment failed: %v", e.Err)
	}
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func newExecutionError(err error) *ExecutionError {
	kind := ExecUnknown
	switch {
	case errors.Is(err, execution.ErrInsufficientFunds):
		kind = ExecInsufficientFunds
	case errors.Is(err, execution.ErrNetworkMismatch):
		kind = ExecNetworkMismatch
	case errors.Is(err, execution.ErrUserRejected):
		kind = ExecUserRejected
	}
	return &ExecutionError{Kind: kind, Err: err}
}
