package lifecycle

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"woop-pay/pkg/execution"
	"woop-pay/pkg/registry"
	"woop-pay/pkg/request"
)

// PaymentState is where the payer is in settling a request
type PaymentState int

const (
	PaymentIdle PaymentState = iota
	PaymentFetching
	PaymentValid
	PaymentInvalid
	PaymentConnecting
	PaymentReady
	PaymentBlocked
	PaymentSubmitting
	PaymentConfirmed
	PaymentFailed
)

func (s PaymentState) String() string {
	switch s {
	case PaymentIdle:
		return "idle"
	case PaymentFetching:
		return "fetching"
	case PaymentValid:
		return "decoded"
	case PaymentInvalid:
		return "invalid"
	case PaymentConnecting:
		return "connecting"
	case PaymentReady:
		return "ready"
	case PaymentBlocked:
		return "blocked"
	case PaymentSubmitting:
		return "submitting"
	case PaymentConfirmed:
		return "confirmed"
	case PaymentFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Receipt is the outcome of a submitted payment
type Receipt struct {
	TxHash      string           `json:"tx_hash"`
	ExplorerURL string           `json:"explorer_url"`
	Network     string           `json:"network"`
	Status      execution.Status `json:"status"`
}

// Payment is one payer session over a decoded request
type Payment struct {
	sessionID string
	logger    *zap.Logger

	mu       sync.Mutex
	state    PaymentState
	decoded  *request.Decoded
	err      error
	guard    Guard
	receipt  *Receipt
	inFlight bool
}

// SessionID identifies this session in logs
func (p *Payment) SessionID() string {
	return p.sessionID
}

// State returns the current state
func (p *Payment) State() PaymentState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Decoded returns the decoded request, or nil when it was invalid
func (p *Payment) Decoded() *request.Decoded {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.decoded
}

// Err returns why the request could not be opened
func (p *Payment) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Guard returns the last network check
func (p *Payment) Guard() Guard {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.guard
}

// Receipt returns the last submission result
func (p *Payment) Receipt() *Receipt {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.receipt
}

func (p *Payment) setState(s PaymentState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *Payment) invalidate(err error) {
	p.mu.Lock()
	p.state = PaymentInvalid
	p.err = err
	p.mu.Unlock()
	p.logger.Debug("request invalid", zap.Error(err))
}

func (p *Payment) validate(decoded *request.Decoded) {
	p.mu.Lock()
	p.state = PaymentValid
	p.decoded = decoded
	p.mu.Unlock()
}

// UpdateConnection re-runs the network check for a new wallet state and
// moves the session to Connecting, Blocked or Ready. A submission in
// progress or a confirmed payment keeps its state.
func (p *Payment) UpdateConnection(conn ConnectionContext) Guard {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.decoded == nil {
		reason := "request is not loaded"
		if p.err != nil {
			reason = p.err.Error()
		}
		p.guard = Guard{Reason: reason}
		return p.guard
	}

	p.guard = CheckNetwork(p.decoded.Network, conn)

	switch p.state {
	case PaymentSubmitting, PaymentConfirmed:
		return p.guard
	}

	switch {
	case !conn.IsConnected:
		p.state = PaymentConnecting
	case !p.guard.Allowed:
		p.state = PaymentBlocked
	default:
		p.state = PaymentReady
	}

	p.logger.Debug("connection updated",
		zap.String("state", p.state.String()),
		zap.Int64("chain_id", conn.ChainID),
		zap.Bool("allowed", p.guard.Allowed))

	return p.guard
}

// Pay submits the transfer through exec and waits for it to be mined.
// Only one submission may be in flight, and only from Ready.
func (p *Payment) Pay(ctx context.Context, exec execution.Executor) (*Receipt, error) {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if p.state != PaymentReady {
		state := p.state
		p.mu.Unlock()
		p.logger.Debug("pay refused", zap.String("state", state.String()))
		return nil, ErrNotReady
	}
	p.inFlight = true
	p.state = PaymentSubmitting
	decoded := p.decoded
	p.mu.Unlock()

	receipt, err := p.submit(ctx, exec, decoded)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight = false
	p.receipt = receipt
	if err != nil {
		p.state = PaymentFailed
		p.logger.Warn("payment failed", zap.Error(err))
		return receipt, err
	}
	p.state = PaymentConfirmed
	p.logger.Info("payment confirmed", zap.String("tx_hash", receipt.TxHash))
	return receipt, nil
}

func (p *Payment) submit(ctx context.Context, exec execution.Executor, decoded *request.Decoded) (*Receipt, error) {
	req := decoded.Request

	var (
		prepared *execution.PreparedTx
		err      error
	)
	if decoded.IsNativeTransaction {
		prepared, err = exec.PrepareNativeTransfer(ctx, req.From, decoded.BaseUnits)
	} else {
		prepared, err = exec.PrepareTokenTransfer(ctx, req.TokenAddress, req.From, decoded.BaseUnits)
	}
	if err != nil {
		return nil, newExecutionError(err)
	}

	hash, err := exec.Submit(ctx, prepared)
	if err != nil {
		return nil, newExecutionError(err)
	}

	p.logger.Info("payment submitted",
		zap.String("tx_hash", hash),
		zap.String("token", req.TokenName),
		zap.String("network", decoded.Network))

	receipt := &Receipt{
		TxHash:      hash,
		ExplorerURL: registry.ResolveExplorerTxBase(decoded.Network) + hash,
		Network:     decoded.Network,
		Status:      execution.StatusPending,
	}

	status, err := exec.AwaitConfirmation(ctx, hash)
	receipt.Status = status
	if err != nil {
		return receipt, newExecutionError(err)
	}
	if status != execution.StatusSuccess {
		return receipt, &ExecutionError{Kind: ExecUnknown, Err: errors.New("transaction reverted")}
	}

	return receipt, nil
}
