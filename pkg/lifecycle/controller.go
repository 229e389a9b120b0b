// Package lifecycle drives a payment request from creation through
// publication, retrieval and settlement.
package lifecycle

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"woop-pay/pkg/request"
	"woop-pay/pkg/storage"
)

// CreatorState is where the requester is in building a request
type CreatorState int

const (
	CreatorIdle CreatorState = iota
	CreatorBuilding
	CreatorPublished
)

func (s CreatorState) String() string {
	switch s {
	case CreatorIdle:
		return "idle"
	case CreatorBuilding:
		return "building"
	case CreatorPublished:
		return "published"
	default:
		return "unknown"
	}
}

const (
	DefaultBaseURL = "https://web3-pay-alpha.vercel.app/woop/"
	DefaultNetwork = "mainnet"
)

// CreateInput is what the requester enters
type CreateInput struct {
	Value   string
	Token   string
	Network string
}

// Published is a stored request and the link to share
type Published struct {
	ID      string
	Link    string
	Network string
	Request *request.PaymentRequest
}

// Controller creates requests and opens them for payment
type Controller struct {
	store          storage.Store
	logger         *zap.Logger
	baseURL        string
	defaultNetwork string
	multiNetwork   bool

	mu    sync.Mutex
	state CreatorState
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBaseURL sets the prefix request ids are appended to
func WithBaseURL(baseURL string) Option {
	return func(c *Controller) {
		if baseURL == "" {
			return
		}
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		c.baseURL = baseURL
	}
}

// WithDefaultNetwork sets the network used for documents without one
func WithDefaultNetwork(network string) Option {
	return func(c *Controller) {
		if network != "" {
			c.defaultNetwork = network
		}
	}
}

// WithMultiNetwork controls whether published documents carry a network.
// When disabled every request is created on the default network.
func WithMultiNetwork(enabled bool) Option {
	return func(c *Controller) {
		c.multiNetwork = enabled
	}
}

// New creates a controller publishing to and fetching from store
func New(store storage.Store, opts ...Option) *Controller {
	c := &Controller{
		store:          store,
		logger:         zap.NewNop(),
		baseURL:        DefaultBaseURL,
		defaultNetwork: DefaultNetwork,
		multiNetwork:   true,
		state:          CreatorIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the creator state
func (c *Controller) State() CreatorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reset returns the creator to Idle so another request can be made
func (c *Controller) Reset() {
	c.mu.Lock()
	c.state = CreatorIdle
	c.mu.Unlock()
}

// Create validates input, publishes the request and returns its link.
// The wallet address becomes the recipient. A validation failure never
// reaches storage, and a storage failure is not retried.
func (c *Controller) Create(ctx context.Context, in CreateInput, conn ConnectionContext) (*Published, error) {
	c.mu.Lock()
	c.state = CreatorBuilding
	c.mu.Unlock()

	network := c.resolveCreateNetwork(in, conn)

	req, err := request.BuildRequest(request.Fields{
		From:    conn.Address,
		Value:   in.Value,
		Token:   in.Token,
		Network: network,
	})
	if err != nil {
		c.logger.Debug("request rejected", zap.Error(err))
		c.Reset()
		return nil, err
	}

	if !c.multiNetwork {
		req.Network = ""
	}

	data, err := request.EncodeDocument(req)
	if err != nil {
		c.Reset()
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	id, err := c.store.Publish(ctx, data)
	if err != nil {
		c.logger.Warn("publish failed", zap.Error(err))
		return nil, &PublishError{Kind: PublishStorageUnavailable, Err: err}
	}

	c.mu.Lock()
	c.state = CreatorPublished
	c.mu.Unlock()

	c.logger.Info("request published",
		zap.String("id", id),
		zap.String("token", req.TokenName),
		zap.String("network", network),
		zap.String("value", req.Value))

	return &Published{
		ID:      id,
		Link:    c.baseURL + id,
		Network: network,
		Request: req,
	}, nil
}

func (c *Controller) resolveCreateNetwork(in CreateInput, conn ConnectionContext) string {
	if !c.multiNetwork {
		return c.defaultNetwork
	}
	if in.Network != "" {
		return in.Network
	}
	if network, ok := conn.Network(); ok {
		return network
	}
	return ""
}

// ParamsLink builds the editable query-string link for req
func (c *Controller) ParamsLink(req *request.PaymentRequest) string {
	q := request.EncodeQuery(req, c.defaultNetwork)
	q.Del("create")
	return c.appURL() + "create/" + request.ParamsMarker + "?" + q.Encode()
}

// appURL is the site root that the /woop/ base URL hangs off
func (c *Controller) appURL() string {
	return strings.TrimSuffix(c.baseURL, "woop/")
}

// Link returns the shareable link for a published id
func (c *Controller) Link(id string) string {
	return c.baseURL + id
}

// Open fetches and decodes the request stored under id
func (c *Controller) Open(ctx context.Context, id string) *Payment {
	p := c.newPayment()
	p.setState(PaymentFetching)

	data, err := c.store.Fetch(ctx, id)
	if err != nil {
		p.invalidate(newFetchError(id, err))
		return p
	}

	decoded, err := request.ParseDocument(data, c.defaultNetwork)
	if err != nil {
		p.invalidate(err)
		return p
	}

	p.validate(decoded)
	p.logger.Debug("request opened", zap.String("id", id))
	return p
}

// OpenQuery decodes a parameterised link's query string
func (c *Controller) OpenQuery(q url.Values) *Payment {
	p := c.newPayment()

	decoded, err := request.ParseQuery(q)
	if err != nil {
		p.invalidate(err)
		return p
	}

	p.validate(decoded)
	return p
}

// OpenLink accepts a request id, a /woop/<id> link or a create/params link
func (c *Controller) OpenLink(ctx context.Context, link string) *Payment {
	id, q, err := ParseLink(link)
	if err != nil {
		p := c.newPayment()
		p.invalidate(err)
		return p
	}
	if q != nil {
		return c.OpenQuery(q)
	}
	return c.Open(ctx, id)
}

func (c *Controller) newPayment() *Payment {
	sessionID := uuid.New().String()
	return &Payment{
		sessionID: sessionID,
		state:     PaymentIdle,
		logger:    c.logger.With(zap.String("session_id", sessionID)),
	}
}

// ParseLink splits a link into either a stored request id or a query string
func ParseLink(link string) (string, url.Values, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", nil, &request.ValidationError{Kind: request.KindMalformedURL, Field: "link", Reason: "no request link entered"}
	}

	if !strings.Contains(link, "/") && !strings.Contains(link, "?") {
		return link, nil, nil
	}

	u, err := url.Parse(link)
	if err != nil {
		return "", nil, &request.ValidationError{Kind: request.KindMalformedURL, Field: "link", Reason: "wrong URL request format"}
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		switch segments[i] {
		case "woop", "request":
			if segments[i+1] != "" {
				return segments[i+1], nil, nil
			}
		case "create":
			q := u.Query()
			q.Set("create", segments[i+1])
			return "", q, nil
		}
	}

	return "", nil, &request.ValidationError{Kind: request.KindMalformedURL, Field: "link", Reason: "wrong URL request format"}
}
