package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MaxDocumentSize caps how much of a gateway response is read
const MaxDocumentSize = 64 << 10

// IPFSConfig holds the endpoints and credentials of an IPFS provider
type IPFSConfig struct {
	APIURL        string
	GatewayURL    string
	ProjectID     string
	ProjectSecret string
	Timeout       time.Duration
}

// IPFSStore publishes through the IPFS HTTP API and fetches through a gateway
type IPFSStore struct {
	config IPFSConfig
	client *http.Client
	logger *zap.Logger
}

// addResponse is the body returned by /api/v0/add
type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// NewIPFSStore creates a store for the given provider
func NewIPFSStore(cfg IPFSConfig, logger *zap.Logger) (*IPFSStore, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("IPFS API URL not configured")
	}
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("IPFS gateway URL not configured")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.GatewayURL = strings.TrimRight(cfg.GatewayURL, "/")

	return &IPFSStore{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// Publish uploads data and returns its CID
func (s *IPFSStore) Publish(ctx context.Context, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "request.json")
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIURL+"/api/v0/add", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	// Infura-style project credentials
	if s.config.ProjectID != "" && s.config.ProjectSecret != "" {
		req.SetBasicAuth(s.config.ProjectID, s.config.ProjectSecret)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("ipfs add rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)))
		return "", fmt.Errorf("%w: add returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var added addResponse
	if err := json.Unmarshal(respBody, &added); err != nil {
		return "", fmt.Errorf("%w: failed to parse response: %v", ErrUnavailable, err)
	}
	if added.Hash == "" {
		return "", fmt.Errorf("%w: add returned no hash", ErrUnavailable)
	}

	s.logger.Debug("published document", zap.String("cid", added.Hash), zap.String("size", added.Size))

	return added.Hash, nil
}

// Fetch retrieves the document for cid through the gateway
func (s *IPFSStore) Fetch(ctx context.Context, cid string) ([]byte, error) {
	if cid == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.GatewayURL+"/ipfs/"+url.PathEscape(cid), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, cid)
	default:
		return nil, fmt.Errorf("%w: gateway returned status %d", ErrUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}
	if len(data) > MaxDocumentSize {
		return nil, fmt.Errorf("%w: document %s exceeds %d bytes", ErrUnavailable, cid, MaxDocumentSize)
	}

	return data, nil
}
