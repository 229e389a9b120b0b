package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
)

const (
	DefaultStoreFileName = ".woop-requests.json"
)

// LocalStore keeps documents in a JSON file keyed by the keccak-256 hash of their bytes.
// Documents are stored as strings so fetched bytes match published bytes exactly.
type LocalStore struct {
	filePath  string
	mu        sync.RWMutex
	documents map[string]string
}

// localFile represents the JSON structure on disk
type localFile struct {
	Documents map[string]string `json:"documents"`
}

// NewLocalStore opens the store at filePath, defaulting to the home directory
func NewLocalStore(filePath string) (*LocalStore, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStoreFileName)
	}

	store := &LocalStore{
		filePath:  filePath,
		documents: make(map[string]string),
	}

	if err := store.load(); err != nil {
		// A missing file is created on first publish
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load documents: %w", err)
		}
	}

	return store, nil
}

func (s *LocalStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var f localFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to unmarshal documents: %w", err)
	}

	s.documents = f.Documents
	if s.documents == nil {
		s.documents = make(map[string]string)
	}

	return nil
}

// save writes the index through a temp file and rename. Callers hold the lock.
func (s *LocalStore) save() error {
	data, err := json.MarshalIndent(localFile{Documents: s.documents}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal documents: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write documents: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// ContentID returns the id a document is stored under
func ContentID(data []byte) string {
	return crypto.Keccak256Hash(data).Hex()
}

// Publish stores data and returns its content id. Publishing the same bytes
// twice returns the same id.
func (s *LocalStore) Publish(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !json.Valid(data) {
		return "", fmt.Errorf("document is not valid JSON")
	}

	id := ContentID(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.documents[id]; exists {
		return id, nil
	}

	s.documents[id] = string(data)
	if err := s.save(); err != nil {
		delete(s.documents, id)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return id, nil
}

// Fetch returns the document stored under id
func (s *LocalStore) Fetch(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.documents[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return []byte(doc), nil
}

// Count returns the number of stored documents
func (s *LocalStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.documents)
}
