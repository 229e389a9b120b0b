package execution

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"woop-pay/config"
	"woop-pay/pkg/registry"
)

// Manager hands out one executor per configured network
type Manager struct {
	config config.EVMConfig
	logger *zap.Logger

	mu        sync.Mutex
	executors map[string]*EVMExecutor
}

// NewManager creates a new execution manager
func NewManager(cfg config.EVMConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		config:    cfg,
		logger:    logger,
		executors: make(map[string]*EVMExecutor),
	}
}

// IsConfigured reports whether network has an RPC endpoint and key
func (m *Manager) IsConfigured(network string) bool {
	n, ok := m.config.Networks[network]
	return ok && n.RPCUrl != "" && n.PrivateKey != ""
}

// Networks returns the configured networks in sorted order
func (m *Manager) Networks() []string {
	names := make([]string, 0, len(m.config.Networks))
	for name := range m.config.Networks {
		if registry.IsKnownNetwork(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Executor returns the executor for network, connecting on first use
func (m *Manager) Executor(network string) (*EVMExecutor, error) {
	if !registry.IsKnownNetwork(network) {
		return nil, fmt.Errorf("network %s is not supported", network)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if exec, ok := m.executors[network]; ok {
		return exec, nil
	}

	exec, err := NewEVMExecutor(m.config, network, m.logger)
	if err != nil {
		return nil, err
	}

	m.executors[network] = exec
	return exec, nil
}

// Close closes every open client
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, exec := range m.executors {
		exec.Close()
		delete(m.executors, name)
	}
}
