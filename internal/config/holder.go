package config

import (
	"fmt"
	"sync"
)

// Holder owns the active Config and swaps it on Reload. Readers always see a
// complete, validated Config.
type Holder struct {
	mu   sync.RWMutex
	cfg  *Config
	path string
	cli  CLIFlags
}

// NewHolder wraps an already loaded Config. path is the YAML file Reload
// reads.
func NewHolder(cfg *Config, path string) *Holder {
	return &Holder{cfg: cfg, path: path}
}

// WithCLI makes every Reload re-apply the given command-line overrides.
func (h *Holder) WithCLI(f CLIFlags) *Holder {
	h.cli = f
	return h
}

// Get returns the active Config. Callers must not modify it.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// Path returns the YAML file backing the holder.
func (h *Holder) Path() string {
	return h.path
}

// Reload re-reads the YAML file, environment and CLI overrides. On any error the previous
// Config stays active.
func (h *Holder) Reload() error {
	cfg, err := load(h.path, h.cli)
	if err != nil {
		return fmt.Errorf("reload %s: %w", h.path, err)
	}
	h.mu.Lock()
	h.cfg = cfg
	h.mu.Unlock()
	return nil
}
