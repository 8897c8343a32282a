// Package embedding turns text into fixed-size vectors for semantic search.
// The vector model is an opaque collaborator: callers only see Provider.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkoster/querylens/internal/config"
)

// Provider defines the interface for embedding providers
type Provider interface {
	// GenerateEmbedding generates an embedding for the given text
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// GetDimensions returns the dimensionality of embeddings produced by this provider
	GetDimensions() int

	// IsEnabled returns whether the provider is enabled and ready to use
	IsEnabled() bool

	// GetName returns the provider name for identification
	GetName() string
}

// Manager selects and wraps the configured provider
type Manager struct {
	config   config.EmbeddingConfig
	provider Provider
}

// NewManager creates a new embedding manager
func NewManager(cfg config.EmbeddingConfig) (*Manager, error) {
	manager := &Manager{config: cfg}

	if !cfg.Enabled {
		manager.provider = &DisabledProvider{}
		return manager, nil
	}

	var (
		provider Provider
		err      error
	)

	switch cfg.Provider {
	case "hash":
		provider, err = NewHashProvider(cfg.Dimensions)
	case "local":
		provider, err = NewLocalProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}

	if provider.GetDimensions() != cfg.Dimensions {
		return nil, fmt.Errorf("dimension mismatch: expected %d, got %d",
			cfg.Dimensions, provider.GetDimensions())
	}

	manager.provider = provider

	return manager, nil
}

// GenerateEmbedding generates an embedding using the configured provider
func (m *Manager) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if !m.provider.IsEnabled() {
		return nil, errors.New("embedding provider is disabled")
	}

	return m.provider.GenerateEmbedding(ctx, text)
}

// IsEnabled returns whether embeddings are enabled
func (m *Manager) IsEnabled() bool {
	return m.config.Enabled && m.provider.IsEnabled()
}

// GetDimensions returns the embedding dimensions
func (m *Manager) GetDimensions() int {
	return m.config.Dimensions
}

// GetName returns the active provider's name
func (m *Manager) GetName() string {
	return m.provider.GetName()
}

// DisabledProvider is a no-op provider for when embeddings are disabled
type DisabledProvider struct{}

func (p *DisabledProvider) GenerateEmbedding(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("embedding provider is disabled")
}

func (p *DisabledProvider) GetDimensions() int {
	return 0
}

func (p *DisabledProvider) IsEnabled() bool {
	return false
}

func (p *DisabledProvider) GetName() string {
	return "disabled"
}
