package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoster/querylens/internal/config"
)

func TestHashProviderDeterministic(t *testing.T) {
	p, err := NewHashProvider(384)
	require.NoError(t, err)

	a, err := p.GenerateEmbedding(context.Background(), "python developer resume")
	require.NoError(t, err)

	b, err := p.GenerateEmbedding(context.Background(), "python developer resume")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 384)
}

func TestHashProviderDistinctTexts(t *testing.T) {
	p, err := NewHashProvider(64)
	require.NoError(t, err)

	a, err := p.GenerateEmbedding(context.Background(), "alpha")
	require.NoError(t, err)

	b, err := p.GenerateEmbedding(context.Background(), "beta")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHashProviderEmptyText(t *testing.T) {
	p, err := NewHashProvider(16)
	require.NoError(t, err)

	vec, err := p.GenerateEmbedding(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 16), vec)
}

func TestHashProviderInvalidDimensions(t *testing.T) {
	_, err := NewHashProvider(0)
	assert.Error(t, err)
}

func TestManagerDisabled(t *testing.T) {
	m, err := NewManager(config.EmbeddingConfig{Enabled: false})
	require.NoError(t, err)

	assert.False(t, m.IsEnabled())

	_, err = m.GenerateEmbedding(context.Background(), "anything")
	assert.Error(t, err)
}

func TestManagerHashProvider(t *testing.T) {
	m, err := NewManager(config.EmbeddingConfig{
		Provider:   "hash",
		Dimensions: 384,
		Enabled:    true,
	})
	require.NoError(t, err)

	assert.True(t, m.IsEnabled())
	assert.Equal(t, "hash", m.GetName())
	assert.Equal(t, 384, m.GetDimensions())

	vec, err := m.GenerateEmbedding(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 384)
}

func TestManagerUnknownProvider(t *testing.T) {
	_, err := NewManager(config.EmbeddingConfig{
		Provider:   "quantum",
		Dimensions: 8,
		Enabled:    true,
	})
	assert.Error(t, err)
}
