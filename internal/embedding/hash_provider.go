package embedding

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/binary"
	"fmt"
	"math/rand"
)

// HashProvider produces deterministic pseudo-embeddings seeded from a content
// hash. Identical text always maps to the identical vector, which is enough
// for relative similarity ranking without a real model. Not semantically
// meaningful: two paraphrases of the same idea get unrelated vectors.
type HashProvider struct {
	dimensions int
}

// NewHashProvider creates a deterministic hash-seeded provider
func NewHashProvider(dimensions int) (*HashProvider, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("invalid embedding dimensions: %d", dimensions)
	}

	return &HashProvider{dimensions: dimensions}, nil
}

// GenerateEmbedding derives a vector from the text's MD5 digest: the digest
// seeds a PRNG whose normal samples fill the vector.
func (p *HashProvider) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return make([]float32, p.dimensions), nil
	}

	digest := md5.Sum([]byte(text)) //nolint:gosec
	seed := int64(binary.BigEndian.Uint64(digest[:8]))

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // determinism is the point

	vector := make([]float32, p.dimensions)
	for i := range vector {
		vector[i] = float32(rng.NormFloat64())
	}

	return vector, nil
}

func (p *HashProvider) GetDimensions() int {
	return p.dimensions
}

func (p *HashProvider) IsEnabled() bool {
	return true
}

func (p *HashProvider) GetName() string {
	return "hash"
}
