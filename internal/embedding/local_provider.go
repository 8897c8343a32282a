package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/mkoster/querylens/internal/config"
)

const localEmbedTimeout = 60 * time.Second

// LocalProvider generates real embeddings by invoking a Python
// sentence-transformers script. Requires python3 and the script on disk;
// construction fails otherwise so callers fall back to the hash provider
// explicitly rather than silently.
type LocalProvider struct {
	config     config.EmbeddingConfig
	pythonPath string
	scriptPath string
	timeout    time.Duration
}

// embeddingResult is the JSON payload emitted by embed.py
type embeddingResult struct {
	Embeddings [][]float64 `json:"embeddings"`
	Model      string      `json:"model"`
	Dimension  int         `json:"dimension"`
	Count      int         `json:"count"`
}

// NewLocalProvider creates a local Python-backed embedding provider
func NewLocalProvider(cfg config.EmbeddingConfig) (*LocalProvider, error) {
	pythonPath, err := exec.LookPath("python3")
	if err != nil {
		pythonPath, err = exec.LookPath("python")
		if err != nil {
			return nil, fmt.Errorf("python not found in PATH: %w", err)
		}
	}

	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return nil, fmt.Errorf("failed to determine script path")
	}

	projectRoot := filepath.Join(filepath.Dir(currentFile), "..", "..")
	scriptPath := filepath.Join(projectRoot, "scripts", "embed.py")

	return &LocalProvider{
		config:     cfg,
		pythonPath: pythonPath,
		scriptPath: scriptPath,
		timeout:    localEmbedTimeout,
	}, nil
}

// GenerateEmbedding generates an embedding for the given text
func (p *LocalProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return make([]float32, p.config.Dimensions), nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	inputJSON, err := json.Marshal([]string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.pythonPath, p.scriptPath,
		"--model", p.config.Model, "--stdin")
	cmd.Stdin = bytes.NewReader(inputJSON)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("embedding generation timeout after %v", p.timeout)
		}

		return nil, fmt.Errorf("embedding generation failed: %w (stderr: %s)", err, stderr.String())
	}

	var result embeddingResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse embedding result: %w", err)
	}

	if len(result.Embeddings) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(result.Embeddings))
	}

	vector := make([]float32, len(result.Embeddings[0]))
	for i, v := range result.Embeddings[0] {
		vector[i] = float32(v)
	}

	return vector, nil
}

func (p *LocalProvider) GetDimensions() int {
	return p.config.Dimensions
}

// IsEnabled reports whether the Python interpreter and script are reachable
func (p *LocalProvider) IsEnabled() bool {
	if p.pythonPath == "" || p.scriptPath == "" {
		return false
	}

	cmd := exec.Command(p.pythonPath, "--version")

	return cmd.Run() == nil
}

func (p *LocalProvider) GetName() string {
	return "local"
}
