package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunIngestPlainText(t *testing.T) {
	// Point at a nonexistent config file so host configuration cannot leak in.
	t.Setenv("QUERYLENS_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	t.Setenv("QUERYLENS_LOG_LEVEL", "error")

	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path,
		[]byte("Quarterly review notes. Strong performance across the team."), 0o600))

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	assert.NoError(t, runIngest(cmd, []string{path}))
}

func TestRunIngestMissingFile(t *testing.T) {
	t.Setenv("QUERYLENS_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	t.Setenv("QUERYLENS_LOG_LEVEL", "error")

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	assert.Error(t, runIngest(cmd, []string{filepath.Join(t.TempDir(), "nope.pdf")}))
}
