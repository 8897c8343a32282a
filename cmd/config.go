package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display the active configuration",
	Long: `Show the merged configuration from the config file, environment variables,
and command-line flags.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Println("Active Configuration:")

	fmt.Println("\nDatabase:")
	fmt.Printf("  Connection String: %s\n", redact(cfg.Database.ConnectionString))
	fmt.Printf("  Max Connections:   %d\n", cfg.Database.MaxConnections)
	fmt.Printf("  Query Timeout:     %s\n", cfg.Database.QueryTimeout)

	fmt.Println("\nCache:")
	fmt.Printf("  TTL:      %ds\n", cfg.Cache.TTLSeconds)
	fmt.Printf("  Max Size: %d entries\n", cfg.Cache.MaxSize)
	fmt.Printf("  Cleanup:  %s\n", cfg.Cache.CleanupFreq)

	fmt.Println("\nDocuments:")
	fmt.Printf("  Max File Size: %d MB\n", cfg.Documents.MaxFileSizeMB)
	fmt.Printf("  Chunk Size:    %d words\n", cfg.Documents.ChunkSize)
	fmt.Printf("  Chunk Overlap: %d words\n", cfg.Documents.ChunkOverlap)
	fmt.Printf("  Search Top K:  %d\n", cfg.Documents.SearchTopK)

	fmt.Println("\nEmbedding:")
	fmt.Printf("  Provider:   %s\n", cfg.Embedding.Provider)
	fmt.Printf("  Model:      %s\n", cfg.Embedding.Model)
	fmt.Printf("  Dimensions: %d\n", cfg.Embedding.Dimensions)
	fmt.Printf("  Enabled:    %t\n", cfg.Embedding.Enabled)

	fmt.Println("\nServer:")
	fmt.Printf("  Address: %s:%d\n", cfg.Server.Host, cfg.Server.Port)

	fmt.Println("\nLogging:")
	fmt.Printf("  Level:  %s\n", cfg.Logging.Level)
	fmt.Printf("  Format: %s\n", cfg.Logging.Format)
	fmt.Printf("  Output: %s\n", cfg.Logging.Output)

	if cfg.Logging.Level == "debug" {
		fmt.Println("\nRaw Configuration (JSON):")

		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}

		fmt.Println(string(data))
	}

	return nil
}

// redact hides credentials embedded in connection strings
func redact(connectionString string) string {
	if connectionString == "" {
		return "(not set)"
	}

	redacted := connectionString
	if at := strings.IndexByte(redacted, '@'); at >= 0 {
		if scheme := strings.IndexByte(redacted, ':'); scheme >= 0 && scheme < at {
			redacted = redacted[:scheme] + "://***" + redacted[at:]
		}
	}

	return redacted
}
