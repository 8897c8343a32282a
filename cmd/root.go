// Package cmd implements the querylens command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkoster/querylens/internal/config"
	"github.com/mkoster/querylens/internal/errors"
	"github.com/mkoster/querylens/internal/logging"
	"github.com/mkoster/querylens/internal/service"
)

var (
	flagDatabase string
	flagLogLevel string
	flagCacheTTL int
)

var rootCmd = &cobra.Command{
	Use:   "querylens",
	Short: "Query relational databases and documents in natural language",
	Long: `querylens connects to a relational database, discovers its schema, and
translates natural language questions into SQL. Uploaded documents (resumes,
contracts, reviews) are chunked and embedded so hybrid questions can combine
database rows with document matches.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		return err
	}

	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDatabase, "database", "",
		"Database connection string (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().IntVar(&flagCacheTTL, "cache-ttl", 0,
		"Result cache TTL in seconds")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig merges the config file, environment, and persistent flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithOverrides(map[string]interface{}{
		"database":  flagDatabase,
		"log-level": flagLogLevel,
		"cache-ttl": flagCacheTTL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeConfig, "failed to load configuration")
	}

	cfg.ExpandAllPaths()

	return cfg, nil
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeConfig, "failed to initialize logging")
	}

	return logger, nil
}

// newConnectedSession builds a session and connects it to the configured
// database. The caller owns the returned session.
func newConnectedSession(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*service.Session, error) {
	if cfg.Database.ConnectionString == "" {
		return nil, errors.New(errors.ErrTypeConfig, "no database configured").
			WithSuggestion("Pass --database or set QUERYLENS_DB_CONNECTION_STRING")
	}

	session, err := service.NewSession(cfg, logger)
	if err != nil {
		return nil, err
	}

	if _, err := session.Connect(ctx, cfg.Database.ConnectionString); err != nil {
		_ = session.Close()
		return nil, err
	}

	return session, nil
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var appErr *errors.Error
	if errors.AsError(err, &appErr) {
		for _, suggestion := range appErr.Suggestions {
			fmt.Fprintf(os.Stderr, "  hint: %s\n", suggestion)
		}
	}
}
