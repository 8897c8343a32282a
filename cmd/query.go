package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/mkoster/querylens/internal/errors"
	"github.com/mkoster/querylens/internal/formatter"
)

var queryNoCache bool

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Ask a natural language question",
	Long: `Translate a natural language question into SQL, run it against the
configured database, and print the results.

Examples:
  querylens query "How many employees do we have?"
  querylens query "Average salary by department"
  querylens query --no-cache "Who are the top 5 earners?"`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryNoCache, "no-cache", false, "Bypass the result cache")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	question := strings.TrimSpace(args[0])
	if question == "" {
		return errors.New(errors.ErrTypeValidation, "question must not be empty")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	spin.Suffix = " Connecting and discovering schema..."
	spin.Start()

	session, err := newConnectedSession(ctx, cfg, logger)

	spin.Stop()

	if err != nil {
		return err
	}
	defer session.Close()

	result, err := session.Query(ctx, question, !queryNoCache)
	if err != nil {
		return err
	}

	fmt.Println(formatter.NewFormatter(formatter.FormatTable).FormatResult(result))

	return nil
}
