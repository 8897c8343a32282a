package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/mkoster/querylens/internal/formatter"
)

var schemaJSON bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Discover and print the database schema",
	Long: `Connect to the configured database, discover tables, columns, keys, and
relationships, and print the annotated schema model.`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaJSON, "json", false, "Print the schema model as JSON")
}

func runSchema(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

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
	spin.Suffix = " Discovering schema..."
	spin.Start()

	session, err := newConnectedSession(ctx, cfg, logger)

	spin.Stop()

	if err != nil {
		return err
	}
	defer session.Close()

	model := session.Schema()

	if schemaJSON {
		data, err := json.MarshalIndent(model, "", "  ")
		if err != nil {
			return err
		}

		fmt.Println(string(data))

		return nil
	}

	fmt.Println(formatter.NewFormatter(formatter.FormatTable).FormatSchema(model))

	return nil
}
