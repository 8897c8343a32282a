package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkoster/querylens/internal/document"
	"github.com/mkoster/querylens/internal/errors"
	"github.com/mkoster/querylens/internal/service"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Ingest documents for semantic search",
	Long: `Extract text from the given files, chunk and embed them, and report the
resulting corpus statistics. Supported formats: PDF, DOCX, CSV, and plain text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
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

	session, err := service.NewSession(cfg, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	maxBytes := int64(cfg.Documents.MaxFileSizeMB) << 20

	var failed int

	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return errors.Wrapf(err, errors.ErrTypeFileSystem, "cannot access %s", path)
		}

		if info.Size() > maxBytes {
			fmt.Fprintf(os.Stderr, "Skipping %s: exceeds %dMB limit\n",
				path, cfg.Documents.MaxFileSizeMB)

			failed++

			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, errors.ErrTypeFileSystem, "cannot read %s", path)
		}

		doc, err := session.Documents().Add(ctx, info.Name(), content, document.ContentTypeForFile(path))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to ingest %s: %v\n", path, err)

			failed++

			continue
		}

		fmt.Printf("Ingested %s (%s, %d chunks)\n", doc.Filename, doc.DocType, doc.NumChunks)
	}

	stats := session.Documents().Stats()
	fmt.Printf("\nCorpus: %d documents, %d chunks\n", stats.TotalDocuments, stats.TotalChunks)

	if failed > 0 {
		return errors.Newf(errors.ErrTypeDocument, "%d of %d files failed to ingest", failed, len(args))
	}

	return nil
}
