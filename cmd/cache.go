package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkoster/querylens/internal/cache"
	"github.com/mkoster/querylens/internal/formatter"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the result cache configuration",
	Long: `Show the result cache settings that a session would start with. Live hit
and miss counters are exposed by the running server at GET /api/metrics.`,
	Args: cobra.NoArgs,
	RunE: runCache,
}

func runCache(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	stats := cache.New(cfg.CacheTTL(), cfg.Cache.MaxSize).Statistics()

	fmt.Println(formatter.NewFormatter(formatter.FormatTable).FormatCacheStats(stats))

	return nil
}
