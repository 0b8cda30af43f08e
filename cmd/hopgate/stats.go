package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/artpar/hopgate/adapters/sqlite"
	"github.com/artpar/hopgate/config"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the most-resolved keywords",
	Long: `Show the most-resolved keywords from the hit log.

Requires the hit log to be enabled in the configuration:

  database:
    enabled: true

Examples:
  hopgate stats
  hopgate stats --limit=50`,
	RunE: runStats,
}

var statsLimit int

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().IntVar(&statsLimit, "limit", 20, "number of keywords to show")
}

func runStats(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	if db == nil {
		return nil
	}
	defer db.Close()

	store := sqlite.NewHitStore(db)
	top, err := store.TopKeywords(context.Background(), statsLimit)
	if err != nil {
		return fmt.Errorf("failed to read hit log: %w", err)
	}

	if len(top) == 0 {
		fmt.Println("No hits recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEYWORD\tHITS")
	fmt.Fprintln(w, "-------\t----")
	for _, kc := range top {
		fmt.Fprintf(w, "%s\t%d\n", kc.Keyword, kc.Count)
	}
	w.Flush()
	return nil
}

// openDatabase opens the hit log database from the configuration.
// Returns nil without error when the hit log is disabled or absent.
func openDatabase() (*sqlite.DB, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.Database.Enabled {
		fmt.Println("Hit logging is disabled.")
		fmt.Println()
		fmt.Println("Enable it in the config to collect stats:")
		fmt.Println("  database:")
		fmt.Println("    enabled: true")
		return nil, nil
	}
	if _, err := os.Stat(cfg.Database.Path); os.IsNotExist(err) {
		fmt.Printf("No hit log found at %s.\n", cfg.Database.Path)
		return nil, nil
	}

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
