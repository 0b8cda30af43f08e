package main

import (
	"fmt"
	"os"

	"github.com/artpar/hopgate/adapters/sqlite"
	"github.com/artpar/hopgate/config"
	"github.com/artpar/hopgate/domain/hop"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the hopgate configuration file.

Checks:
  - YAML syntax is valid
  - Route keywords are well formed
  - The default route points at an existing keyword
  - Delegate executables exist (optional)
  - Hit log database is writable (optional)

Examples:
  hopgate validate
  hopgate validate --config /etc/hopgate/config.yaml --check-exec`,
	RunE: runValidate,
}

var (
	validateCheckExec     bool
	validateCheckDatabase bool
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckExec, "check-exec", false, "check that delegate executables exist")
	validateCmd.Flags().BoolVar(&validateCheckDatabase, "check-database", false, "check that the hit log database is writable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n\n", cfgFile)

	// Check file exists
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Printf("  %s Config file exists\n", checkMark)

	// Load and validate config
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Printf("  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Printf("  %s Config syntax valid\n", checkMark)

	// Compile the route table
	table, err := cfg.CompileTable()
	if err != nil {
		fmt.Printf("  %s Route table compiles\n", crossMark)
		return fmt.Errorf("route error: %w", err)
	}
	fmt.Printf("  %s Route table compiles\n", checkMark)

	// Show config summary
	fmt.Printf("  %s Bind address: %s\n", checkMark, cfg.BindAddress)
	fmt.Printf("  %s Public address: %s\n", checkMark, cfg.PublicAddress)
	fmt.Printf("  %s Groups: %d, routes: %d\n", checkMark, len(cfg.Groups), table.Len())
	if def, ok := table.Default(); ok {
		fmt.Printf("  %s Default route: %s\n", checkMark, def.Keyword)
	} else {
		fmt.Printf("  %s Default route: (none)\n", checkMark)
	}

	// Optional: check delegate executables
	if validateCheckExec {
		for _, g := range table.Groups() {
			for _, r := range g.Routes {
				if r.Kind != hop.KindExec {
					continue
				}
				if err := checkExecutable(r.Exec); err != nil {
					fmt.Printf("  %s Delegate %s: %s\n", crossMark, r.Keyword, r.Exec)
					fmt.Printf("      Error: %v\n", err)
				} else {
					fmt.Printf("  %s Delegate %s: %s\n", checkMark, r.Keyword, r.Exec)
				}
			}
		}
	}

	// Optional: check database
	if validateCheckDatabase {
		if !cfg.Database.Enabled {
			fmt.Printf("  %s Hit log: disabled (skipped)\n", checkMark)
		} else if err := checkDatabaseWritable(cfg.Database.Path); err != nil {
			fmt.Printf("  %s Hit log database writable\n", crossMark)
			fmt.Printf("      Error: %v\n", err)
		} else {
			fmt.Printf("  %s Hit log database writable\n", checkMark)
		}
	}

	fmt.Println()
	fmt.Println("Configuration is valid.")
	return nil
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if info.Mode().Perm()&0111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}

func checkDatabaseWritable(path string) error {
	db, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return nil
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
