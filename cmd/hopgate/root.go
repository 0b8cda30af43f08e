package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hopgate",
	Short: "Self-hosted query redirector with keyword routes",
	Long: `Hopgate turns short keyword queries into redirects.

Point your browser's search bar at it and "g rust lifetimes" opens a
Google search, "w ada lovelace" opens Wikipedia, and your own keywords
open whatever you configure. Routes live in a YAML file and reload
without a restart.

Quick start:
  hopgate serve       # Start the redirector
  hopgate validate    # Check the config before deploying

Inspection:
  hopgate routes list       # Show the compiled route table
  hopgate routes resolve    # Dry-run a query
  hopgate stats             # Top keywords from the hit log`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "hopgate.yaml", "config file path")
}
