package main

import (
	"fmt"
	"os"

	"github.com/artpar/hopgate/bootstrap"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the redirector server",
	Long: `Start the hopgate server.

The server will:
  - Load routes from hopgate.yaml (or --config)
  - Serve GET /hop?to=<query> plus the landing and listing pages
  - Reload the route table when the config file changes or on SIGHUP

Environment overrides (for Docker deployments):
  HOPGATE_BIND_ADDRESS      - Listen address (default: 127.0.0.1:8080)
  HOPGATE_PUBLIC_ADDRESS    - External host used on pages
  HOPGATE_DATABASE_ENABLED  - Enable the hit log
  HOPGATE_LOG_LEVEL         - Log level: debug, info, warn, error

Examples:
  hopgate serve
  hopgate serve --config /etc/hopgate/config.yaml
  hopgate serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Println("No configuration found.")
		fmt.Println()
		fmt.Printf("Create %s with your routes, for example:\n", cfgFile)
		fmt.Println()
		fmt.Println(`  default_route: g
  groups:
    - name: search
      routes:
        g: "https://google.com/search?q={{query}}"
        w: "https://en.wikipedia.org/wiki/Special:Search?search={{query}}"`)
		return nil
	}

	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		HotReload:  hotReload,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
