package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/artpar/hopgate/config"
	"github.com/artpar/hopgate/domain/hop"
	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Inspect the route table",
	Long: `Inspect the route table compiled from the configuration file.

Examples:
  hopgate routes list
  hopgate routes resolve "g rust lifetimes"
  hopgate routes resolve jira PROJ-123`,
}

var routesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all routes",
	RunE:  runRoutesList,
}

var routesResolveCmd = &cobra.Command{
	Use:   "resolve <query>",
	Short: "Show what a query would resolve to",
	Long: `Resolve a query against the route table without serving it.

Template routes print the expanded destination URL. Delegate routes
print the program and arguments that would run; nothing is executed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRoutesResolve,
}

func init() {
	rootCmd.AddCommand(routesCmd)

	routesCmd.AddCommand(routesListCmd)
	routesCmd.AddCommand(routesResolveCmd)
}

func loadTable() (*hop.Table, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	table, err := cfg.CompileTable()
	if err != nil {
		return nil, fmt.Errorf("failed to compile routes: %w", err)
	}
	return table, nil
}

func runRoutesList(cmd *cobra.Command, args []string) error {
	table, err := loadTable()
	if err != nil {
		return err
	}

	if table.Len() == 0 {
		fmt.Println("No routes found.")
		fmt.Println()
		fmt.Printf("Add a group with routes to %s first.\n", cfgFile)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEYWORD\tKIND\tARGS\tGROUP\tHIDDEN\tACTIVE\tDESTINATION")
	fmt.Fprintln(w, "-------\t----\t----\t-----\t------\t------\t-----------")

	for _, g := range table.Groups() {
		for _, r := range g.Routes {
			hidden := "no"
			if r.Hidden || g.Hidden {
				hidden = "yes"
			}
			// A keyword declared more than once keeps only its last
			// declaration; earlier ones are listed as inactive.
			active := "no"
			if got, ok := table.Lookup(r.Keyword); ok && got == r {
				active = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.Keyword, r.Kind, r.ArgRange(), g.Name, hidden, active, r.Destination())
		}
	}

	w.Flush()

	if def, ok := table.Default(); ok {
		fmt.Println()
		fmt.Printf("Default route: %s\n", def.Keyword)
	}
	return nil
}

func runRoutesResolve(cmd *cobra.Command, args []string) error {
	table, err := loadTable()
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	h, ok := table.Resolve(query)
	if !ok {
		return fmt.Errorf("no route matches %q", query)
	}

	fmt.Printf("Keyword:  %s\n", h.Route.Keyword)
	fmt.Printf("Group:    %s\n", h.Route.Group)
	fmt.Printf("Kind:     %s\n", h.Route.Kind)
	if h.Fallback {
		fmt.Printf("Matched:  via default route\n")
	}

	switch h.Route.Kind {
	case hop.KindExec:
		quoted := make([]string, len(h.Args))
		for i, a := range h.Args {
			quoted[i] = fmt.Sprintf("%q", a)
		}
		fmt.Printf("Would run: %s %s\n", h.Route.Exec, strings.Join(quoted, " "))
	default:
		fmt.Printf("Redirect: %s\n", hop.Expand(h.Route.Template, h.Args))
	}
	return nil
}
