package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/school-finder/internal/observability"
	"github.com/jonathan/school-finder/internal/session"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the filtered, sorted school list",
	Long: `Loads the dataset, applies the toggle flags and sort order and prints the visible schools.

Each toggle group (type, category, system) with every toggle off places no restriction.`,
	RunE: runList,
}

var (
	listFilters filterFlags
	listJSON    bool
)

func init() {
	listFilters.register(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print the list as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	sortType, err := listFilters.sortType()
	if err != nil {
		return err
	}

	c := session.New(newProvider(appConfig), nil, logger)
	defer c.Close()
	if err := c.Load(cmd.Context()); err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	c.SetFilters(listFilters.filters())
	c.SetSort(sortType)

	schools, state := c.Visible()
	out := cmd.OutOrStdout()
	if listJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(schools)
	}

	printer := observability.NewPrinter(out)
	printer.PrintState(state.Filters, state.Sort, state.VisibleCount, state.TotalCount)
	printer.PrintSchools(schools, nil)
	return nil
}
