package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/school-finder/internal/advice"
	"github.com/jonathan/school-finder/internal/config"
	"github.com/jonathan/school-finder/internal/dataset"
	"github.com/jonathan/school-finder/internal/observability"
	"github.com/jonathan/school-finder/internal/types"
)

var validateDatasetCmd = &cobra.Command{
	Use:   "validate-dataset [path]",
	Short: "Validate a school dataset file and the bundled prompt templates",
	Long: `Checks a JSON or YAML school dataset against the dataset schema, field rules and
ID uniqueness. Without a path the configured dataset (or the embedded one) is checked.
The embedded advice prompt templates are checked as well.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidateDataset,
}

func init() {
	rootCmd.AddCommand(validateDatasetCmd)
}

func runValidateDataset(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if len(args) == 1 {
		cfg.DatasetPath = args[0]
	}

	source := cfg.DatasetPath
	var (
		schools []types.School
		err     error
	)
	if source == "" {
		source = "embedded"
		schools, err = dataset.Seed()
	} else {
		noLatency := config.Duration(0)
		cfg.LoadLatency = &noLatency
		schools, err = newProvider(cfg).Load(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("dataset invalid: %w", err)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintDatasetSummary(source, schools)

	keys, err := advice.CheckTemplates()
	if err != nil {
		return fmt.Errorf("prompt templates invalid: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Prompt templates: %s\n", strings.Join(keys, ", ")) //nolint:errcheck
	return nil
}
