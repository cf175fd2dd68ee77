package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/school-finder/internal/advice"
	"github.com/jonathan/school-finder/internal/llm"
	"github.com/jonathan/school-finder/internal/observability"
	"github.com/jonathan/school-finder/internal/session"
	"github.com/jonathan/school-finder/internal/types"
)

// requesterTier is the model tier used for advice.
const requesterTier = llm.TierStandard

var adviseCmd = &cobra.Command{
	Use:   "advise",
	Short: "Ask for AI advice about the filtered school list",
	Long: `Applies the same toggle and sort flags as 'list', sends the visible schools and
your prompt to the advice service once and prints the answer with the
recommended schools marked.`,
	RunE: runAdvise,
}

var (
	adviseFilters filterFlags
	advisePrompt  string
)

func init() {
	adviseFilters.register(adviseCmd)
	adviseCmd.Flags().StringVarP(&advisePrompt, "prompt", "p", "", "What you are looking for in a school (required)")
	addLLMFlags(adviseCmd)
	rootCmd.AddCommand(adviseCmd)
}

func runAdvise(cmd *cobra.Command, _ []string) error {
	req := types.AdviceRequest{Prompt: advisePrompt}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("--prompt is required and must be at most 2000 characters")
	}
	sortType, err := adviseFilters.sortType()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	requester, client, err := newRequester(ctx, appConfig)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	c := session.New(newProvider(appConfig), requester, logger)
	defer c.Close()
	if err := c.Load(ctx); err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	c.SetFilters(adviseFilters.filters())
	c.SetSort(sortType)

	printer := observability.NewPrinter(cmd.OutOrStdout())
	result, err := c.SubmitAdvice(ctx, req.Prompt)
	schools, state := c.Visible()
	printer.PrintState(state.Filters, state.Sort, state.VisibleCount, state.TotalCount)
	if err != nil {
		printer.PrintAdviceError(advice.UserMessage)
		return err
	}

	printer.PrintSchools(schools, state.RecommendedSchoolIDs)
	printer.PrintAdvice(result, schools)
	return nil
}
