package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/school-finder/internal/advice"
	"github.com/jonathan/school-finder/internal/config"
	"github.com/jonathan/school-finder/internal/dataset"
	"github.com/jonathan/school-finder/internal/llm"
	"github.com/jonathan/school-finder/internal/types"
)

var (
	apiKeyFlag string
	modelFlag  string

	// newLLMClient is replaced in tests.
	newLLMClient = llm.NewClient
)

// addLLMFlags registers the flags of commands that call the advice service.
func addLLMFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&apiKeyFlag, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	cmd.Flags().StringVar(&modelFlag, "model", "", "Model for advice requests (defaults to the standard tier)")
}

func newProvider(cfg config.Config) *dataset.Provider {
	opts := dataset.Options{Path: cfg.DatasetPath, Latency: dataset.DefaultLatency}
	if cfg.LoadLatency != nil {
		opts.Latency = cfg.LoadLatency.Std()
	}
	return dataset.NewProvider(opts, logger)
}

// newRequester connects to the LLM and returns an advice requester along with
// the client, which the caller must close.
func newRequester(ctx context.Context, cfg config.Config) (*advice.Requester, llm.Client, error) {
	if cfg.APIKey == "" {
		return nil, nil, fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	llmCfg := llm.DefaultConfig()
	if cfg.Model != "" {
		llmCfg = llmCfg.WithModel(llm.TierStandard, cfg.Model)
	}

	client, err := newLLMClient(ctx, llmCfg, cfg.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	opts := advice.Options{Tier: llm.TierStandard, Timeout: cfg.AdviceTimeout.Std()}
	return advice.NewRequester(client, opts, logger), client, nil
}

// filterFlags are the toggle and sort flags shared by list and advise.
type filterFlags struct {
	public, private                    bool
	fullTime, partTime, correspondence bool
	gradeSystem, creditSystem          bool
	sort                               string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.BoolVar(&f.public, "public", true, "Include public (公立) schools")
	fs.BoolVar(&f.private, "private", true, "Include private (私立) schools")
	fs.BoolVar(&f.fullTime, "full-time", true, "Include full-time (全日制) courses")
	fs.BoolVar(&f.partTime, "part-time", true, "Include part-time (定時制) courses")
	fs.BoolVar(&f.correspondence, "correspondence", true, "Include correspondence (通信制) courses")
	fs.BoolVar(&f.gradeSystem, "grade-system", true, "Include grade-based (学年制) schools")
	fs.BoolVar(&f.creditSystem, "credit-system", true, "Include credit-based (単位制) schools")
	fs.StringVar(&f.sort, "sort", string(types.DefaultSort), "Sort order: deviation-desc, deviation-asc or commute-time-asc")
}

func (f *filterFlags) filters() types.Filters {
	return types.Filters{
		Public:         f.public,
		Private:        f.private,
		FullTime:       f.fullTime,
		PartTime:       f.partTime,
		Correspondence: f.correspondence,
		GradeSystem:    f.gradeSystem,
		CreditSystem:   f.creditSystem,
	}
}

func (f *filterFlags) sortType() (types.SortType, error) {
	req := types.SortRequest{Sort: types.SortType(f.sort)}
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("invalid --sort %q: must be deviation-desc, deviation-asc or commute-time-asc", f.sort)
	}
	return req.Sort, nil
}
