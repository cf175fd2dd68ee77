// Package advice forwards the visible school list and a free-text prompt to
// the advice service and normalizes its reply.
package advice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/school-finder/internal/llm"
	"github.com/jonathan/school-finder/internal/prompts"
	"github.com/jonathan/school-finder/internal/schemas"
	"github.com/jonathan/school-finder/internal/types"
)

// DefaultTimeout bounds a single advice call.
const DefaultTimeout = 60 * time.Second

const promptFile = "advice.json"

// Options configures a Requester.
type Options struct {
	Tier    llm.ModelTier
	Timeout time.Duration // zero means no deadline beyond the caller's
}

// DefaultOptions returns the standard tier with DefaultTimeout.
func DefaultOptions() Options {
	return Options{Tier: llm.TierStandard, Timeout: DefaultTimeout}
}

// Requester issues one advice call per request. It never retries.
type Requester struct {
	client llm.Client
	opts   Options
	logger *zap.Logger
}

// NewRequester creates a new Requester.
func NewRequester(client llm.Client, opts Options, logger *zap.Logger) *Requester {
	if opts.Tier == "" {
		opts.Tier = llm.TierStandard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Requester{client: client, opts: opts, logger: logger}
}

// Request sends schools and prompt to the advice service. On success the
// advice text and recommended IDs are returned exactly as the service gave
// them. Any failure is returned as *Error.
func (r *Requester) Request(ctx context.Context, schools []types.School, prompt string) (*types.AdviceResult, error) {
	result, err := r.request(ctx, schools, prompt)
	if err != nil {
		r.logFailure(ctx, err, len(schools))
		return nil, &Error{Cause: err}
	}

	r.logger.Debug("advice received",
		zap.Int("schools", len(schools)),
		zap.Ints("recommended_school_ids", result.RecommendedSchoolIDs))
	return result, nil
}

func (r *Requester) request(ctx context.Context, schools []types.School, prompt string) (*types.AdviceResult, error) {
	if r.client == nil {
		return nil, errors.New("no advice service client configured")
	}

	fullPrompt, err := buildPrompt(schools, prompt)
	if err != nil {
		return nil, err
	}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	raw, err := r.client.GenerateJSON(ctx, fullPrompt, r.opts.Tier)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	return parseResponse(raw)
}

// parseResponse validates the payload against the response schema before
// decoding, so missing fields are reported as failures.
func parseResponse(raw string) (*types.AdviceResult, error) {
	cleaned := llm.CleanJSONBlock(raw)
	if err := schemas.Validate(schemas.AdviceResponse, []byte(cleaned)); err != nil {
		return nil, fmt.Errorf("malformed advice response: %w (content: %s)", err, cleaned)
	}

	var result types.AdviceResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("failed to parse advice response: %w (content: %s)", err, cleaned)
	}
	if result.RecommendedSchoolIDs == nil {
		result.RecommendedSchoolIDs = []int{}
	}
	return &result, nil
}

const (
	promptKey      = "school-advice"
	promptKeyEmpty = "school-advice-empty"
)

// CheckTemplates confirms the embedded prompt file carries every template the
// requester renders and returns the keys it found.
func CheckTemplates() ([]string, error) {
	keys, err := prompts.Keys(promptFile)
	if err != nil {
		return nil, err
	}
	for _, want := range []string{promptKey, promptKeyEmpty} {
		if !slices.Contains(keys, want) {
			return keys, fmt.Errorf("prompt template %q missing from %s", want, promptFile)
		}
	}
	return keys, nil
}

func buildPrompt(schools []types.School, prompt string) (string, error) {
	if len(schools) == 0 {
		return prompts.Render(promptFile, promptKeyEmpty, map[string]string{
			"Prompt": prompt,
		})
	}

	schoolsJSON, err := json.MarshalIndent(schools, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize schools: %w", err)
	}
	return prompts.Render(promptFile, promptKey, map[string]string{
		"Schools": string(schoolsJSON),
		"Prompt":  prompt,
	})
}

func (r *Requester) logFailure(ctx context.Context, err error, schoolCount int) {
	if errors.Is(ctx.Err(), context.Canceled) {
		r.logger.Info("advice request cancelled", zap.Error(err))
		return
	}
	r.logger.Error("advice request failed",
		zap.Error(err),
		zap.Int("schools", schoolCount),
		zap.String("model", r.modelName()))
}

func (r *Requester) modelName() string {
	if r.client == nil {
		return ""
	}
	return r.client.GetModel(r.opts.Tier)
}
