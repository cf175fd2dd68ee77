// Package session owns the per-user view state: toggle filters, sort mode,
// dataset loading flags and the advice lifecycle.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/jonathan/school-finder/internal/advice"
	"github.com/jonathan/school-finder/internal/dataset"
	"github.com/jonathan/school-finder/internal/search"
	"github.com/jonathan/school-finder/internal/types"
)

// Advisor produces advice for a school list and prompt.
type Advisor interface {
	Request(ctx context.Context, schools []types.School, prompt string) (*types.AdviceResult, error)
}

// AdvicePhase is the state of the advice lifecycle.
type AdvicePhase string

// Advice phases. Idle is re-entered on any filter or sort change and when a
// new request starts.
const (
	PhaseIdle      AdvicePhase = "idle"
	PhaseLoading   AdvicePhase = "loading"
	PhaseSucceeded AdvicePhase = "succeeded"
	PhaseFailed    AdvicePhase = "failed"
)

// ErrSuperseded is returned by SubmitAdvice when a filter/sort change or a
// newer request replaced the one in flight. Its result was discarded.
var ErrSuperseded = errors.New("advice request superseded")

// Snapshot is a coherent copy of the controller state.
type Snapshot struct {
	Filters              types.Filters  `json:"filters"`
	Sort                 types.SortType `json:"sort"`
	IsLoading            bool           `json:"is_loading"`
	LoadError            string         `json:"load_error,omitempty"`
	IsAdviceLoading      bool           `json:"is_ai_loading"`
	AdvicePhase          AdvicePhase    `json:"advice_phase"`
	Advice               string         `json:"advice"`
	AdviceError          string         `json:"advice_error"`
	RecommendedSchoolIDs []int          `json:"recommended_school_ids"`
	VisibleCount         int            `json:"visible_count"`
	TotalCount           int            `json:"total_count"`
}

// Controller holds one session's state. It is safe for concurrent use; no
// lock is held while the dataset loads or the advice service is called.
type Controller struct {
	loader  dataset.Loader
	advisor Advisor
	logger  *zap.Logger
	view    *search.View

	mu        sync.Mutex
	filters   types.Filters
	sortType  types.SortType
	loading   bool
	loadError string

	phase       AdvicePhase
	adviceText  string
	adviceError string
	recommended []int

	// generation increases on every reset; a completion is applied only if
	// it still carries the current generation.
	generation uint64
	cancel     context.CancelFunc
}

// New creates a controller with every toggle on and the default sort.
// The dataset is empty and IsLoading is true until Load completes.
func New(loader dataset.Loader, advisor Advisor, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		loader:   loader,
		advisor:  advisor,
		logger:   logger,
		view:     search.NewView(),
		filters:  types.DefaultFilters(),
		sortType: types.DefaultSort,
		loading:  true,
		phase:    PhaseIdle,
	}
}

// Load fetches the dataset. On failure the previous dataset is kept, the error
// is exposed as LoadError and Load may be called again.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.loadError = ""
	c.mu.Unlock()

	schools, err := c.loader.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.loadError = err.Error()
		c.logger.Error("dataset load failed", zap.Error(err))
		return err
	}
	c.view.SetDataset(schools)
	c.resetAdviceLocked()
	return nil
}

// SetFilters replaces the toggle state and clears any advice.
func (c *Controller) SetFilters(filters types.Filters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = filters
	c.resetAdviceLocked()
}

// SetSort replaces the sort mode and clears any advice.
func (c *Controller) SetSort(sortType types.SortType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sortType = sortType
	c.resetAdviceLocked()
}

// VisibleSchools returns the filtered, sorted list for the current state.
func (c *Controller) VisibleSchools() []types.School {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Get(c.filters, c.sortType)
}

// Visible returns the visible list together with the state it was derived
// from, read under a single lock.
func (c *Controller) Visible() ([]types.School, Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	schools := c.view.Get(c.filters, c.sortType)
	return schools, c.snapshotLocked(len(schools))
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(len(c.view.Get(c.filters, c.sortType)))
}

// Pending is an advice request in flight.
type Pending struct {
	// State is the controller state right after the request was issued.
	State Snapshot

	done chan adviceOutcome
}

type adviceOutcome struct {
	result *types.AdviceResult
	err    error
}

// Wait blocks until the request completes. The outcome is the same one that
// was applied to the controller, or ErrSuperseded if it was discarded.
func (p *Pending) Wait() (*types.AdviceResult, error) {
	out := <-p.done
	return out.result, out.err
}

// StartAdvice issues an advice request for the currently visible schools and
// returns without waiting for it. Any earlier request is cancelled.
func (c *Controller) StartAdvice(ctx context.Context, prompt string) *Pending {
	c.mu.Lock()
	c.resetAdviceLocked()
	gen := c.generation
	c.phase = PhaseLoading
	schools := c.view.Get(c.filters, c.sortType)
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	pending := &Pending{
		State: c.snapshotLocked(len(schools)),
		done:  make(chan adviceOutcome, 1),
	}
	c.mu.Unlock()

	go func() {
		defer cancel()
		result, err := c.advisor.Request(reqCtx, schools, prompt)
		result, err = c.finishAdvice(gen, result, err)
		pending.done <- adviceOutcome{result: result, err: err}
	}()
	return pending
}

// SubmitAdvice asks the advisor about the currently visible schools. It blocks
// until the advisor returns. The outcome is stored only if no filter, sort or
// newer request intervened; otherwise ErrSuperseded is returned.
func (c *Controller) SubmitAdvice(ctx context.Context, prompt string) (*types.AdviceResult, error) {
	return c.StartAdvice(ctx, prompt).Wait()
}

// errNoResult replaces a nil result that came back without an error.
var errNoResult = errors.New("advisor returned no result")

// finishAdvice applies a completion if gen is still current.
func (c *Controller) finishAdvice(gen uint64, result *types.AdviceResult, err error) (*types.AdviceResult, error) {
	if err == nil && result == nil {
		err = &advice.Error{Cause: errNoResult}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.logger.Debug("discarding stale advice completion",
			zap.Uint64("generation", gen),
			zap.Uint64("current", c.generation))
		return nil, ErrSuperseded
	}
	c.cancel = nil

	if err != nil {
		c.phase = PhaseFailed
		c.adviceError = advice.UserMessage
		return nil, err
	}

	c.phase = PhaseSucceeded
	c.adviceText = result.Advice
	c.recommended = slices.Clone(result.RecommendedSchoolIDs)
	return result, nil
}

// Close cancels any in-flight advice request. The controller must not be
// used afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAdviceLocked()
}

// resetAdviceLocked returns the advice lifecycle to idle and invalidates any
// outstanding request.
func (c *Controller) resetAdviceLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
	c.phase = PhaseIdle
	c.adviceText = ""
	c.adviceError = ""
	c.recommended = nil
}

func (c *Controller) snapshotLocked(visible int) Snapshot {
	recommended := slices.Clone(c.recommended)
	if recommended == nil {
		recommended = []int{}
	}
	return Snapshot{
		Filters:              c.filters,
		Sort:                 c.sortType,
		IsLoading:            c.loading,
		LoadError:            c.loadError,
		IsAdviceLoading:      c.phase == PhaseLoading,
		AdvicePhase:          c.phase,
		Advice:               c.adviceText,
		AdviceError:          c.adviceError,
		RecommendedSchoolIDs: recommended,
		VisibleCount:         visible,
		TotalCount:           c.view.Len(),
	}
}
