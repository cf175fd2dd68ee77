package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jonathan/school-finder/internal/advice"
	"github.com/jonathan/school-finder/internal/types"
)

// leakOptions ignores the opencensus view worker that the Gemini SDK import
// chain starts at init, plus anything already running when the test began.
func leakOptions() []goleak.Option {
	return []goleak.Option{
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
		goleak.IgnoreCurrent(),
	}
}

// fakeLoader returns a fixed dataset or error.
type fakeLoader struct {
	schools []types.School
	err     error
	calls   int
}

func (f *fakeLoader) Load(_ context.Context) ([]types.School, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.schools, nil
}

// fakeAdvisor records what it was asked and replies through RequestFunc.
type fakeAdvisor struct {
	mu          sync.Mutex
	RequestFunc func(ctx context.Context, schools []types.School, prompt string) (*types.AdviceResult, error)
	lastSchools []types.School
	calls       int
}

func (f *fakeAdvisor) Request(ctx context.Context, schools []types.School, prompt string) (*types.AdviceResult, error) {
	f.mu.Lock()
	f.calls++
	f.lastSchools = schools
	f.mu.Unlock()
	if f.RequestFunc != nil {
		return f.RequestFunc(ctx, schools, prompt)
	}
	return &types.AdviceResult{Advice: "advice", RecommendedSchoolIDs: []int{1}}, nil
}

func testSchools() []types.School {
	return []types.School{
		{ID: 1, Name: "A", Type: types.SchoolTypePublic, Deviation: 60, CommuteTime: 20,
			Category: []types.SchoolCategory{types.CategoryFullTime}, System: types.SystemGrade},
		{ID: 2, Name: "B", Type: types.SchoolTypePrivate, Deviation: 70, CommuteTime: 10,
			Category: []types.SchoolCategory{types.CategoryFullTime}, System: types.SystemGrade},
		{ID: 3, Name: "C", Type: types.SchoolTypePrivate, Deviation: 50, CommuteTime: 40,
			Category: []types.SchoolCategory{types.CategoryCorrespondence}, System: types.SystemCredit},
	}
}

func newLoaded(t *testing.T, advisor Advisor) *Controller {
	t.Helper()
	c := New(&fakeLoader{schools: testSchools()}, advisor, nil)
	require.NoError(t, c.Load(context.Background()))
	return c
}

func visibleIDs(c *Controller) []int {
	var out []int
	for _, s := range c.VisibleSchools() {
		out = append(out, s.ID)
	}
	return out
}

func TestNew_Defaults(t *testing.T) {
	c := New(&fakeLoader{}, &fakeAdvisor{}, nil)
	snap := c.Snapshot()

	assert.Equal(t, types.DefaultFilters(), snap.Filters)
	assert.Equal(t, types.SortDeviationDesc, snap.Sort)
	assert.True(t, snap.IsLoading)
	assert.Equal(t, PhaseIdle, snap.AdvicePhase)
	assert.Empty(t, snap.RecommendedSchoolIDs)
	assert.Empty(t, c.VisibleSchools())
}

func TestLoad_PopulatesView(t *testing.T) {
	c := newLoaded(t, &fakeAdvisor{})

	snap := c.Snapshot()
	assert.False(t, snap.IsLoading)
	assert.Equal(t, 3, snap.TotalCount)
	assert.Equal(t, 3, snap.VisibleCount)
	assert.Equal(t, []int{2, 1, 3}, visibleIDs(c))
}

func TestLoad_FailureThenRetry(t *testing.T) {
	loader := &fakeLoader{err: errors.New("disk on fire")}
	c := New(loader, &fakeAdvisor{}, nil)

	err := c.Load(context.Background())
	require.Error(t, err)
	snap := c.Snapshot()
	assert.False(t, snap.IsLoading)
	assert.Contains(t, snap.LoadError, "disk on fire")

	loader.err = nil
	loader.schools = testSchools()
	require.NoError(t, c.Load(context.Background()))
	assert.Empty(t, c.Snapshot().LoadError)
	assert.Equal(t, 2, loader.calls)
}

func TestSetFiltersAndSort_RecomputeView(t *testing.T) {
	c := newLoaded(t, &fakeAdvisor{})

	c.SetFilters(types.Filters{Private: true})
	assert.Equal(t, []int{2, 3}, visibleIDs(c))

	c.SetSort(types.SortCommuteTimeAsc)
	assert.Equal(t, []int{2, 3}, visibleIDs(c))

	c.SetSort(types.SortDeviationAsc)
	assert.Equal(t, []int{3, 2}, visibleIDs(c))

	// Reading twice is idempotent
	assert.Equal(t, visibleIDs(c), visibleIDs(c))
}

func TestSubmitAdvice_SuccessPassesIDsThrough(t *testing.T) {
	advisor := &fakeAdvisor{
		RequestFunc: func(_ context.Context, _ []types.School, _ string) (*types.AdviceResult, error) {
			return &types.AdviceResult{Advice: "B校がおすすめ", RecommendedSchoolIDs: []int{2, 42}}, nil
		},
	}
	c := newLoaded(t, advisor)
	c.SetFilters(types.Filters{Private: true})

	result, err := c.SubmitAdvice(context.Background(), "偏差値の高い私立")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 42}, result.RecommendedSchoolIDs)

	snap := c.Snapshot()
	assert.Equal(t, PhaseSucceeded, snap.AdvicePhase)
	assert.False(t, snap.IsAdviceLoading)
	assert.Equal(t, "B校がおすすめ", snap.Advice)
	assert.Empty(t, snap.AdviceError)
	assert.Equal(t, []int{2, 42}, snap.RecommendedSchoolIDs)

	// The advisor saw the visible list, not the whole dataset
	require.Len(t, advisor.lastSchools, 2)
	assert.Equal(t, 2, advisor.lastSchools[0].ID)
	assert.Equal(t, 3, advisor.lastSchools[1].ID)
}

func TestSubmitAdvice_FailureSetsGenericError(t *testing.T) {
	advisor := &fakeAdvisor{
		RequestFunc: func(_ context.Context, _ []types.School, _ string) (*types.AdviceResult, error) {
			return nil, &advice.Error{Cause: errors.New("503 from upstream")}
		},
	}
	c := newLoaded(t, advisor)

	_, err := c.SubmitAdvice(context.Background(), "prompt")
	require.Error(t, err)

	snap := c.Snapshot()
	assert.Equal(t, PhaseFailed, snap.AdvicePhase)
	assert.Empty(t, snap.Advice)
	assert.Equal(t, advice.UserMessage, snap.AdviceError)
	assert.NotContains(t, snap.AdviceError, "503")
	assert.Empty(t, snap.RecommendedSchoolIDs)
}

func TestSubmitAdvice_NilResultIsAFailure(t *testing.T) {
	advisor := &fakeAdvisor{
		RequestFunc: func(_ context.Context, _ []types.School, _ string) (*types.AdviceResult, error) {
			return nil, nil
		},
	}
	c := newLoaded(t, advisor)

	result, err := c.SubmitAdvice(context.Background(), "prompt")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, advice.ErrUnavailable)
	assert.ErrorIs(t, err, errNoResult)

	snap := c.Snapshot()
	assert.Equal(t, PhaseFailed, snap.AdvicePhase)
	assert.Equal(t, advice.UserMessage, snap.AdviceError)
}

func TestSubmitAdvice_NewRequestClearsPreviousResult(t *testing.T) {
	calls := 0
	advisor := &fakeAdvisor{
		RequestFunc: func(_ context.Context, _ []types.School, _ string) (*types.AdviceResult, error) {
			calls++
			if calls == 1 {
				return &types.AdviceResult{Advice: "first", RecommendedSchoolIDs: []int{1}}, nil
			}
			return nil, errors.New("boom")
		},
	}
	c := newLoaded(t, advisor)

	_, err := c.SubmitAdvice(context.Background(), "one")
	require.NoError(t, err)
	_, err = c.SubmitAdvice(context.Background(), "two")
	require.Error(t, err)

	snap := c.Snapshot()
	assert.Empty(t, snap.Advice)
	assert.Empty(t, snap.RecommendedSchoolIDs)
	assert.NotEmpty(t, snap.AdviceError)
}

func TestSetSort_ClearsAdvice(t *testing.T) {
	c := newLoaded(t, &fakeAdvisor{})
	_, err := c.SubmitAdvice(context.Background(), "prompt")
	require.NoError(t, err)
	require.NotEmpty(t, c.Snapshot().Advice)

	c.SetSort(types.SortCommuteTimeAsc)

	snap := c.Snapshot()
	assert.Equal(t, PhaseIdle, snap.AdvicePhase)
	assert.Empty(t, snap.Advice)
	assert.Empty(t, snap.AdviceError)
	assert.Empty(t, snap.RecommendedSchoolIDs)
}

func TestSetFilters_ClearsError(t *testing.T) {
	advisor := &fakeAdvisor{
		RequestFunc: func(_ context.Context, _ []types.School, _ string) (*types.AdviceResult, error) {
			return nil, errors.New("boom")
		},
	}
	c := newLoaded(t, advisor)
	_, _ = c.SubmitAdvice(context.Background(), "prompt")
	require.NotEmpty(t, c.Snapshot().AdviceError)

	c.SetFilters(types.Filters{Public: true})

	assert.Empty(t, c.Snapshot().AdviceError)
	assert.Equal(t, PhaseIdle, c.Snapshot().AdvicePhase)
}

func TestSubmitAdvice_StaleCompletionIsDiscarded(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions()...)

	started := make(chan struct{})
	advisor := &fakeAdvisor{
		RequestFunc: func(ctx context.Context, _ []types.School, _ string) (*types.AdviceResult, error) {
			close(started)
			<-ctx.Done()
			// A late reply arrives anyway; it must not be applied.
			return &types.AdviceResult{Advice: "stale", RecommendedSchoolIDs: []int{1}}, nil
		},
	}
	c := newLoaded(t, advisor)

	done := make(chan error, 1)
	go func() {
		_, err := c.SubmitAdvice(context.Background(), "prompt")
		done <- err
	}()

	<-started
	assert.True(t, c.Snapshot().IsAdviceLoading)

	c.SetSort(types.SortCommuteTimeAsc)

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, ErrSuperseded))
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight request was not cancelled")
	}

	snap := c.Snapshot()
	assert.Equal(t, PhaseIdle, snap.AdvicePhase)
	assert.Empty(t, snap.Advice)
	assert.Empty(t, snap.RecommendedSchoolIDs)
}

func TestSubmitAdvice_NewerRequestWins(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions()...)

	firstStarted := make(chan struct{})
	release := make(chan struct{})
	calls := 0
	var mu sync.Mutex
	advisor := &fakeAdvisor{
		RequestFunc: func(_ context.Context, _ []types.School, prompt string) (*types.AdviceResult, error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				close(firstStarted)
				// Ignores cancellation to simulate a transport that answers late.
				<-release
				return &types.AdviceResult{Advice: "old", RecommendedSchoolIDs: []int{1}}, nil
			}
			return &types.AdviceResult{Advice: "new", RecommendedSchoolIDs: []int{2}}, nil
		},
	}
	c := newLoaded(t, advisor)

	firstDone := make(chan error, 1)
	go func() {
		_, err := c.SubmitAdvice(context.Background(), "first")
		firstDone <- err
	}()
	<-firstStarted

	_, err := c.SubmitAdvice(context.Background(), "second")
	require.NoError(t, err)

	close(release)
	assert.True(t, errors.Is(<-firstDone, ErrSuperseded))

	snap := c.Snapshot()
	assert.Equal(t, "new", snap.Advice)
	assert.Equal(t, []int{2}, snap.RecommendedSchoolIDs)
}

func TestClose_CancelsInFlight(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions()...)

	started := make(chan struct{})
	advisor := &fakeAdvisor{
		RequestFunc: func(ctx context.Context, _ []types.School, _ string) (*types.AdviceResult, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	c := newLoaded(t, advisor)

	done := make(chan error, 1)
	go func() {
		_, err := c.SubmitAdvice(context.Background(), "prompt")
		done <- err
	}()
	<-started

	c.Close()
	assert.True(t, errors.Is(<-done, ErrSuperseded))
}

func TestSnapshot_IsACopy(t *testing.T) {
	c := newLoaded(t, &fakeAdvisor{})
	_, err := c.SubmitAdvice(context.Background(), "prompt")
	require.NoError(t, err)

	snap := c.Snapshot()
	snap.RecommendedSchoolIDs[0] = 99

	assert.Equal(t, []int{1}, c.Snapshot().RecommendedSchoolIDs)
}

func TestVisible_ReturnsListAndState(t *testing.T) {
	c := newLoaded(t, &fakeAdvisor{})
	c.SetFilters(types.Filters{Public: true})

	schools, snap := c.Visible()
	require.Len(t, schools, 1)
	assert.Equal(t, 1, schools[0].ID)
	assert.Equal(t, 1, snap.VisibleCount)
	assert.Equal(t, 3, snap.TotalCount)
}

func TestStartAdvice_ReportsLoadingState(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions()...)

	release := make(chan struct{})
	advisor := &fakeAdvisor{
		RequestFunc: func(_ context.Context, _ []types.School, _ string) (*types.AdviceResult, error) {
			<-release
			return &types.AdviceResult{Advice: "done", RecommendedSchoolIDs: []int{3}}, nil
		},
	}
	c := newLoaded(t, advisor)

	pending := c.StartAdvice(context.Background(), "prompt")
	assert.True(t, pending.State.IsAdviceLoading)
	assert.Equal(t, PhaseLoading, pending.State.AdvicePhase)
	assert.Equal(t, 3, pending.State.VisibleCount)

	close(release)
	result, err := pending.Wait()
	require.NoError(t, err)
	assert.Equal(t, "done", result.Advice)
	assert.Equal(t, PhaseSucceeded, c.Snapshot().AdvicePhase)
}
