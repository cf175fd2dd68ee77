package search

import (
	"sync"

	"github.com/jonathan/school-finder/internal/types"
)

// Derive filters then sorts. It is deterministic for identical inputs.
func Derive(schools []types.School, filters types.Filters, sortType types.SortType) []types.School {
	return Sort(Filter(schools, filters), sortType)
}

// viewKey identifies one derived list.
type viewKey struct {
	version  uint64
	filters  types.Filters
	sortType types.SortType
}

// View memoizes the derived list for one (dataset version, filters, sort) key.
// Callers bump the dataset version through SetDataset; any key change
// recomputes on the next Get.
type View struct {
	mu      sync.Mutex
	schools []types.School
	version uint64

	cached    []types.School
	cachedKey viewKey
	valid     bool
}

// NewView creates an empty view.
func NewView() *View {
	return &View{}
}

// SetDataset replaces the raw dataset and invalidates the cached list.
func (v *View) SetDataset(schools []types.School) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.schools = schools
	v.version++
	v.valid = false
}

// Len returns the size of the raw dataset, before filtering.
func (v *View) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.schools)
}

// Get returns the derived list for the given state. The returned slice is a
// copy and may be modified by the caller.
func (v *View) Get(filters types.Filters, sortType types.SortType) []types.School {
	v.mu.Lock()
	defer v.mu.Unlock()

	key := viewKey{version: v.version, filters: filters, sortType: sortType}
	if !v.valid || v.cachedKey != key {
		v.cached = Derive(v.schools, filters, sortType)
		v.cachedKey = key
		v.valid = true
	}

	out := make([]types.School, len(v.cached))
	copy(out, v.cached)
	return out
}
