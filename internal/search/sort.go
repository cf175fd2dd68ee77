package search

import (
	"sort"

	"github.com/jonathan/school-finder/internal/types"
)

// Sort returns a newly ordered copy of schools. Ties keep their input order.
// An unknown sort mode yields an unmodified copy.
func Sort(schools []types.School, sortType types.SortType) []types.School {
	out := make([]types.School, len(schools))
	copy(out, schools)

	switch sortType {
	case types.SortDeviationDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Deviation > out[j].Deviation })
	case types.SortDeviationAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Deviation < out[j].Deviation })
	case types.SortCommuteTimeAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CommuteTime < out[j].CommuteTime })
	}
	return out
}
