// Package search derives the visible school list from the dataset and the
// current toggle and sort state.
package search

import (
	"slices"

	"github.com/jonathan/school-finder/internal/types"
)

// Filter returns the schools that satisfy every active toggle group.
// A group with no toggle switched on does not restrict the result.
// The input slice is not modified.
func Filter(schools []types.School, filters types.Filters) []types.School {
	activeTypes := filters.ActiveTypes()
	activeCategories := filters.ActiveCategories()
	activeSystems := filters.ActiveSystems()

	out := make([]types.School, 0, len(schools))
	for i := range schools {
		s := &schools[i]
		if len(activeTypes) > 0 && !slices.Contains(activeTypes, s.Type) {
			continue
		}
		if len(activeCategories) > 0 && !matchesAnyCategory(s, activeCategories) {
			continue
		}
		if len(activeSystems) > 0 && !slices.Contains(activeSystems, s.System) {
			continue
		}
		out = append(out, *s)
	}
	return out
}

// matchesAnyCategory reports whether the school's category set intersects active.
func matchesAnyCategory(s *types.School, active []types.SchoolCategory) bool {
	for _, c := range active {
		if s.HasCategory(c) {
			return true
		}
	}
	return false
}
