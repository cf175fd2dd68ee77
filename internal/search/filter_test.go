package search

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jonathan/school-finder/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestFilter_AllOnReturnsEverything(t *testing.T) {
	schools := fixtureSchools()
	got := Filter(schools, types.DefaultFilters())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(got))
}

func TestFilter_AllOffReturnsEverything(t *testing.T) {
	schools := fixtureSchools()
	got := Filter(schools, types.Filters{})
	if diff := cmp.Diff(schools, got); diff != "" {
		t.Errorf("Filter() with every toggle off mismatch (-want +got):\n%s", diff)
	}
}

func TestFilter_Groups(t *testing.T) {
	tests := []struct {
		name    string
		filters types.Filters
		want    []int
	}{
		{
			name:    "public only",
			filters: types.Filters{Public: true},
			want:    []int{1, 3, 5},
		},
		{
			name:    "private only",
			filters: types.Filters{Private: true},
			want:    []int{2, 4},
		},
		{
			name:    "part-time matches multi-category school",
			filters: types.Filters{PartTime: true},
			want:    []int{3, 5},
		},
		{
			name:    "full-time or correspondence",
			filters: types.Filters{FullTime: true, Correspondence: true},
			want:    []int{1, 2, 4, 5},
		},
		{
			name:    "credit system",
			filters: types.Filters{CreditSystem: true},
			want:    []int{3, 4, 5},
		},
		{
			name:    "groups combine with AND",
			filters: types.Filters{Public: true, FullTime: true, CreditSystem: true},
			want:    []int{5},
		},
		{
			name:    "no match is a valid empty result",
			filters: types.Filters{Private: true, PartTime: true},
			want:    []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(fixtureSchools(), tt.filters)))
		})
	}
}

func TestFilter_TypeToggleExcludesOtherType(t *testing.T) {
	schools := fixtureSchools()

	onlyPrivate := Filter(schools, types.Filters{Private: true, FullTime: true, PartTime: true, Correspondence: true, GradeSystem: true, CreditSystem: true})
	for _, s := range onlyPrivate {
		assert.Equal(t, types.SchoolTypePrivate, s.Type)
	}

	onlyPublic := Filter(schools, types.Filters{Public: true, FullTime: true, PartTime: true, Correspondence: true, GradeSystem: true, CreditSystem: true})
	for _, s := range onlyPublic {
		assert.Equal(t, types.SchoolTypePublic, s.Type)
	}
}

func TestFilter_DoesNotModifyInput(t *testing.T) {
	schools := fixtureSchools()
	before := ids(schools)

	_ = Filter(schools, types.Filters{Private: true})

	assert.Equal(t, before, ids(schools))
}

func TestFilter_WorkedExample(t *testing.T) {
	schools := []types.School{
		school(1, types.SchoolTypePublic, 60, 20, types.SystemGrade),
		school(2, types.SchoolTypePrivate, 70, 10, types.SystemGrade),
	}
	filters := types.DefaultFilters()
	filters.Private = false

	assert.Equal(t, []int{1}, ids(Filter(schools, filters)))
}
