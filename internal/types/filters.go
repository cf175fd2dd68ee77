//nolint:revive // types is a standard Go package name pattern
package types

// Filters holds the seven toggle switches of the search panel.
// Within a group, all-false means the group imposes no restriction.
type Filters struct {
	Public         bool `json:"public"`
	Private        bool `json:"private"`
	FullTime       bool `json:"fullTime"`
	PartTime       bool `json:"partTime"`
	Correspondence bool `json:"correspondence"`
	GradeSystem    bool `json:"gradeSystem"`
	CreditSystem   bool `json:"creditSystem"`
}

// DefaultFilters returns the session start state: every toggle on.
func DefaultFilters() Filters {
	return Filters{
		Public:         true,
		Private:        true,
		FullTime:       true,
		PartTime:       true,
		Correspondence: true,
		GradeSystem:    true,
		CreditSystem:   true,
	}
}

// ActiveTypes returns the school types whose toggle is on.
func (f Filters) ActiveTypes() []SchoolType {
	var out []SchoolType
	if f.Public {
		out = append(out, SchoolTypePublic)
	}
	if f.Private {
		out = append(out, SchoolTypePrivate)
	}
	return out
}

// ActiveCategories returns the categories whose toggle is on.
func (f Filters) ActiveCategories() []SchoolCategory {
	var out []SchoolCategory
	if f.FullTime {
		out = append(out, CategoryFullTime)
	}
	if f.PartTime {
		out = append(out, CategoryPartTime)
	}
	if f.Correspondence {
		out = append(out, CategoryCorrespondence)
	}
	return out
}

// ActiveSystems returns the systems whose toggle is on.
func (f Filters) ActiveSystems() []SchoolSystem {
	var out []SchoolSystem
	if f.GradeSystem {
		out = append(out, SystemGrade)
	}
	if f.CreditSystem {
		out = append(out, SystemCredit)
	}
	return out
}

// SortType selects the ordering of the visible list.
type SortType string

// Sort modes.
const (
	SortDeviationDesc  SortType = "deviation-desc"
	SortDeviationAsc   SortType = "deviation-asc"
	SortCommuteTimeAsc SortType = "commute-time-asc"
)

// DefaultSort is the sort mode a session starts with.
const DefaultSort = SortDeviationDesc

// IsValid reports whether s is one of the known sort modes.
func (s SortType) IsValid() bool {
	switch s {
	case SortDeviationDesc, SortDeviationAsc, SortCommuteTimeAsc:
		return true
	default:
		return false
	}
}
