package search

import "github.com/jonathan/school-finder/internal/types"

func school(id int, t types.SchoolType, deviation float64, commute int, system types.SchoolSystem, categories ...types.SchoolCategory) types.School {
	if len(categories) == 0 {
		categories = []types.SchoolCategory{types.CategoryFullTime}
	}
	return types.School{
		ID:          id,
		Name:        "school",
		Deviation:   deviation,
		Type:        t,
		Gender:      types.GenderCoed,
		Category:    categories,
		System:      system,
		CommuteTime: commute,
	}
}

func fixtureSchools() []types.School {
	return []types.School{
		school(1, types.SchoolTypePublic, 60, 20, types.SystemGrade, types.CategoryFullTime),
		school(2, types.SchoolTypePrivate, 70, 10, types.SystemGrade, types.CategoryFullTime),
		school(3, types.SchoolTypePublic, 45, 35, types.SystemCredit, types.CategoryPartTime),
		school(4, types.SchoolTypePrivate, 50, 50, types.SystemCredit, types.CategoryCorrespondence),
		school(5, types.SchoolTypePublic, 55, 15, types.SystemCredit, types.CategoryFullTime, types.CategoryPartTime),
	}
}

func ids(schools []types.School) []int {
	out := make([]int, len(schools))
	for i, s := range schools {
		out[i] = s.ID
	}
	return out
}
