// Package types provides type definitions for the school records, filter state and
// advice results shared across the school-finder system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// SchoolType is the funding type of a school.
type SchoolType string

// School type values. The wire values match the front-end enums.
const (
	SchoolTypePublic  SchoolType = "公立"
	SchoolTypePrivate SchoolType = "私立"
)

// Gender is the admission policy of a school.
type Gender string

// Gender values.
const (
	GenderCoed  Gender = "共学"
	GenderBoys  Gender = "男子校"
	GenderGirls Gender = "女子校"
)

// SchoolCategory is a course-of-study category. A school offers one or more.
type SchoolCategory string

// Category values.
const (
	CategoryFullTime       SchoolCategory = "全日制"
	CategoryPartTime       SchoolCategory = "定時制"
	CategoryCorrespondence SchoolCategory = "通信制"
)

// SchoolSystem is the credit model a school runs on.
type SchoolSystem string

// System values.
const (
	SystemGrade  SchoolSystem = "学年制"
	SystemCredit SchoolSystem = "単位制"
)

// School is a single, immutable school record.
type School struct {
	ID          int              `json:"id" yaml:"id" validate:"required,gt=0"`
	Name        string           `json:"name" yaml:"name" validate:"required"`
	Address     string           `json:"address" yaml:"address"`
	Deviation   float64          `json:"deviation" yaml:"deviation" validate:"gte=0,lte=100"`
	Type        SchoolType       `json:"type" yaml:"type" validate:"required,oneof=公立 私立"`
	Gender      Gender           `json:"gender" yaml:"gender" validate:"required,oneof=共学 男子校 女子校"`
	Category    []SchoolCategory `json:"category" yaml:"category" validate:"required,min=1,dive,oneof=全日制 定時制 通信制"`
	System      SchoolSystem     `json:"system" yaml:"system" validate:"required,oneof=学年制 単位制"`
	Courses     []string         `json:"courses" yaml:"courses"`
	Features    []string         `json:"features" yaml:"features"`
	CommuteInfo string           `json:"commuteInfo" yaml:"commuteInfo"`
	CommuteTime int              `json:"commuteTime" yaml:"commuteTime" validate:"gte=0"`
}

// HasCategory reports whether the school offers the given category.
func (s *School) HasCategory(c SchoolCategory) bool {
	for _, own := range s.Category {
		if own == c {
			return true
		}
	}
	return false
}

// Validate validates the School using the validator.
func (s *School) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}

// ValidateSchools validates every record and checks that IDs are unique.
func ValidateSchools(schools []School) error {
	validate := validator.New()
	seen := make(map[int]bool, len(schools))
	for i := range schools {
		if err := validate.Struct(&schools[i]); err != nil {
			return fmt.Errorf("school at index %d (id %d): %w", i, schools[i].ID, err)
		}
		if seen[schools[i].ID] {
			return fmt.Errorf("duplicate school id %d at index %d", schools[i].ID, i)
		}
		seen[schools[i].ID] = true
	}
	return nil
}
