//nolint:revive // types is a standard Go package name pattern
package types

import "github.com/go-playground/validator/v10"

// AdviceResult is the normalized reply of the advice service.
// RecommendedSchoolIDs is passed through as returned; it is not checked
// against the list that was sent.
type AdviceResult struct {
	Advice               string `json:"advice"`
	RecommendedSchoolIDs []int  `json:"recommended_school_ids"`
}

// AdviceRequest is the body of an advice submission.
type AdviceRequest struct {
	Prompt string `json:"prompt" validate:"required,max=2000"`
}

// Validate validates the AdviceRequest using the validator.
func (r *AdviceRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// SortRequest is the body of a sort change.
type SortRequest struct {
	Sort SortType `json:"sort" validate:"required,oneof=deviation-desc deviation-asc commute-time-asc"`
}

// Validate validates the SortRequest using the validator.
func (r *SortRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
