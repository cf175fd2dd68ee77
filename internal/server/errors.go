// Package server provides the HTTP JSON API for the school finder.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/school-finder/internal/advice"
	"github.com/jonathan/school-finder/internal/session"
)

// ErrSessionNotFound indicates an unknown or deleted session ID
type ErrSessionNotFound struct {
	ID string
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("session not found: %s", e.ID)
}

// ErrSchoolNotFound indicates no school in the dataset has the ID
type ErrSchoolNotFound struct {
	ID int
}

func (e *ErrSchoolNotFound) Error() string {
	return fmt.Sprintf("school not found: %d", e.ID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrDatasetUnavailable indicates the dataset could not be loaded
type ErrDatasetUnavailable struct {
	Message string
}

func (e *ErrDatasetUnavailable) Error() string {
	return fmt.Sprintf("dataset unavailable: %s", e.Message)
}

// ErrDatasetLoading indicates the session has not finished its first load
type ErrDatasetLoading struct{}

func (e *ErrDatasetLoading) Error() string {
	return "dataset is still loading"
}

// ErrShuttingDown indicates the server no longer accepts new sessions
type ErrShuttingDown struct{}

func (e *ErrShuttingDown) Error() string {
	return "server is shutting down"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrSessionNotFound, *ErrSchoolNotFound:
		return http.StatusNotFound
	case *ErrValidation:
		return http.StatusBadRequest
	case *ErrDatasetUnavailable, *ErrShuttingDown:
		return http.StatusServiceUnavailable
	case *ErrDatasetLoading:
		return http.StatusConflict
	}

	switch {
	case errors.Is(err, session.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, advice.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// validationError converts validator errors into an ErrValidation for the
// first failing field.
func validationError(err error) *ErrValidation {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Field(), Message: ve.Tag()}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}
