package usecase

import "errors"

var (
	// ErrAssessmentNotFound is returned when no assessment matches the tenant and ID.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrInvalidRequest is returned for malformed use case input.
	ErrInvalidRequest = errors.New("invalid request")
)
