// Package server provides the HTTP REST API for the interview coordinator.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/interview-coordinator/internal/assessment"
	"github.com/jonathan/interview-coordinator/internal/db"
	"github.com/jonathan/interview-coordinator/internal/lifecycle"
	"github.com/jonathan/interview-coordinator/internal/llm"
	"github.com/jonathan/interview-coordinator/internal/rubric"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus maps an error to the HTTP status code it should produce.
// Domain errors are matched with errors.As so wrapped errors resolve too.
func HTTPStatus(err error) int {
	var (
		templateNotFound    *rubric.ErrTemplateNotFound
		recordNotFound      *lifecycle.ErrRecordNotFound
		forbidden           *lifecycle.ErrForbiddenTransition
		invalidCompletion   *lifecycle.ErrInvalidCompletion
		concurrencyConflict *db.ErrConcurrencyConflict
		gatewayErr          *llm.GatewayError
		sessionActive       *assessment.ErrSessionActive
		suggestionPending   *assessment.ErrSuggestionPending
		wrongPhase          *assessment.ErrWrongPhase
		invalidScore        *assessment.ErrInvalidScore
		sectionOutOfRange   *assessment.ErrSectionOutOfRange
		itemOutOfRange      *assessment.ErrItemOutOfRange
		notLastSection      *assessment.ErrNotLastSection
		emailExists         *ErrEmailAlreadyExists
		invalidCredentials  *ErrInvalidCredentials
		userNotFound        *ErrUserNotFound
		validation          *ErrValidation
	)

	switch {
	case errors.As(err, &emailExists):
		return http.StatusConflict
	case errors.As(err, &invalidCredentials):
		return http.StatusUnauthorized
	case errors.As(err, &userNotFound),
		errors.As(err, &templateNotFound),
		errors.As(err, &recordNotFound):
		return http.StatusNotFound
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &gatewayErr):
		return http.StatusBadGateway
	case errors.As(err, &concurrencyConflict),
		errors.As(err, &sessionActive),
		errors.As(err, &suggestionPending),
		errors.As(err, &wrongPhase):
		return http.StatusConflict
	case errors.As(err, &invalidCompletion),
		errors.As(err, &invalidScore),
		errors.As(err, &sectionOutOfRange),
		errors.As(err, &itemOutOfRange),
		errors.As(err, &notLastSection),
		errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
