package handler

import (
	"errors"

	"github.com/forgo/mentora/api/internal/model"
	"github.com/forgo/mentora/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// This centralizes error handling for all handlers so status codes stay
// consistent across the API.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	// Domain rule violations carry their own codes.
	var de *model.DomainError
	if errors.As(err, &de) {
		return model.NewDomainRuleError(de)
	}

	switch {
	// ===== Validation Errors → 422 =====
	case errors.Is(err, service.ErrStudentRequired):
		return model.NewValidationError([]model.FieldError{{Field: "student_id", Message: "must not be empty"}})
	case errors.Is(err, service.ErrServiceTypeRequired):
		return model.NewValidationError([]model.FieldError{{Field: "service_type", Message: "must not be empty"}})
	case errors.Is(err, service.ErrRecipientRequired):
		return model.NewValidationError([]model.FieldError{{Field: "recipient", Message: "must not be empty"}})

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrLedgerNotFound):
		return model.NewNotFoundError("ledger entry")
	case errors.Is(err, service.ErrPayableNotFound):
		return model.NewNotFoundError("payable")
	case errors.Is(err, service.ErrSessionNotFound):
		return model.NewNotFoundError("session")
	case errors.Is(err, service.ErrMeetingNotFound):
		return model.NewNotFoundError("meeting")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrNothingToSettle):
		return model.NewConflictError(err.Error())
	case errors.Is(err, service.ErrNoSessionRate):
		return model.NewBadRequestError(err.Error())

	default:
		return model.NewInternalError("")
	}
}
