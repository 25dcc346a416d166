package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ValidationError represents a malformed or incomplete request. It is always
// surfaced to the caller and never silently corrected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// AuthorizationError indicates an expert is not assigned to the skill group
type AuthorizationError struct {
	ExpertID     uuid.UUID
	SkillGroupID uuid.UUID
	Cause        error
}

func (e *AuthorizationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("expert %s is not authorized for skill group %s: %v", e.ExpertID, e.SkillGroupID, e.Cause)
	}
	return fmt.Sprintf("expert %s is not assigned to skill group %s", e.ExpertID, e.SkillGroupID)
}

func (e *AuthorizationError) Unwrap() error {
	return e.Cause
}

// NotFoundError indicates a referenced record does not exist or is not owned by the talent
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ConflictError indicates a concurrent writer changed a record first
type ConflictError struct {
	Resource string
	ID       string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently", e.Resource, e.ID)
}

// PartialApplyError reports the decision entries that could not be applied while
// the rest of the decision was committed.
type PartialApplyError struct {
	Failures []error
}

func (e *PartialApplyError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%d decision entries failed: %s", len(e.Failures), strings.Join(msgs, "; "))
}

func (e *PartialApplyError) Unwrap() []error {
	return e.Failures
}

// fromValidator converts go-playground validator errors into a ValidationError
// naming the first offending field.
func fromValidator(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := fmt.Sprintf("failed '%s' check", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed '%s=%s' check", fe.Tag(), fe.Param())
		}
		return &ValidationError{Field: fe.Namespace(), Message: msg}
	}
	return &ValidationError{Message: err.Error()}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
