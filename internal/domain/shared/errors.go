// Package shared holds the error kinds and domain events used by every
// placement package. It imports nothing outside the standard library.
package shared

import (
	"errors"
	"strings"
)

// Виды ошибок. DomainError ссылается на один из них в поле Kind,
// а errors.Is находит его через всю цепочку.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	ErrInvalidID     = errors.New("invalid id")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("empty value")
	ErrInvalidFormat = errors.New("invalid format")
)

// DomainError - ошибка с контекстом: где (Domain.Op), что (Kind) и
// почему (Err, необязательно).
type DomainError struct {
	Domain  string
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	var b strings.Builder
	b.WriteString(e.Domain)
	b.WriteByte('.')
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap отдаёт причину, а без неё - вид ошибки.
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is сопоставляет target и с видом, и с причиной.
func (e *DomainError) Is(target error) bool {
	return (e.Kind != nil && errors.Is(e.Kind, target)) ||
		(e.Err != nil && errors.Is(e.Err, target))
}

func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

// WrapError добавляет к err доменный контекст.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message, Err: err}
}

// Placement domain errors
var (
	ErrStudentNotFound      = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrUserNotFound         = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUniversityNotFound   = NewDomainError("university", "Find", ErrNotFound, "university not found")
	ErrSupervisorNotFound   = NewDomainError("supervisor", "Find", ErrNotFound, "supervisor not found")
	ErrOrganizationNotFound = NewDomainError("organization", "Find", ErrNotFound, "organization not found")
	ErrInternshipNotFound   = NewDomainError("internship", "Find", ErrNotFound, "internship not found")
	ErrApplicationNotFound  = NewDomainError("application", "Find", ErrNotFound, "application not found")
	ErrInvalidStartDate     = NewDomainError("internship", "ParseStartDate", ErrInvalidFormat, "start date is not YYYY-MM-DD")
	ErrInvalidStatus        = NewDomainError("application", "Validate", ErrInvalidInput, "unknown application status")
)

// Notification domain errors
var (
	ErrNotificationNotFound = NewDomainError("notification", "Find", ErrNotFound, "notification not found")
	ErrEmptyRecipient       = NewDomainError("notification", "Validate", ErrEmptyValue, "recipient is required")
	ErrEmptyTitle           = NewDomainError("notification", "Validate", ErrEmptyValue, "title is required")
)

func IsNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }
func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }

// IsValidation - ошибка во входных данных, отвечаем 400.
func IsValidation(err error) bool {
	for _, kind := range []error{ErrInvalidID, ErrInvalidInput, ErrEmptyValue, ErrInvalidFormat} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
