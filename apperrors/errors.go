// Package apperrors maps domain, ORM and driver failures onto the HTTP
// status and message pairs returned by the API.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Code identifies an error class in API responses.
type Code string

const (
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeForbidden        Code = "FORBIDDEN"
	CodeNotFound         Code = "NOT_FOUND"
	CodeConflict         Code = "CONFLICT"
	CodeInvalidReference Code = "INVALID_REFERENCE"
	CodeRateLimited      Code = "RATE_LIMITED"
	CodePayloadTooLarge  Code = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMedia Code = "UNSUPPORTED_MEDIA_TYPE"
	CodeInternal         Code = "INTERNAL_ERROR"
)

// Error is an API-facing error. Message is safe to return to clients; Err is
// the underlying cause and is only logged.
type Error struct {
	Code    Code
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so callers can write errors.Is(err, apperrors.ErrNotFound).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation   = &Error{Code: CodeValidation}
	ErrUnauthorized = &Error{Code: CodeUnauthorized}
	ErrForbidden    = &Error{Code: CodeForbidden}
	ErrNotFound     = &Error{Code: CodeNotFound}
	ErrConflict     = &Error{Code: CodeConflict}
)

func New(code Code, status int, msg string) *Error {
	return &Error{Code: code, Status: status, Message: msg}
}

func Validation(msg string) *Error {
	return New(CodeValidation, http.StatusBadRequest, msg)
}

func Validationf(format string, args ...interface{}) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

func Unauthorized(msg string) *Error {
	return New(CodeUnauthorized, http.StatusUnauthorized, msg)
}

func Forbidden(msg string) *Error {
	return New(CodeForbidden, http.StatusForbidden, msg)
}

func NotFound(resource string) *Error {
	return New(CodeNotFound, http.StatusNotFound, resource+" not found")
}

func Conflict(msg string) *Error {
	return New(CodeConflict, http.StatusConflict, msg)
}

func RateLimited() *Error {
	return New(CodeRateLimited, http.StatusTooManyRequests, "too many requests")
}

func PayloadTooLarge(limit int64) *Error {
	return New(CodePayloadTooLarge, http.StatusRequestEntityTooLarge, fmt.Sprintf("payload exceeds %d bytes", limit))
}

func UnsupportedMedia(contentType string) *Error {
	return New(CodeUnsupportedMedia, http.StatusUnsupportedMediaType, fmt.Sprintf("content type %s is not allowed", contentType))
}

func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Message: "internal server error", Err: err}
}

// pgCodes maps postgres SQLSTATE codes that gorm does not translate.
var pgCodes = map[string]*Error{
	"23505": {Code: CodeConflict, Status: http.StatusConflict, Message: "resource already exists"},
	"23503": {Code: CodeInvalidReference, Status: http.StatusBadRequest, Message: "referenced resource does not exist"},
	"23502": {Code: CodeValidation, Status: http.StatusBadRequest, Message: "required field is missing"},
	"23514": {Code: CodeValidation, Status: http.StatusBadRequest, Message: "value violates a constraint"},
	"22P02": {Code: CodeValidation, Status: http.StatusBadRequest, Message: "malformed value"},
	"22001": {Code: CodeValidation, Status: http.StatusBadRequest, Message: "value too long"},
}

// From classifies err. An *Error already in the chain wins; otherwise the
// ORM and driver tables are consulted, falling back to Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: "resource not found", Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Code: CodeConflict, Status: http.StatusConflict, Message: "resource already exists", Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &Error{Code: CodeInvalidReference, Status: http.StatusBadRequest, Message: "referenced resource does not exist", Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if mapped, ok := pgCodes[pgErr.Code]; ok {
			return &Error{Code: mapped.Code, Status: mapped.Status, Message: mapped.Message, Err: err}
		}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &Error{
			Code:    CodeValidation,
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("field %s failed on the '%s' rule", fe.Field(), fe.Tag()),
			Err:     err,
		}
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return &Error{Code: CodePayloadTooLarge, Status: http.StatusRequestEntityTooLarge, Message: fmt.Sprintf("payload exceeds %d bytes", maxErr.Limit), Err: err}
	}

	return Internal(err)
}
