// Package apierror defines the error taxonomy returned by the REST API.
//
// Every handler error is either an *Error (validation, conflict, authorization,
// not found) or an unexpected error that the error handler turns into a 500.
package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes for constraint violations.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// FieldError is one entry of the errors[] list, keyed by field or row.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Row     int    `json:"row,omitempty"`
	Message string `json:"message"`
}

type Error struct {
	Status  int
	Message string
	Errors  []FieldError
	cause   error
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Wrap keeps the underlying error for logging without exposing it to clients.
func (e *Error) Wrap(err error) *Error {
	e.cause = err
	return e
}

func (e *Error) WithErrors(errs ...FieldError) *Error {
	e.Errors = append(e.Errors, errs...)
	return e
}

func Validation(message string, errs ...FieldError) *Error {
	return New(http.StatusBadRequest, message).WithErrors(errs...)
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

func Internal(message string) *Error {
	return New(http.StatusInternalServerError, message)
}

// DBMessages holds the client facing messages used by FromDB.
type DBMessages struct {
	NotFound string
	Conflict string
	InUse    string
}

// FromDB translates a store error into the API taxonomy.
func FromDB(err error, msgs DBMessages) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound(orDefault(msgs.NotFound, "Resource not found")).Wrap(err)
	case IsUniqueViolation(err):
		return Conflict(orDefault(msgs.Conflict, "Resource already exists")).Wrap(err)
	case IsForeignKeyViolation(err):
		return Conflict(orDefault(msgs.InUse, "Resource is referenced by other records")).Wrap(err)
	}
	return Internal("Internal server error").Wrap(err)
}

func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func IsForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
