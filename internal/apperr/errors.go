// Package apperr holds the error kinds surfaced by the marketplace services.
//
// Callers branch on the kind, never on the message: validation errors are the
// caller's fault, not-found errors name a missing entity, and database errors
// wrap whatever the store returned. A database error flagged as a conflict is a
// concurrency signal (two writers raced on a unique key) and is recoverable by
// re-reading state.
package apperr

import (
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

// SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

type DatabaseError struct {
	Op       string
	Err      error
	Conflict bool
}

func (e *DatabaseError) Error() string {
	if e.Conflict {
		return fmt.Sprintf("%s: conflict: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

func Validation(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

func NotFound(resource string, id any) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// Conflict builds a database error carrying the concurrency flag.
func Conflict(op string, err error) error {
	return &DatabaseError{Op: op, Err: err, Conflict: true}
}

// Database classifies a store error under op. Unique violations become
// conflicts and pgx.ErrNoRows becomes a bare NotFoundError for resource.
// Errors that are already classified pass through unchanged.
func Database(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	var nf *NotFoundError
	var de *DatabaseError
	if stderrors.As(err, &ve) || stderrors.As(err, &nf) || stderrors.As(err, &de) {
		return err
	}
	if stderrors.Is(err, pgx.ErrNoRows) {
		return &NotFoundError{Resource: resource}
	}
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &DatabaseError{Op: op, Err: errors.Wrap(err, pgErr.ConstraintName), Conflict: true}
	}
	return &DatabaseError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return stderrors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return stderrors.As(err, &nf)
}

func IsConflict(err error) bool {
	var de *DatabaseError
	return stderrors.As(err, &de) && de.Conflict
}

func IsDatabase(err error) bool {
	var de *DatabaseError
	return stderrors.As(err, &de)
}
