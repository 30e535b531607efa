package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ConstraintError reports a unique or foreign key violation raised by
// Postgres. Pre-insert existence checks race with concurrent writers, so the
// database constraint is the final authority; the constraint name lets
// callers map the violation back to the offending request field.
type ConstraintError struct {
	Constraint string
	Unique     bool
	cause      error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint %s violated: %v", e.Constraint, e.cause)
}

func (e *ConstraintError) Unwrap() error { return e.cause }

// translateDBError converts pq unique (23505) and foreign key (23503)
// violations into *ConstraintError and passes every other error through.
func translateDBError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505":
		return &ConstraintError{Constraint: pqErr.Constraint, Unique: true, cause: err}
	case "23503":
		return &ConstraintError{Constraint: pqErr.Constraint, cause: err}
	}
	return err
}
