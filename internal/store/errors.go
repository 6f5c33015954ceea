package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"
)

var (
	// ErrDuplicateKey is returned when an insert collides with a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrStoreUnavailable is returned when the database cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)

const pqUniqueViolation = pq.ErrorCode("23505")

var constraintFields = map[string]string{
	"users_username_key": "username",
	"users_dni_key":      "dni",
	"users_email_key":    "email",
}

// DuplicateKeyError reports which unique field an insert collided with.
// Field is empty when the constraint is not recognized.
type DuplicateKeyError struct {
	Field      string
	Constraint string
}

func (e *DuplicateKeyError) Error() string {
	if e.Field == "" {
		return ErrDuplicateKey.Error()
	}
	return fmt.Sprintf("duplicate key: %s already exists", e.Field)
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// classifyError maps driver errors onto the store's error taxonomy.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == pqUniqueViolation {
			return &DuplicateKeyError{
				Field:      constraintFields[pqErr.Constraint],
				Constraint: pqErr.Constraint,
			}
		}
		// Class 08 - Connection Exception.
		if strings.HasPrefix(string(pqErr.Code), "08") {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return err
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return err
}
