package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		duplicate   bool
		unavailable bool
		field       string
	}{
		{
			name:      "unique violation on email",
			err:       &pq.Error{Code: "23505", Constraint: "users_email_key"},
			duplicate: true,
			field:     "email",
		},
		{
			name:      "unique violation on dni wrapped",
			err:       fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "users_dni_key"}),
			duplicate: true,
			field:     "dni",
		},
		{
			name:      "unique violation on unknown constraint",
			err:       &pq.Error{Code: "23505", Constraint: "users_pkey"},
			duplicate: true,
		},
		{
			name:        "connection exception",
			err:         &pq.Error{Code: "08006"},
			unavailable: true,
		},
		{
			name:        "bad connection",
			err:         driver.ErrBadConn,
			unavailable: true,
		},
		{
			name:        "deadline",
			err:         context.DeadlineExceeded,
			unavailable: true,
		},
		{
			name:        "dial failure",
			err:         &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			unavailable: true,
		},
		{
			name: "value too long",
			err:  &pq.Error{Code: "22001"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			require.Error(t, got)
			assert.Equal(t, tt.duplicate, errors.Is(got, ErrDuplicateKey))
			assert.Equal(t, tt.unavailable, errors.Is(got, ErrStoreUnavailable))

			if tt.duplicate {
				var dupErr *DuplicateKeyError
				require.ErrorAs(t, got, &dupErr)
				assert.Equal(t, tt.field, dupErr.Field)
			}
		})
	}
}

func TestClassifyError_Nil(t *testing.T) {
	assert.NoError(t, classifyError(nil))
}

func TestDuplicateKeyError_Message(t *testing.T) {
	assert.Equal(t, "duplicate key: username already exists", (&DuplicateKeyError{Field: "username"}).Error())
	assert.Equal(t, "duplicate key", (&DuplicateKeyError{}).Error())
}
