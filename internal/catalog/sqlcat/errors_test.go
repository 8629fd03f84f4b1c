package sqlcat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koustreak/IceFlow/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{
			name:  "deadline exceeded",
			err:   context.DeadlineExceeded,
			check: errs.IsTimeout,
		},
		{
			name:  "context canceled",
			err:   fmt.Errorf("query: %w", context.Canceled),
			check: errs.IsTimeout,
		},
		{
			name:  "no rows",
			err:   pgx.ErrNoRows,
			check: errs.IsNotFound,
		},
		{
			name:  "unique violation",
			err:   &pgconn.PgError{Code: "23505", Message: "duplicate key"},
			check: errs.IsAlreadyExists,
		},
		{
			name:  "connection exception class",
			err:   &pgconn.PgError{Code: "08006", Message: "connection failure"},
			check: errs.IsConnectionFailed,
		},
		{
			name:  "invalid authorization class",
			err:   &pgconn.PgError{Code: "28P01", Message: "password authentication failed"},
			check: errs.IsPermissionDenied,
		},
		{
			name:  "other server error",
			err:   &pgconn.PgError{Code: "42P01", Message: "relation does not exist"},
			check: errs.IsWriteFailed,
		},
		{
			name:  "network error fallthrough",
			err:   errors.New("dial tcp: connection refused"),
			check: errs.IsConnectionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapError(tt.err, "op failed")
			require.NotNil(t, mapped)
			assert.True(t, tt.check(mapped), "got kind %s", mapped.Kind)
			assert.ErrorIs(t, mapped, tt.err, "cause must be preserved")
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, mapError(nil, "unused"))
}

func TestMapError_KeepsServerMessage(t *testing.T) {
	mapped := mapError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"}, "create table")
	assert.Contains(t, mapped.Error(), "duplicate key value")
	assert.Contains(t, mapped.Error(), "create table")
}
