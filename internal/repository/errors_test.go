package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"not found", gorm.ErrRecordNotFound, ErrNotFound},
		{"exclusion", &pgconn.PgError{Code: "23P01"}, ErrOverlap},
		{"unique", &pgconn.PgError{Code: "23505"}, ErrDuplicate},
		{"deadlock", &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}, ErrRetryable},
		{"serialization", &pgconn.PgError{Code: "40001"}, ErrRetryable},
		{"sqlite trigger", errors.New("exclude_overlapping_bookings_per_resource"), ErrOverlap},
		{"sqlite unique", errors.New("UNIQUE constraint failed: resources.name"), ErrDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.in), tt.want)
		})
	}

	other := errors.New("connection refused")
	assert.Same(t, other, mapError(other))
	assert.NoError(t, mapError(nil))
}

func TestIsRetryable(t *testing.T) {
	// commit errors arrive unmapped and wrapped
	raw := fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40P01"})
	assert.True(t, IsRetryable(raw))
	assert.True(t, IsRetryable(mapError(&pgconn.PgError{Code: "40001"})))

	assert.False(t, IsRetryable(&pgconn.PgError{Code: "23P01"}))
	assert.False(t, IsRetryable(errors.New("deadlock")))
	assert.False(t, IsRetryable(nil))
}
