package postgres

import (
	"errors"
	"testing"

	"lending-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateDBError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantErr     error
		wantAppCode string
		wantMessage string
	}{
		{"no rows", pgx.ErrNoRows, apperrors.ErrNotFound, "", ""},
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "borrowers_document_number_key"}, apperrors.ErrAlreadyExists, "", ""},
		{"other postgres error", &pgconn.PgError{Code: "23514", Message: "check violation"}, apperrors.ErrDatabase, "DB_ERROR", "postgres error code 23514"},
		{"driver error", errors.New("conn closed"), apperrors.ErrDatabase, "DB_ERROR", "database operation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateDBError(tt.err, logger)

			assert.ErrorIs(t, err, tt.wantErr)
			var appErr *apperrors.AppError
			if tt.wantAppCode == "" {
				assert.False(t, errors.As(err, &appErr))
				return
			}
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantAppCode, appErr.Code)
			assert.Equal(t, tt.wantMessage, appErr.Message)
		})
	}
}

func TestTranslateDBErrorNil(t *testing.T) {
	assert.NoError(t, translateDBError(nil, logger))
}
