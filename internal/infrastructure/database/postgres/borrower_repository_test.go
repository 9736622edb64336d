package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"lending-engine/internal/domain/borrower"
	"lending-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var borrowerColumns = []string{"id", "full_name", "document_number", "address", "phone", "notes", "created_at"}

func setupBorrowerRepo(t *testing.T) (context.Context, *BorrowerRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}
	return context.Background(), NewBorrowerRepository(mockPool, logger), mockPool
}

func TestSaveBorrower(t *testing.T) {
	ctx, repo, mockPool := setupBorrowerRepo(t)
	defer mockPool.Close()
	createdAt := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	b := &borrower.Borrower{FullName: "Ana Souza", DocumentNumber: "123", Address: "Rua 1", Phone: "555"}

	mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO borrowers")).
		WithArgs("Ana Souza", "123", "Rua 1", "555", "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(8), createdAt))

	require.NoError(t, repo.Save(ctx, b))
	assert.Equal(t, int64(8), b.ID)
	assert.Equal(t, createdAt, b.CreatedAt)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSaveBorrowerDuplicateDocument(t *testing.T) {
	ctx, repo, mockPool := setupBorrowerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO borrowers")).
		WithArgs("Ana", "123", "Rua", "5", "").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "borrowers_document_number_key"})

	err := repo.Save(ctx, &borrower.Borrower{FullName: "Ana", DocumentNumber: "123", Address: "Rua", Phone: "5"})

	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSaveBorrowerDatabaseFailure(t *testing.T) {
	ctx, repo, mockPool := setupBorrowerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO borrowers")).
		WithArgs("Ana", "123", "Rua", "5", "").
		WillReturnError(&pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"})

	err := repo.Save(ctx, &borrower.Borrower{FullName: "Ana", DocumentNumber: "123", Address: "Rua", Phone: "5"})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "DB_ERROR", appErr.Code)
	assert.ErrorIs(t, err, apperrors.ErrDatabase)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestSaveNilBorrower(t *testing.T) {
	ctx, repo, mockPool := setupBorrowerRepo(t)
	defer mockPool.Close()

	assert.ErrorIs(t, repo.Save(ctx, nil), apperrors.ErrValidation)
}

func TestFindBorrowerByID(t *testing.T) {
	ctx, repo, mockPool := setupBorrowerRepo(t)
	defer mockPool.Close()
	createdAt := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery(regexp.QuoteMeta("FROM borrowers")).
		WithArgs(int64(8)).
		WillReturnRows(pgxmock.NewRows(borrowerColumns).AddRow(int64(8), "Ana", "123", "Rua 1", "555", "vip", createdAt))

	b, err := repo.FindByID(ctx, 8)

	require.NoError(t, err)
	assert.Equal(t, &borrower.Borrower{ID: 8, FullName: "Ana", DocumentNumber: "123", Address: "Rua 1", Phone: "555", Notes: "vip", CreatedAt: createdAt}, b)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindBorrowerByIDNotFound(t *testing.T) {
	ctx, repo, mockPool := setupBorrowerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta("FROM borrowers")).WithArgs(int64(8)).WillReturnError(pgx.ErrNoRows)

	b, err := repo.FindByID(ctx, 8)

	assert.Nil(t, b)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFindAllBorrowers(t *testing.T) {
	ctx, repo, mockPool := setupBorrowerRepo(t)
	defer mockPool.Close()
	now := time.Now()

	mockPool.ExpectQuery(regexp.QuoteMeta("ORDER BY id DESC")).
		WillReturnRows(pgxmock.NewRows(borrowerColumns).
			AddRow(int64(2), "Bia", "2", "Rua 2", "2", "", now).
			AddRow(int64(1), "Ana", "1", "Rua 1", "1", "", now))

	borrowers, err := repo.FindAll(ctx)

	require.NoError(t, err)
	require.Len(t, borrowers, 2)
	assert.Equal(t, int64(2), borrowers[0].ID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestBorrowerExists(t *testing.T) {
	ctx, repo, mockPool := setupBorrowerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM borrowers WHERE id = $1)")).
		WithArgs(int64(8)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.Exists(ctx, 8)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
