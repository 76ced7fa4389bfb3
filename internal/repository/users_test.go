package repository

import (
	"context"
	"errors"
	"testing"

	"dbadmin/internal/domain"
	"dbadmin/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := testutil.NewMockDB(t)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return NewUserRepository(db), mock
}

func TestUserRepository_Create(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING id`).
		WithArgs("Ana", "ana@example.com", "hash", "user").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	u, err := repo.Create(context.Background(), "Ana", "ana@example.com", "hash", domain.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, 5, u.ID)
	assert.Equal(t, domain.RoleUser, u.Role)
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING id`).
		WithArgs("Ana", "ana@example.com", "hash", "user").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), "Ana", "ana@example.com", "hash", domain.RoleUser)
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`SELECT id, name, email, password_hash, role FROM users WHERE email = $1`).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role"}).
			AddRow(5, "Ana", "ana@example.com", "hash", "admin"))

	u, err := repo.GetByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, &domain.Identity{ID: 5, Name: "Ana", Email: "ana@example.com", PasswordHash: "hash", Role: domain.RoleAdmin}, u)
}

func TestUserRepository_GetByIDMissing(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`SELECT id, name, email, password_hash, role FROM users WHERE id = $1`).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role"}))

	_, err := repo.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_UpdateRole(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`UPDATE users SET role = $1 WHERE id = $2`).
		WithArgs("admin", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET role = $1 WHERE id = $2`).
		WithArgs("user", 6).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE users SET role = $1 WHERE id = $2`).
		WithArgs("user", 7).
		WillReturnError(errors.New("conn reset"))

	ctx := context.Background()
	require.NoError(t, repo.UpdateRole(ctx, 5, domain.RoleAdmin))
	assert.ErrorIs(t, repo.UpdateRole(ctx, 6, domain.RoleUser), domain.ErrNotFound)
	assert.Error(t, repo.UpdateRole(ctx, 7, domain.RoleUser))
}
