package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dbadmin/internal/domain"

	"github.com/lib/pq"
)

// UserStore - хранилище пользователей с фиксированной схемой
type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash string, role domain.Role) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	GetByID(ctx context.Context, id int) (*domain.Identity, error)
	UpdateRole(ctx context.Context, id int, role domain.Role) error
}

// UserRepository - реализация UserStore поверх PostgreSQL
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const uniqueViolation = "23505"

func (r *UserRepository) Create(ctx context.Context, name, email, passwordHash string, role domain.Role) (*domain.Identity, error) {
	u := &domain.Identity{Name: name, Email: email, PasswordHash: passwordHash, Role: role}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING id`,
		name, email, passwordHash, string(role),
	).Scan(&u.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return r.getOne(ctx, `SELECT id, name, email, password_hash, role FROM users WHERE email = $1`, email)
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*domain.Identity, error) {
	return r.getOne(ctx, `SELECT id, name, email, password_hash, role FROM users WHERE id = $1`, id)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*domain.Identity, error) {
	var u domain.Identity
	var role string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, id int, role domain.Role) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET role = $1 WHERE id = $2`, string(role), id)
	if err != nil {
		return fmt.Errorf("обновление роли: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("обновление роли: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
