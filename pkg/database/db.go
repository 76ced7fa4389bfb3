package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dbadmin/config"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const identitySchema = `
CREATE TABLE IF NOT EXISTS users (
	id            SERIAL PRIMARY KEY,
	name          VARCHAR(100) NOT NULL,
	email         VARCHAR(255) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	role          VARCHAR(10)  NOT NULL DEFAULT 'user'
)`

// Connect открывает пул к хранилищу пользователей (PostgreSQL)
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *zap.SugaredLogger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к базе данных: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("не удалось проверить подключение: %w", err)
	}

	log.Infow("подключение к хранилищу пользователей установлено", "host", cfg.Host, "db", cfg.Name)
	return db, nil
}

// EnsureIdentitySchema создает таблицу пользователей, если ее нет
func EnsureIdentitySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, identitySchema); err != nil {
		return fmt.Errorf("создание таблицы users: %w", err)
	}
	return nil
}
