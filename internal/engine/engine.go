// Package engine выполняет операции со схемой и строками на целевом сервере.
//
// Имена проходят через sanitizer, значения всегда привязываются параметрами.
// Каждый вызов - отдельная единица работы, транзакций между вызовами нет.
package engine

import (
	"context"
	"database/sql"
	"fmt"

	"dbadmin/internal/domain"

	"go.uber.org/zap"
)

// DB - то, что engine использует от *sql.DB
type DB interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Options - поведение, настраиваемое через конфиг
type Options struct {
	HideSystemDBs bool
}

type Engine struct {
	db   DB
	opts Options
	log  *zap.SugaredLogger
}

// New создает engine поверх пула, захваченного для текущего запроса
func New(db DB, opts Options, log *zap.SugaredLogger) *Engine {
	return &Engine{db: db, opts: opts, log: log}
}

func (e *Engine) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	e.log.Debugw("exec", "sql", query, "args", len(args))
	res, err := e.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSchema, err)
	}
	return res, nil
}

func (e *Engine) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	e.log.Debugw("query", "sql", query, "args", len(args))
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSchema, err)
	}
	return rows, nil
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrSchema, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSchema, err)
	}
	return out, nil
}
