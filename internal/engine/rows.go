package engine

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"dbadmin/internal/domain"
	"dbadmin/internal/sanitizer"
)

// Row - строка таблицы: столбцы в порядке результата и значения по имени
type Row struct {
	Columns []string       `json:"columns"`
	Values  map[string]any `json:"values"`
}

// Get возвращает значение столбца или nil
func (r Row) Get(col string) any {
	return r.Values[col]
}

// Fields - значения для записи, столбец -> значение
type Fields map[string]any

// sortedColumns дает стабильный порядок столбцов в запросах
func (f Fields) sortedColumns() []string {
	cols := make([]string, 0, len(f))
	for c := range f {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// ListRows читает всю таблицу без ограничений
func (e *Engine) ListRows(ctx context.Context, db, table string) ([]Row, error) {
	qualified, err := sanitizer.Qualify(db, table)
	if err != nil {
		return nil, err
	}
	rows, err := e.query(ctx, "SELECT * FROM "+qualified)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// ListRowsPage читает не больше limit строк, начиная с offset
func (e *Engine) ListRowsPage(ctx context.Context, db, table string, limit, offset int) ([]Row, error) {
	qualified, err := sanitizer.Qualify(db, table)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || offset < 0 {
		return nil, fmt.Errorf("%w: некорректная страница limit=%d offset=%d", domain.ErrSchema, limit, offset)
	}
	var args sanitizer.Args
	q := "SELECT * FROM " + qualified + " LIMIT " + args.Bind(limit) + " OFFSET " + args.Bind(offset)
	rows, err := e.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// InsertRow вставляет одну строку
func (e *Engine) InsertRow(ctx context.Context, db, table string, fields Fields) error {
	qualified, err := sanitizer.Qualify(db, table)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return domain.ErrEmptyPayload
	}

	var args sanitizer.Args
	cols := fields.sortedColumns()
	names := make([]string, 0, len(cols))
	holders := make([]string, 0, len(cols))
	for _, c := range cols {
		id, err := sanitizer.QuoteIdentifier(c)
		if err != nil {
			return err
		}
		names = append(names, id.String())
		holders = append(holders, args.Bind(fields[c]))
	}

	q := "INSERT INTO " + qualified + " (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(holders, ", ") + ")"
	_, err = e.exec(ctx, q, args...)
	return err
}

// keyColumn определяет столбец-идентификатор строки по схеме таблицы
func (e *Engine) keyColumn(ctx context.Context, db, table string) (sanitizer.Identifier, error) {
	desc, err := e.Describe(ctx, db, table)
	if err != nil {
		return sanitizer.Identifier{}, err
	}
	name, err := desc.KeyColumn()
	if err != nil {
		return sanitizer.Identifier{}, err
	}
	return sanitizer.QuoteIdentifier(name)
}

// UpdateRow меняет строку с ключом id одним UPDATE ... SET col = ?, ...
func (e *Engine) UpdateRow(ctx context.Context, db, table string, id any, fields Fields) error {
	qualified, err := sanitizer.Qualify(db, table)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return domain.ErrEmptyPayload
	}

	var sets []string
	var args sanitizer.Args
	for _, c := range fields.sortedColumns() {
		col, err := sanitizer.QuoteIdentifier(c)
		if err != nil {
			return err
		}
		sets = append(sets, col.String()+" = "+args.Bind(fields[c]))
	}

	key, err := e.keyColumn(ctx, db, table)
	if err != nil {
		return err
	}

	q := "UPDATE " + qualified + " SET " + strings.Join(sets, ", ") + " WHERE " + key.String() + " = " + args.Bind(id)
	res, err := e.exec(ctx, q, args...)
	if err != nil {
		return err
	}
	return expectAffected(res, table, id)
}

// DeleteRow удаляет строку с ключом id
func (e *Engine) DeleteRow(ctx context.Context, db, table string, id any) error {
	qualified, err := sanitizer.Qualify(db, table)
	if err != nil {
		return err
	}
	key, err := e.keyColumn(ctx, db, table)
	if err != nil {
		return err
	}

	var args sanitizer.Args
	res, err := e.exec(ctx, "DELETE FROM "+qualified+" WHERE "+key.String()+" = "+args.Bind(id), args...)
	if err != nil {
		return err
	}
	return expectAffected(res, table, id)
}

// GetRowByID читает одну строку для формы редактирования
func (e *Engine) GetRowByID(ctx context.Context, db, table string, id any) (Row, error) {
	qualified, err := sanitizer.Qualify(db, table)
	if err != nil {
		return Row{}, err
	}
	key, err := e.keyColumn(ctx, db, table)
	if err != nil {
		return Row{}, err
	}

	var args sanitizer.Args
	rows, err := e.query(ctx, "SELECT * FROM "+qualified+" WHERE "+key.String()+" = "+args.Bind(id)+" LIMIT 1", args...)
	if err != nil {
		return Row{}, err
	}
	list, err := scanRows(rows)
	if err != nil {
		return Row{}, err
	}
	if len(list) == 0 {
		return Row{}, fmt.Errorf("%w: %s id=%v", domain.ErrNotFound, table, id)
	}
	return list[0], nil
}

func expectAffected(res sql.Result, table string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSchema, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s id=%v", domain.ErrNotFound, table, id)
	}
	return nil
}

// scanRows читает результат произвольной формы. Байтовые значения
// превращаются в строки, NULL остается nil.
func scanRows(rows *sql.Rows) ([]Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSchema, err)
	}

	var out []Row
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrSchema, err)
		}

		row := Row{Columns: cols, Values: make(map[string]any, len(cols))}
		for i, c := range cols {
			if b, ok := raw[i].([]byte); ok {
				row.Values[c] = string(b)
				continue
			}
			row.Values[c] = raw[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSchema, err)
	}
	return out, nil
}
