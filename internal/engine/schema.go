package engine

import (
	"context"
	"fmt"
	"strings"

	"dbadmin/internal/domain"
	"dbadmin/internal/sanitizer"
)

// Column описывает столбец таблицы
type Column struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	IsPrimaryKey bool   `json:"is_primary_key"`
}

// Descriptor - описание таблицы, строится по запросу и не кешируется
type Descriptor struct {
	Database string   `json:"database"`
	Table    string   `json:"table"`
	Columns  []Column `json:"columns"`
}

// PrimaryKey возвращает столбцы первичного ключа в порядке объявления
func (d Descriptor) PrimaryKey() []string {
	var pk []string
	for _, c := range d.Columns {
		if c.IsPrimaryKey {
			pk = append(pk, c.Name)
		}
	}
	return pk
}

// Column ищет столбец без учета регистра, как и MySQL
func (d Descriptor) Column(name string) (Column, bool) {
	for _, c := range d.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Column{}, false
}

// KeyColumn - столбец, по которому адресуются строки: одиночный первичный
// ключ, а при его отсутствии столбец id.
func (d Descriptor) KeyColumn() (string, error) {
	switch pk := d.PrimaryKey(); len(pk) {
	case 1:
		return pk[0], nil
	case 0:
		if c, ok := d.Column("id"); ok {
			return c.Name, nil
		}
		return "", fmt.Errorf("%w: у таблицы %s нет первичного ключа и столбца id", domain.ErrSchema, d.Table)
	default:
		return "", fmt.Errorf("%w: составной первичный ключ (%s) не поддерживается", domain.ErrSchema, strings.Join(pk, ", "))
	}
}

var systemDatabases = map[string]bool{
	"information_schema": true,
	"mysql":              true,
	"performance_schema": true,
	"sys":                true,
}

// ListDatabases возвращает базы целевого сервера
func (e *Engine) ListDatabases(ctx context.Context) ([]string, error) {
	rows, err := e.query(ctx, "SHOW DATABASES")
	if err != nil {
		return nil, err
	}
	names, err := scanStrings(rows)
	if err != nil {
		return nil, err
	}
	if !e.opts.HideSystemDBs {
		return names, nil
	}

	out := names[:0]
	for _, n := range names {
		if !systemDatabases[strings.ToLower(n)] {
			out = append(out, n)
		}
	}
	return out, nil
}

// ListTables возвращает таблицы базы. Несуществующая база - ErrNotFound,
// а не пустой список.
func (e *Engine) ListTables(ctx context.Context, db string) ([]string, error) {
	if _, err := sanitizer.QuoteIdentifier(db); err != nil {
		return nil, err
	}
	if err := e.databaseExists(ctx, db); err != nil {
		return nil, err
	}
	var args sanitizer.Args
	rows, err := e.query(ctx,
		"SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = "+args.Bind(db)+" ORDER BY TABLE_NAME",
		args...)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

func (e *Engine) databaseExists(ctx context.Context, db string) error {
	var args sanitizer.Args
	rows, err := e.query(ctx,
		"SELECT SCHEMA_NAME FROM information_schema.SCHEMATA WHERE SCHEMA_NAME = "+args.Bind(db),
		args...)
	if err != nil {
		return err
	}
	found, err := scanStrings(rows)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return fmt.Errorf("%w: база %s", domain.ErrNotFound, db)
	}
	return nil
}

// ListColumns возвращает столбцы таблицы в порядке объявления
func (e *Engine) ListColumns(ctx context.Context, db, table string) ([]Column, error) {
	if _, err := sanitizer.QuoteIdentifiers(db, table); err != nil {
		return nil, err
	}

	var args sanitizer.Args
	q := "SELECT COLUMN_NAME, COLUMN_TYPE, COLUMN_KEY FROM information_schema.COLUMNS" +
		" WHERE TABLE_SCHEMA = " + args.Bind(db) + " AND TABLE_NAME = " + args.Bind(table) +
		" ORDER BY ORDINAL_POSITION"
	rows, err := e.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		var key string
		if err := rows.Scan(&c.Name, &c.Type, &key); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrSchema, err)
		}
		c.IsPrimaryKey = key == "PRI"
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSchema, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: таблица %s.%s", domain.ErrNotFound, db, table)
	}
	return cols, nil
}

// Describe собирает Descriptor таблицы
func (e *Engine) Describe(ctx context.Context, db, table string) (Descriptor, error) {
	cols, err := e.ListColumns(ctx, db, table)
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{Database: db, Table: table, Columns: cols}, nil
}

func (e *Engine) CreateDatabase(ctx context.Context, name string) error {
	id, err := sanitizer.QuoteIdentifier(name)
	if err != nil {
		return err
	}
	_, err = e.exec(ctx, "CREATE DATABASE "+id.String())
	return err
}

func (e *Engine) DropDatabase(ctx context.Context, name string) error {
	id, err := sanitizer.QuoteIdentifier(name)
	if err != nil {
		return err
	}
	_, err = e.exec(ctx, "DROP DATABASE "+id.String())
	return err
}

// ColumnDef - столбец в запросе на создание таблицы
type ColumnDef struct {
	Name         string
	Type         string
	IsPrimaryKey bool
}

// CreateTableSQL строит один CREATE TABLE со столбцами в заданном порядке
func CreateTableSQL(db, table string, columns []ColumnDef) (string, error) {
	if len(columns) == 0 {
		return "", fmt.Errorf("%w: таблица без столбцов", domain.ErrSchema)
	}
	qualified, err := sanitizer.Qualify(db, table)
	if err != nil {
		return "", err
	}

	defs := make([]string, 0, len(columns)+1)
	var pk []string
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		id, err := sanitizer.QuoteIdentifier(c.Name)
		if err != nil {
			return "", err
		}
		if seen[strings.ToLower(c.Name)] {
			return "", fmt.Errorf("%w: столбец %s повторяется", domain.ErrSchema, c.Name)
		}
		seen[strings.ToLower(c.Name)] = true

		typ, err := sanitizer.ColumnType(c.Type)
		if err != nil {
			return "", err
		}
		defs = append(defs, id.String()+" "+typ)
		if c.IsPrimaryKey {
			pk = append(pk, id.String())
		}
	}
	if len(pk) > 0 {
		defs = append(defs, "PRIMARY KEY ("+strings.Join(pk, ", ")+")")
	}
	return "CREATE TABLE " + qualified + " (" + strings.Join(defs, ", ") + ")", nil
}

func (e *Engine) CreateTable(ctx context.Context, db, table string, columns []ColumnDef) error {
	q, err := CreateTableSQL(db, table, columns)
	if err != nil {
		return err
	}
	_, err = e.exec(ctx, q)
	return err
}

func (e *Engine) DropTable(ctx context.Context, db, table string) error {
	qualified, err := sanitizer.Qualify(db, table)
	if err != nil {
		return err
	}
	_, err = e.exec(ctx, "DROP TABLE "+qualified)
	return err
}

func (e *Engine) AddColumn(ctx context.Context, db, table, name, typ string) error {
	qualified, err := sanitizer.Qualify(db, table)
	if err != nil {
		return err
	}
	col, err := sanitizer.QuoteIdentifier(name)
	if err != nil {
		return err
	}
	t, err := sanitizer.ColumnType(typ)
	if err != nil {
		return err
	}
	_, err = e.exec(ctx, "ALTER TABLE "+qualified+" ADD COLUMN "+col.String()+" "+t)
	return err
}

// DropColumn удаляет столбец. Перед удалением схема перечитывается, и
// столбец первичного ключа удалить нельзя никому.
func (e *Engine) DropColumn(ctx context.Context, db, table, name string) error {
	qualified, err := sanitizer.Qualify(db, table)
	if err != nil {
		return err
	}
	col, err := sanitizer.QuoteIdentifier(name)
	if err != nil {
		return err
	}

	desc, err := e.Describe(ctx, db, table)
	if err != nil {
		return err
	}
	c, ok := desc.Column(name)
	if !ok {
		return fmt.Errorf("%w: столбец %s", domain.ErrNotFound, name)
	}
	if c.IsPrimaryKey {
		return fmt.Errorf("%w: %s", domain.ErrPrimaryKeyProtected, name)
	}

	_, err = e.exec(ctx, "ALTER TABLE "+qualified+" DROP COLUMN "+col.String())
	return err
}
