package engine

import (
	"context"

	"dbadmin/internal/auth"
	"dbadmin/internal/domain"
)

// Guarded ставит проверку роли перед каждой операцией engine.
// Чтение доступно любому вошедшему, изменения - только admin.
// Отклоненный вызов не отправляет на сервер ни одного запроса.
type Guarded struct {
	eng *Engine
	who *domain.SessionIdentity
}

// Guard связывает engine с пользователем текущего запроса
func Guard(eng *Engine, who *domain.SessionIdentity) *Guarded {
	return &Guarded{eng: eng, who: who}
}

func (g *Guarded) read() error  { return auth.RequireAuthenticated(g.who) }
func (g *Guarded) write() error { return auth.RequireRole(g.who, domain.RoleAdmin) }

func (g *Guarded) ListDatabases(ctx context.Context) ([]string, error) {
	if err := g.read(); err != nil {
		return nil, err
	}
	return g.eng.ListDatabases(ctx)
}

func (g *Guarded) ListTables(ctx context.Context, db string) ([]string, error) {
	if err := g.read(); err != nil {
		return nil, err
	}
	return g.eng.ListTables(ctx, db)
}

func (g *Guarded) ListColumns(ctx context.Context, db, table string) ([]Column, error) {
	if err := g.read(); err != nil {
		return nil, err
	}
	return g.eng.ListColumns(ctx, db, table)
}

func (g *Guarded) Describe(ctx context.Context, db, table string) (Descriptor, error) {
	if err := g.read(); err != nil {
		return Descriptor{}, err
	}
	return g.eng.Describe(ctx, db, table)
}

func (g *Guarded) ListRows(ctx context.Context, db, table string) ([]Row, error) {
	if err := g.read(); err != nil {
		return nil, err
	}
	return g.eng.ListRows(ctx, db, table)
}

func (g *Guarded) ListRowsPage(ctx context.Context, db, table string, limit, offset int) ([]Row, error) {
	if err := g.read(); err != nil {
		return nil, err
	}
	return g.eng.ListRowsPage(ctx, db, table, limit, offset)
}

// GetRowByID нужен только форме редактирования, поэтому тоже admin
func (g *Guarded) GetRowByID(ctx context.Context, db, table string, id any) (Row, error) {
	if err := g.write(); err != nil {
		return Row{}, err
	}
	return g.eng.GetRowByID(ctx, db, table, id)
}

func (g *Guarded) CreateDatabase(ctx context.Context, name string) error {
	if err := g.write(); err != nil {
		return err
	}
	return g.eng.CreateDatabase(ctx, name)
}

func (g *Guarded) DropDatabase(ctx context.Context, name string) error {
	if err := g.write(); err != nil {
		return err
	}
	return g.eng.DropDatabase(ctx, name)
}

func (g *Guarded) CreateTable(ctx context.Context, db, table string, columns []ColumnDef) error {
	if err := g.write(); err != nil {
		return err
	}
	return g.eng.CreateTable(ctx, db, table, columns)
}

func (g *Guarded) DropTable(ctx context.Context, db, table string) error {
	if err := g.write(); err != nil {
		return err
	}
	return g.eng.DropTable(ctx, db, table)
}

func (g *Guarded) AddColumn(ctx context.Context, db, table, name, typ string) error {
	if err := g.write(); err != nil {
		return err
	}
	return g.eng.AddColumn(ctx, db, table, name, typ)
}

func (g *Guarded) DropColumn(ctx context.Context, db, table, name string) error {
	if err := g.write(); err != nil {
		return err
	}
	return g.eng.DropColumn(ctx, db, table, name)
}

func (g *Guarded) InsertRow(ctx context.Context, db, table string, fields Fields) error {
	if err := g.write(); err != nil {
		return err
	}
	return g.eng.InsertRow(ctx, db, table, fields)
}

func (g *Guarded) UpdateRow(ctx context.Context, db, table string, id any, fields Fields) error {
	if err := g.write(); err != nil {
		return err
	}
	return g.eng.UpdateRow(ctx, db, table, id, fields)
}

func (g *Guarded) DeleteRow(ctx context.Context, db, table string, id any) error {
	if err := g.write(); err != nil {
		return err
	}
	return g.eng.DeleteRow(ctx, db, table, id)
}
