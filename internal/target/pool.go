package target

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"
)

// Pool - пул соединений к целевому серверу со счетчиком ссылок.
// Реестр держит одну ссылку, каждая операция берет свою через Active.
// Пул закрывается, когда отпущена последняя ссылка.
type Pool struct {
	db        *sql.DB
	host      string
	user      string
	createdAt time.Time
	refs      atomic.Int32
	onClose   func(*Pool)
}

func newPool(db *sql.DB, host, user string) *Pool {
	p := &Pool{db: db, host: host, user: user, createdAt: time.Now()}
	p.refs.Store(1)
	return p
}

// DB возвращает *sql.DB, безопасный для конкурентного использования
func (p *Pool) DB() *sql.DB { return p.db }

// Host - сервер, к которому открыт пул
func (p *Pool) Host() string { return p.host }

// User - пользователь целевого сервера
func (p *Pool) User() string { return p.user }

func (p *Pool) CreatedAt() time.Time { return p.createdAt }

// acquire увеличивает счетчик, если пул еще жив
func (p *Pool) acquire() bool {
	for {
		n := p.refs.Load()
		if n <= 0 {
			return false
		}
		if p.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Release отпускает ссылку. Последний Release закрывает пул.
func (p *Pool) Release() {
	if p == nil {
		return
	}
	if p.refs.Add(-1) == 0 {
		_ = p.db.Close()
		if p.onClose != nil {
			p.onClose(p)
		}
	}
}

// Refs - текущее число ссылок
func (p *Pool) Refs() int32 { return p.refs.Load() }

type ctxKey struct{}

// WithPool кладет захваченный пул в контекст запроса
func WithPool(ctx context.Context, p *Pool) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext возвращает пул, захваченный для текущего запроса
func FromContext(ctx context.Context) (*Pool, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Pool)
	return p, ok && p != nil
}
