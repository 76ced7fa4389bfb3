// Package target управляет пулами соединений к администрируемым серверам.
//
// Пул выбирается по ключу: в режиме global ключ один на процесс, в режиме
// session у каждой сессии браузера свой пул. Замена пула атомарна для
// читателей: Active берет ссылку под read-lock, Configure меняет ссылку под
// write-lock. Старый пул закрывается, когда его отпустит последняя операция.
package target

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"dbadmin/config"
	"dbadmin/internal/domain"
	"dbadmin/pkg/database"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

const globalKey = "global"

// Opener открывает и проверяет пул. В продакшене это database.OpenTarget.
type Opener func(ctx context.Context, creds database.TargetCredentials, opts database.TargetOptions) (*sql.DB, error)

// Manager хранит активные пулы
type Manager struct {
	scope  string
	opts   database.TargetOptions
	open   Opener
	log    *zap.SugaredLogger
	mu     sync.RWMutex
	global *Pool
	pools  *lru.Cache // только для scope=session
}

// NewManager создает менеджер по настройкам TargetConfig
func NewManager(cfg config.TargetConfig, open Opener, log *zap.SugaredLogger) (*Manager, error) {
	m := &Manager{
		scope: cfg.PoolScope,
		opts: database.TargetOptions{
			MaxConns:    cfg.MaxConns,
			DialTimeout: cfg.DialTimeout,
		},
		open: open,
		log:  log,
	}
	if m.scope == config.ScopeSession {
		cache, err := lru.NewWithEvict(cfg.SessionPools, func(key, value interface{}) {
			// вытесненный пул теряет ссылку реестра
			if p, ok := value.(*Pool); ok {
				log.Infow("пул целевого сервера вытеснен из реестра", "key", key, "host", p.Host())
				p.Release()
			}
		})
		if err != nil {
			return nil, fmt.Errorf("реестр пулов: %w", err)
		}
		m.pools = cache
	}
	return m, nil
}

// Scope - global или session
func (m *Manager) Scope() string { return m.scope }

// Configure открывает новый пул и заменяет им активный пул для key.
// При ошибке подключения активный пул не меняется.
func (m *Manager) Configure(ctx context.Context, key string, creds database.TargetCredentials) (*Pool, error) {
	db, err := m.open(ctx, creds, m.opts)
	if err != nil {
		return nil, err
	}

	p := newPool(db, creds.Host, creds.User)
	p.onClose = func(p *Pool) {
		m.log.Debugw("пул целевого сервера закрыт", "host", p.Host())
	}

	m.mu.Lock()
	var old *Pool
	if m.pools != nil {
		// Add заменяет значение без колбэка вытеснения, ссылку старого пула
		// отпускаем сами
		if v, ok := m.pools.Peek(key); ok {
			old = v.(*Pool)
		}
		m.pools.Add(key, p)
	} else {
		old = m.global
		m.global = p
	}
	m.mu.Unlock()

	old.Release()

	m.log.Infow("пул целевого сервера настроен", "scope", m.scope, "host", creds.Host, "user", creds.User)
	return p, nil
}

// Active возвращает активный пул для key с захваченной ссылкой.
// Вызывающий обязан вызвать Release.
func (m *Manager) Active(key string) (*Pool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var p *Pool
	if m.pools != nil {
		if v, ok := m.pools.Get(key); ok {
			p = v.(*Pool)
		}
	} else {
		p = m.global
	}

	if p == nil || !p.acquire() {
		return nil, domain.ErrNotConfigured
	}
	return p, nil
}

// Forget убирает пул сессии из реестра (например, при выходе)
func (m *Manager) Forget(key string) {
	if m.pools == nil {
		return
	}
	m.mu.Lock()
	m.pools.Remove(key)
	m.mu.Unlock()
}

// Close отпускает все пулы реестра. Операции в работе дорабатывают.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pools != nil {
		m.pools.Purge()
		return
	}
	m.global.Release()
	m.global = nil
}

// Key возвращает ключ пула для сессии с учетом режима
func (m *Manager) Key(sessionKey string) string {
	if m.scope == config.ScopeGlobal {
		return globalKey
	}
	return sessionKey
}
