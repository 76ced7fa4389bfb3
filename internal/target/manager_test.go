package target

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"dbadmin/config"
	"dbadmin/internal/domain"
	"dbadmin/internal/testutil"
	"dbadmin/pkg/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServers выдает по одному sqlmock на каждый хост
type fakeServers struct {
	mu     sync.Mutex
	mocks  map[string]sqlmock.Sqlmock
	failOn map[string]bool
	opened int
}

func newFakeServers() *fakeServers {
	return &fakeServers{mocks: map[string]sqlmock.Sqlmock{}, failOn: map[string]bool{}}
}

func (f *fakeServers) open(_ context.Context, creds database.TargetCredentials, _ database.TargetOptions) (*sql.DB, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn[creds.Host] {
		return nil, errors.Join(domain.ErrConnection, errors.New("access denied"))
	}
	db, mock, err := sqlmock.New()
	if err != nil {
		return nil, err
	}
	mock.ExpectClose()
	f.mocks[creds.Host] = mock
	f.opened++
	return db, nil
}

func (f *fakeServers) closed(host string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mocks[host].ExpectationsWereMet() == nil
}

func newManager(t *testing.T, scope string, f *fakeServers) *Manager {
	t.Helper()
	m, err := NewManager(config.TargetConfig{
		PoolScope:    scope,
		MaxConns:     10,
		DialTimeout:  time.Second,
		SessionPools: 2,
	}, f.open, testutil.NewTestLogger(t))
	require.NoError(t, err)
	return m
}

func creds(host string) database.TargetCredentials {
	return database.TargetCredentials{Host: host, User: "root", Password: "secret"}
}

func TestManager_ActiveBeforeConfigure(t *testing.T) {
	for _, scope := range []string{config.ScopeGlobal, config.ScopeSession} {
		t.Run(scope, func(t *testing.T) {
			m := newManager(t, scope, newFakeServers())
			_, err := m.Active(m.Key("s1"))
			assert.ErrorIs(t, err, domain.ErrNotConfigured)
		})
	}
}

func TestManager_ConfigureReplaces(t *testing.T) {
	f := newFakeServers()
	m := newManager(t, config.ScopeGlobal, f)
	key := m.Key("ignored")
	ctx := context.Background()

	_, err := m.Configure(ctx, key, creds("alpha"))
	require.NoError(t, err)

	p, err := m.Active(key)
	require.NoError(t, err)
	assert.Equal(t, "alpha", p.Host())
	p.Release()

	_, err = m.Configure(ctx, key, creds("beta"))
	require.NoError(t, err)

	p, err = m.Active(key)
	require.NoError(t, err)
	assert.Equal(t, "beta", p.Host())
	p.Release()

	assert.True(t, f.closed("alpha"), "замененный пул без ссылок должен закрыться")
	assert.False(t, f.closed("beta"))

	m.Close()
	assert.True(t, f.closed("beta"))
}

func TestManager_InFlightKeepsOldPool(t *testing.T) {
	f := newFakeServers()
	m := newManager(t, config.ScopeGlobal, f)
	key := m.Key("")
	ctx := context.Background()

	_, err := m.Configure(ctx, key, creds("alpha"))
	require.NoError(t, err)

	inFlight, err := m.Active(key)
	require.NoError(t, err)

	_, err = m.Configure(ctx, key, creds("beta"))
	require.NoError(t, err)

	assert.False(t, f.closed("alpha"), "операция в работе держит старый пул")
	assert.Equal(t, "alpha", inFlight.Host())
	assert.Equal(t, int32(1), inFlight.Refs())

	inFlight.Release()
	assert.True(t, f.closed("alpha"))
}

func TestManager_ConnectionErrorKeepsActivePool(t *testing.T) {
	f := newFakeServers()
	f.failOn["down"] = true
	m := newManager(t, config.ScopeGlobal, f)
	key := m.Key("")
	ctx := context.Background()

	_, err := m.Configure(ctx, key, creds("alpha"))
	require.NoError(t, err)

	_, err = m.Configure(ctx, key, creds("down"))
	require.ErrorIs(t, err, domain.ErrConnection)

	p, err := m.Active(key)
	require.NoError(t, err)
	defer p.Release()
	assert.Equal(t, "alpha", p.Host())
}

func TestManager_SessionScopeIsolation(t *testing.T) {
	f := newFakeServers()
	m := newManager(t, config.ScopeSession, f)
	ctx := context.Background()

	_, err := m.Configure(ctx, m.Key("s1"), creds("alpha"))
	require.NoError(t, err)

	_, err = m.Active(m.Key("s2"))
	assert.ErrorIs(t, err, domain.ErrNotConfigured, "чужая сессия не видит пул")

	_, err = m.Configure(ctx, m.Key("s2"), creds("beta"))
	require.NoError(t, err)

	p1, err := m.Active(m.Key("s1"))
	require.NoError(t, err)
	p2, err := m.Active(m.Key("s2"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", p1.Host())
	assert.Equal(t, "beta", p2.Host())
	p1.Release()
	p2.Release()

	m.Forget(m.Key("s1"))
	assert.True(t, f.closed("alpha"))
	_, err = m.Active(m.Key("s1"))
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestManager_SessionEviction(t *testing.T) {
	f := newFakeServers()
	m := newManager(t, config.ScopeSession, f) // емкость 2
	ctx := context.Background()

	for i, host := range []string{"alpha", "beta", "gamma"} {
		_, err := m.Configure(ctx, m.Key(host), creds(host))
		require.NoError(t, err, "configure %d", i)
	}

	assert.True(t, f.closed("alpha"), "самый старый пул вытеснен и закрыт")
	assert.False(t, f.closed("beta"))
	assert.False(t, f.closed("gamma"))

	m.Close()
	assert.True(t, f.closed("beta"))
	assert.True(t, f.closed("gamma"))
}

func TestManager_ConcurrentReplaceIsAtomic(t *testing.T) {
	f := newFakeServers()
	m := newManager(t, config.ScopeGlobal, f)
	key := m.Key("")
	ctx := context.Background()

	_, err := m.Configure(ctx, key, creds("h0"))
	require.NoError(t, err)

	hosts := map[string]bool{"h0": true, "h1": true, "h2": true, "h3": true}

	var wg sync.WaitGroup
	for i := 1; i <= 3; i++ {
		wg.Add(1)
		go func(h string) {
			defer wg.Done()
			_, err := m.Configure(ctx, key, creds(h))
			assert.NoError(t, err)
		}([]string{"", "h1", "h2", "h3"}[i])
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := m.Active(key)
			if !assert.NoError(t, err) {
				return
			}
			defer p.Release()
			assert.True(t, hosts[p.Host()])
			assert.NotNil(t, p.DB())
			assert.Greater(t, p.Refs(), int32(0))
		}()
	}
	wg.Wait()

	p, err := m.Active(key)
	require.NoError(t, err)
	last := p.Host()
	p.Release()

	m.Close()
	for h := range hosts {
		assert.True(t, f.closed(h), "пул %s должен быть закрыт, последний активный %s", h, last)
	}
}

func TestPoolContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	p := &Pool{host: "alpha"}
	got, ok := FromContext(WithPool(context.Background(), p))
	require.True(t, ok)
	assert.Same(t, p, got)
}
