package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	"dbadmin/internal/domain"

	"github.com/go-sql-driver/mysql"
)

const defaultMySQLPort = "3306"

// TargetCredentials - параметры целевого сервера, которые вводит оператор
type TargetCredentials struct {
	Host     string
	User     string
	Password string
}

// TargetOptions - ограничения пула к целевому серверу
type TargetOptions struct {
	MaxConns    int
	DialTimeout time.Duration
}

// TargetConfig строит конфигурацию драйвера без выбранной базы.
// Значения не интерполируются: драйвер сам привязывает параметры на сервере.
func TargetConfig(creds TargetCredentials, opts TargetOptions) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = creds.User
	cfg.Passwd = creds.Password
	cfg.Net = "tcp"
	cfg.Addr = withDefaultPort(creds.Host)
	cfg.Timeout = opts.DialTimeout
	cfg.DBName = ""
	// UPDATE без изменений тоже считается найденной строкой
	cfg.ClientFoundRows = true
	return cfg
}

// OpenTarget открывает пул к целевому MySQL серверу и проверяет его.
// Ошибка сети или аутентификации возвращается как domain.ErrConnection.
func OpenTarget(ctx context.Context, creds TargetCredentials, opts TargetOptions) (*sql.DB, error) {
	if creds.Host == "" || creds.User == "" {
		return nil, fmt.Errorf("%w: хост и пользователь обязательны", domain.ErrConnection)
	}

	connector, err := mysql.NewConnector(TargetConfig(creds, opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}

	db := sql.OpenDB(connector)
	// Очередь ожидания не ограничена: database/sql блокирует вызывающего до
	// освобождения соединения.
	db.SetMaxOpenConns(opts.MaxConns)
	db.SetMaxIdleConns(opts.MaxConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	return db, nil
}

func withDefaultPort(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, defaultMySQLPort)
}
