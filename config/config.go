package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Области видимости пула целевого сервера
const (
	ScopeGlobal  = "global"
	ScopeSession = "session"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	JWT      JWTConfig
	Target   TargetConfig
	Web      WebConfig
}

type ServerConfig struct {
	Port    string
	Env     string
	LogJSON bool
}

// DatabaseConfig - параметры хранилища пользователей (не целевого сервера)
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type SessionConfig struct {
	Secret string
	MaxAge int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// TargetConfig - как живут пулы к администрируемым серверам
type TargetConfig struct {
	PoolScope     string
	MaxConns      int
	DialTimeout   time.Duration
	SessionPools  int
	HideSystemDBs bool
	PageSize      int
}

type WebConfig struct {
	TemplatesDir string
	StaticDir    string
	DefaultRole  string
}

func Load() (*Config, error) {
	jwtExpiration, err := time.ParseDuration(getEnv("JWT_EXPIRATION", "24h"))
	if err != nil {
		return nil, fmt.Errorf("JWT_EXPIRATION: %w", err)
	}
	dialTimeout, err := time.ParseDuration(getEnv("TARGET_DIAL_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("TARGET_DIAL_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:    getEnv("APP_PORT", "3000"),
			Env:     getEnv("APP_ENV", "development"),
			LogJSON: getEnvAsBool("LOG_JSON", false),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "dbms"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", ""),
			MaxAge: getEnvAsInt("SESSION_MAX_AGE", 86400),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: jwtExpiration,
		},
		Target: TargetConfig{
			PoolScope:     strings.ToLower(getEnv("TARGET_POOL_SCOPE", ScopeSession)),
			MaxConns:      getEnvAsInt("TARGET_MAX_CONNS", 10),
			DialTimeout:   dialTimeout,
			SessionPools:  getEnvAsInt("TARGET_SESSION_POOLS", 64),
			HideSystemDBs: getEnvAsBool("TARGET_HIDE_SYSTEM_DBS", false),
			PageSize:      getEnvAsInt("ROWS_PAGE_SIZE", 50),
		},
		Web: WebConfig{
			TemplatesDir: getEnv("TEMPLATES_DIR", "templates"),
			StaticDir:    getEnv("STATIC_DIR", "web"),
			DefaultRole:  getEnv("REGISTER_DEFAULT_ROLE", "user"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения, которые нельзя молча заменить дефолтом
func (c *Config) Validate() error {
	switch c.Target.PoolScope {
	case ScopeGlobal, ScopeSession:
	default:
		return fmt.Errorf("TARGET_POOL_SCOPE: неизвестная область %q", c.Target.PoolScope)
	}
	if c.Target.MaxConns <= 0 {
		return errors.New("TARGET_MAX_CONNS должен быть больше нуля")
	}
	if c.Target.SessionPools <= 0 {
		return errors.New("TARGET_SESSION_POOLS должен быть больше нуля")
	}
	if c.Target.PageSize <= 0 {
		return errors.New("ROWS_PAGE_SIZE должен быть больше нуля")
	}
	if c.Web.DefaultRole != "user" && c.Web.DefaultRole != "admin" {
		return fmt.Errorf("REGISTER_DEFAULT_ROLE: роль должна быть 'admin' или 'user', получено %q", c.Web.DefaultRole)
	}
	if c.IsProduction() && (c.Session.Secret == "" || c.JWT.Secret == "") {
		return errors.New("SESSION_SECRET и JWT_SECRET обязательны в production")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// DSN - строка подключения к хранилищу пользователей
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return defaultValue
}
