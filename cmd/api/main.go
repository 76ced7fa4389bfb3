package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dbadmin/config"
	"dbadmin/internal/auth"
	"dbadmin/internal/handler"
	"dbadmin/internal/logging"
	"dbadmin/internal/repository"
	"dbadmin/internal/target"
	"dbadmin/pkg/database"

	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Загружаем .env файл
	envErr := godotenv.Load()

	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		log := logging.NewLogger(false, false)
		log.Fatalw("❌ ошибка конфигурации", "error", err)
	}

	log := logging.NewLogger(cfg.Server.LogJSON, !cfg.IsProduction())
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Info("файл .env не найден, используем переменные окружения")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatalw("❌ сервер остановлен с ошибкой", "error", err)
	}
	log.Info("сервер остановлен")
}

func run(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	// Подключаемся к хранилищу пользователей
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	db, err := database.Connect(connectCtx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.EnsureIdentitySchema(connectCtx, db); err != nil {
		return err
	}

	pools, err := target.NewManager(cfg.Target, database.OpenTarget, log)
	if err != nil {
		return err
	}
	defer pools.Close()

	sessionSecret := secretOrRandom(cfg.Session.Secret, "SESSION_SECRET", log)
	store := sessions.NewCookieStore([]byte(sessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.Session.MaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	tokens := auth.NewTokens(secretOrRandom(cfg.JWT.Secret, "JWT_SECRET", log), cfg.JWT.Expiration)

	// Создаем обработчик
	h := handler.NewHandler(
		cfg,
		repository.NewUserRepository(db),
		pools,
		store,
		tokens,
		handler.NewTemplateRenderer(cfg.Web.TemplatesDir, log),
		log,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("✅ сервер запущен", "addr", "http://localhost:"+cfg.Server.Port, "pool_scope", cfg.Target.PoolScope)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// secretOrRandom возвращает секрет из конфигурации. Вне production пустой
// секрет заменяется случайным, сессии и токены живут до перезапуска.
func secretOrRandom(secret, name string, log *zap.SugaredLogger) string {
	if secret != "" {
		return secret
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalw("❌ не удалось сгенерировать секрет", "name", name, "error", err)
	}
	log.Warnw("секрет не задан, используется случайный", "name", name)
	return hex.EncodeToString(buf)
}
