package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"dbadmin/internal/auth"
	"dbadmin/internal/domain"
	"dbadmin/internal/target"
)

type identityKey struct{}

func withIdentity(ctx context.Context, who *domain.SessionIdentity) context.Context {
	return context.WithValue(ctx, identityKey{}, who)
}

// identityFrom возвращает пользователя запроса или nil
func identityFrom(ctx context.Context) *domain.SessionIdentity {
	who, _ := ctx.Value(identityKey{}).(*domain.SessionIdentity)
	return who
}

// loadIdentity кладет пользователя в контекст: из сессии, а если ее нет -
// из bearer токена. Роль каждый раз перечитывается из хранилища, поэтому
// смена роли действует сразу и на чужие сессии, и на выданные токены.
func (h *Handler) loadIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var who *domain.SessionIdentity

		if v, ok := h.session(r).Values[keyUser].(domain.SessionIdentity); ok {
			who = &v
		} else if token := auth.GetTokenFromRequest(r); token != "" {
			claims, err := h.Tokens.ValidateToken(token)
			if err != nil {
				h.Log.Debugw("bearer токен отклонен", "error", err)
			} else {
				who = claims.Identity()
			}
		}

		if who != nil {
			who = h.refreshIdentity(r, who)
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), who)))
	})
}

// refreshIdentity возвращает актуальную запись пользователя. Удаленный
// пользователь или недоступное хранилище дают анонимный запрос.
func (h *Handler) refreshIdentity(r *http.Request, who *domain.SessionIdentity) *domain.SessionIdentity {
	u, err := h.Users.GetByID(r.Context(), who.ID)
	if errors.Is(err, domain.ErrNotFound) {
		h.Log.Infow("пользователь из сессии не найден", "id", who.ID)
		return nil
	}
	if err != nil {
		h.Log.Errorw("❌ ошибка чтения пользователя", "id", who.ID, "error", err)
		return nil
	}
	fresh := u.Session()
	if fresh.Role != who.Role {
		h.Log.Infow("роль пользователя изменилась", "id", who.ID, "was", who.Role, "now", fresh.Role)
	}
	return &fresh
}

// requireAuth пускает любого вошедшего пользователя, остальных отправляет на форму входа
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := auth.RequireAuthenticated(identityFrom(r.Context())); err != nil {
			http.Redirect(w, r, "/Sesion", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireRole пускает только пользователей с точно такой ролью
func (h *Handler) requireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := auth.RequireRole(identityFrom(r.Context()), role); err != nil {
				h.fail(w, r, err, "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// withTarget захватывает активный пул на время запроса
func (h *Handler) withTarget(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pool, err := h.Pools.Active(h.poolKey(w, r))
		if err != nil {
			h.fail(w, r, err, "")
			return
		}
		defer pool.Release()

		next.ServeHTTP(w, r.WithContext(target.WithPool(r.Context(), pool)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// logRequests пишет метод, путь, статус и длительность каждого запроса
func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.Log.Infow("запрос",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// recoverPanics не дает панике в обработчике уронить процесс
func (h *Handler) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}
				h.Log.Errorw("паника в обработчике", "path", r.URL.Path, "panic", v)
				http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
