package handler

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"dbadmin/config"
	"dbadmin/internal/auth"
	"dbadmin/internal/domain"
	"dbadmin/internal/engine"
	"dbadmin/internal/models"
	"dbadmin/internal/repository"
	"dbadmin/internal/target"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	sessionName = "dbadmin"
	keyUser     = "user"
	keyPoolKey  = "pool_key"
	flashError  = "error_msg"
	flashOK     = "success_msg"
)

func init() {
	gob.Register(domain.SessionIdentity{})
}

// Handler содержит зависимости
type Handler struct {
	Users    repository.UserStore
	Pools    *target.Manager
	Sessions sessions.Store
	Tokens   *auth.Tokens
	View     Renderer
	Log      *zap.SugaredLogger

	cfg      *config.Config
	validate *validator.Validate
}

// NewHandler создает новый экземпляр Handler
func NewHandler(
	cfg *config.Config,
	users repository.UserStore,
	pools *target.Manager,
	store sessions.Store,
	tokens *auth.Tokens,
	view Renderer,
	log *zap.SugaredLogger,
) *Handler {
	return &Handler{
		Users:    users,
		Pools:    pools,
		Sessions: store,
		Tokens:   tokens,
		View:     view,
		Log:      log,
		cfg:      cfg,
		validate: validator.New(),
	}
}

// session возвращает сессию запроса. Поврежденная cookie дает новую сессию.
func (h *Handler) session(r *http.Request) *sessions.Session {
	s, err := h.Sessions.Get(r, sessionName)
	if err != nil {
		h.Log.Debugw("сессия не прочитана, создаем новую", "error", err)
	}
	return s
}

func (h *Handler) flash(w http.ResponseWriter, r *http.Request, kind, msg string) {
	s := h.session(r)
	s.AddFlash(msg, kind)
	if err := s.Save(r, w); err != nil {
		h.Log.Errorw("ошибка сохранения сессии", "error", err)
	}
}

// redirectWith кладет flash сообщение и перенаправляет
func (h *Handler) redirectWith(w http.ResponseWriter, r *http.Request, to, kind, msg string) {
	h.flash(w, r, kind, msg)
	http.Redirect(w, r, to, http.StatusFound)
}

// render добавляет к данным пользователя и flash сообщения и выполняет шаблон
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, data models.PageData) {
	s := h.session(r)
	for _, f := range s.Flashes(flashError) {
		if msg, ok := f.(string); ok {
			data.Error = append(data.Error, msg)
		}
	}
	for _, f := range s.Flashes(flashOK) {
		if msg, ok := f.(string); ok {
			data.Success = append(data.Success, msg)
		}
	}
	if err := s.Save(r, w); err != nil {
		h.Log.Errorw("ошибка сохранения сессии", "error", err)
	}

	who := identityFrom(r.Context())
	data.User = who
	data.IsAdmin = who.IsAdmin()
	data.Scope = h.Pools.Scope()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.View.Render(w, data.CurrentPage, data); err != nil {
		h.Log.Errorw("❌ ошибка выполнения шаблона", "page", data.CurrentPage, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor сопоставляет ошибку ядра HTTP статусу
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusConflict
	case errors.Is(err, domain.ErrConnection):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrInvalidIdentifier),
		errors.Is(err, domain.ErrInvalidType),
		errors.Is(err, domain.ErrEmptyPayload),
		errors.Is(err, domain.ErrPrimaryKeyProtected):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail переводит ошибку в ответ. Если известна форма, откуда пришел запрос,
// ошибка уходит flash сообщением с возвратом на форму, иначе - прямой ответ.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	who := identityFrom(r.Context())
	email := ""
	if who != nil {
		email = who.Email
	}
	h.Log.Warnw("операция отклонена", "path", r.URL.Path, "user", email, "error", err)

	switch {
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Forbidden"})
	case errors.Is(err, domain.ErrNotConfigured):
		h.redirectWith(w, r, "/configurar-db", flashError, err.Error())
	case back != "":
		h.redirectWith(w, r, back, flashError, err.Error())
	default:
		http.Error(w, err.Error(), statusFor(err))
	}
}

// engine собирает engine поверх пула из контекста с проверкой ролей
func (h *Handler) engine(r *http.Request) (*engine.Guarded, error) {
	pool, ok := target.FromContext(r.Context())
	if !ok {
		return nil, domain.ErrNotConfigured
	}
	eng := engine.New(pool.DB(), engine.Options{HideSystemDBs: h.cfg.Target.HideSystemDBs}, h.Log)
	return engine.Guard(eng, identityFrom(r.Context())), nil
}

func withDB(path, db string) string {
	return path + "?" + url.Values{"dbName": {db}}.Encode()
}

func dbURL(db string) string {
	return withDB("/ver-db", db)
}

func tableURL(path, db, table string) string {
	return path + "?" + url.Values{"dbName": {db}, "tableName": {table}}.Encode()
}
