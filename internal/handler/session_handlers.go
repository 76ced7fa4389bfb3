package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"dbadmin/internal/auth"
	"dbadmin/internal/domain"
	"dbadmin/internal/models"

	"github.com/google/uuid"
)

// HomeHandler - главная страница
func (h *Handler) HomeHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, models.PageData{
		Title:       "Администрирование баз данных",
		CurrentPage: "home",
	})
}

// SessionFormHandler - форма входа и регистрации
func (h *Handler) SessionFormHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, models.PageData{
		Title:       "Вход",
		CurrentPage: "login",
	})
}

// RegisterHandler - регистрация нового пользователя
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	form := models.RegisterForm{
		Name:     strings.TrimSpace(r.FormValue("nombre")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	if err := h.validate.Struct(form); err != nil {
		h.redirectWith(w, r, "/Sesion", flashError, "Проверьте имя, email и пароль (не короче 6 символов)")
		return
	}

	hash, err := auth.HashPassword(form.Password)
	if err != nil {
		h.Log.Errorw("ошибка хеширования пароля", "error", err)
		h.redirectWith(w, r, "/Sesion", flashError, "Ошибка регистрации")
		return
	}

	role, ok := domain.ParseRole(h.cfg.Web.DefaultRole)
	if !ok {
		role = domain.RoleUser
	}

	u, err := h.Users.Create(r.Context(), form.Name, form.Email, hash, role)
	if errors.Is(err, domain.ErrEmailTaken) {
		h.redirectWith(w, r, "/Sesion", flashError, err.Error())
		return
	}
	if err != nil {
		h.Log.Errorw("❌ ошибка регистрации", "email", form.Email, "error", err)
		h.redirectWith(w, r, "/Sesion", flashError, "Ошибка регистрации")
		return
	}

	h.Log.Infow("✅ пользователь зарегистрирован", "id", u.ID, "email", u.Email, "role", u.Role)
	h.redirectWith(w, r, "/Sesion", flashOK, "Регистрация прошла успешно, войдите")
}

// authenticate проверяет email и пароль
func (h *Handler) authenticate(r *http.Request, form models.LoginForm) (*domain.Identity, error) {
	if err := h.validate.Struct(form); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	u, err := h.Users.GetByEmail(r.Context(), form.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(form.Password, u.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return u, nil
}

// LoginHandler - вход, пользователь записывается в сессию
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	form := models.LoginForm{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}

	u, err := h.authenticate(r, form)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		h.Log.Infow("неудачная попытка входа", "email", form.Email)
		h.redirectWith(w, r, "/Sesion", flashError, err.Error())
		return
	}
	if err != nil {
		h.Log.Errorw("❌ ошибка входа", "email", form.Email, "error", err)
		h.redirectWith(w, r, "/Sesion", flashError, "Ошибка входа")
		return
	}

	s := h.session(r)
	// старый пул сессии больше не нужен
	if old, ok := s.Values[keyPoolKey].(string); ok {
		h.Pools.Forget(h.Pools.Key(old))
	}
	s.Values[keyUser] = u.Session()
	s.Values[keyPoolKey] = uuid.NewString()
	if err := s.Save(r, w); err != nil {
		h.Log.Errorw("ошибка сохранения сессии", "error", err)
		http.Error(w, "Ошибка сервера", http.StatusInternalServerError)
		return
	}

	h.Log.Infow("✅ вход выполнен", "id", u.ID, "email", u.Email, "role", u.Role)
	http.Redirect(w, r, "/configurar-db", http.StatusFound)
}

// LogoutHandler - выход, сессия и ее пул удаляются
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	if key, ok := s.Values[keyPoolKey].(string); ok {
		h.Pools.Forget(h.Pools.Key(key))
	}
	delete(s.Values, keyUser)
	delete(s.Values, keyPoolKey)
	s.Options.MaxAge = -1
	if err := s.Save(r, w); err != nil {
		h.Log.Errorw("ошибка сохранения сессии", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// maxTokenRequestBytes - предел тела запроса /api/token
const maxTokenRequestBytes = 4 << 10

// IssueTokenHandler - выдача bearer токена для API клиентов
func (h *Handler) IssueTokenHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTokenRequestBytes)

	var form models.LoginForm
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Неверный JSON"})
			return
		}
	} else {
		form.Email = r.FormValue("email")
		form.Password = r.FormValue("password")
	}
	form.Email = strings.TrimSpace(form.Email)

	u, err := h.authenticate(r, form)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": err.Error()})
		return
	}
	if err != nil {
		h.Log.Errorw("❌ ошибка выдачи токена", "email", form.Email, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Ошибка сервера"})
		return
	}

	token, err := h.Tokens.GenerateToken(u.Session())
	if err != nil {
		h.Log.Errorw("❌ ошибка подписи токена", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Ошибка сервера"})
		return
	}
	writeJSON(w, http.StatusOK, models.TokenResponse{
		Token:     token,
		ExpiresIn: int(h.cfg.JWT.Expiration.Seconds()),
	})
}

// poolKey возвращает ключ пула для запроса. Сессия без ключа получает новый.
// Запрос по bearer токену без сессии работает только с глобальным пулом.
func (h *Handler) poolKey(w http.ResponseWriter, r *http.Request) string {
	s := h.session(r)
	if key, ok := s.Values[keyPoolKey].(string); ok && key != "" {
		return h.Pools.Key(key)
	}
	key := uuid.NewString()
	s.Values[keyPoolKey] = key
	if err := s.Save(r, w); err != nil {
		h.Log.Errorw("ошибка сохранения сессии", "error", err)
	}
	return h.Pools.Key(key)
}
