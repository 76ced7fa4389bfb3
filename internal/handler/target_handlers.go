package handler

import (
	"errors"
	"net/http"
	"strings"

	"dbadmin/internal/domain"
	"dbadmin/internal/models"
	"dbadmin/pkg/database"
)

// ConfigureFormHandler - форма параметров целевого сервера
func (h *Handler) ConfigureFormHandler(w http.ResponseWriter, r *http.Request) {
	data := models.PageData{
		Title:       "Подключение к серверу",
		CurrentPage: "configure",
	}
	if pool, err := h.Pools.Active(h.poolKey(w, r)); err == nil {
		data.TargetHost = pool.Host()
		pool.Release()
	}
	h.render(w, r, http.StatusOK, data)
}

// ConfigureHandler открывает пул к серверу из формы и делает его активным.
// Если сервер недоступен, прежний пул остается активным.
func (h *Handler) ConfigureHandler(w http.ResponseWriter, r *http.Request) {
	form := models.TargetForm{
		Host:     strings.TrimSpace(r.FormValue("dbHost")),
		User:     strings.TrimSpace(r.FormValue("dbUser")),
		Password: r.FormValue("dbPassword"),
	}
	if err := h.validate.Struct(form); err != nil {
		h.redirectWith(w, r, "/configurar-db", flashError, "Укажите хост и пользователя")
		return
	}

	_, err := h.Pools.Configure(r.Context(), h.poolKey(w, r), database.TargetCredentials{
		Host:     form.Host,
		User:     form.User,
		Password: form.Password,
	})
	if errors.Is(err, domain.ErrConnection) {
		h.redirectWith(w, r, "/configurar-db", flashError, err.Error())
		return
	}
	if err != nil {
		h.fail(w, r, err, "/configurar-db")
		return
	}

	h.redirectWith(w, r, "/bases-de-datos", flashOK, "Подключение к "+form.Host+" установлено")
}
