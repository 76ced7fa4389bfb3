package handler

import (
	"errors"
	"net/http"
	"strconv"

	"dbadmin/internal/domain"
)

// UpdateRoleHandler - смена роли пользователя администратором.
// Если администратор меняет роль самому себе, сессия обновляется сразу.
func (h *Handler) UpdateRoleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.FormValue("userId"))
	if err != nil || id <= 0 {
		h.redirectWith(w, r, "/bases-de-datos", flashError, "Неверный ID пользователя")
		return
	}
	role, ok := domain.ParseRole(r.FormValue("newRole"))
	if !ok {
		h.redirectWith(w, r, "/bases-de-datos", flashError, "Неизвестная роль")
		return
	}

	err = h.Users.UpdateRole(r.Context(), id, role)
	if errors.Is(err, domain.ErrNotFound) {
		h.redirectWith(w, r, "/bases-de-datos", flashError, "Пользователь не найден")
		return
	}
	if err != nil {
		h.Log.Errorw("❌ ошибка смены роли", "id", id, "error", err)
		h.redirectWith(w, r, "/bases-de-datos", flashError, "Ошибка смены роли")
		return
	}

	who := identityFrom(r.Context())
	h.Log.Infow("✅ роль пользователя изменена", "id", id, "role", role, "by", who.Email)

	if who.ID == id {
		s := h.session(r)
		if current, ok := s.Values[keyUser].(domain.SessionIdentity); ok {
			current.Role = role
			s.Values[keyUser] = current
		}
		if err := s.Save(r, w); err != nil {
			h.Log.Errorw("ошибка сохранения сессии", "error", err)
		}
	}

	h.redirectWith(w, r, "/bases-de-datos", flashOK, "Роль обновлена")
}
