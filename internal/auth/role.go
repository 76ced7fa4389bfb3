package auth

import (
	"fmt"

	"dbadmin/internal/domain"
)

// RequireRole - предикат без состояния: пользователь есть и роль совпадает
// точно. admin не проходит проверку на user.
func RequireRole(who *domain.SessionIdentity, role domain.Role) error {
	if who == nil {
		return fmt.Errorf("%w: требуется вход", domain.ErrForbidden)
	}
	if who.Role != role {
		return fmt.Errorf("%w: нужна роль %s, у %s роль %s", domain.ErrForbidden, role, who.Email, who.Role)
	}
	return nil
}

// RequireAuthenticated пропускает любого вошедшего пользователя
func RequireAuthenticated(who *domain.SessionIdentity) error {
	if who == nil {
		return fmt.Errorf("%w: требуется вход", domain.ErrForbidden)
	}
	return nil
}
