package domain

// Role - закрытый набор ролей, иерархии нет
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole возвращает роль и признак того, что она из допустимого набора
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// Identity - зарегистрированный пользователь в хранилище пользователей
type Identity struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // не отдаём в JSON
	Role         Role   `json:"role"`
}

// SessionIdentity - проекция Identity, которая живет в сессии браузера
type SessionIdentity struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (i Identity) Session() SessionIdentity {
	return SessionIdentity{ID: i.ID, Name: i.Name, Email: i.Email, Role: i.Role}
}

func (s *SessionIdentity) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}
