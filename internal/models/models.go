package models

import (
	"dbadmin/internal/domain"
	"dbadmin/internal/engine"
)

// LoginForm - данные формы входа
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterForm - данные формы регистрации
type RegisterForm struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=6,max=72"`
}

// TargetForm - параметры целевого сервера из формы настройки
type TargetForm struct {
	Host     string `validate:"required,max=255"`
	User     string `validate:"required,max=64"`
	Password string `validate:"max=255"`
}

// TokenResponse - ответ /api/token
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// PageData - данные для передачи в HTML шаблоны
type PageData struct {
	Title       string
	CurrentPage string
	User        *domain.SessionIdentity
	IsAdmin     bool
	Success     []string
	Error       []string

	TargetHost string
	Scope      string

	Databases []string
	DBName    string
	Tables    []string
	TableName string
	Columns   []engine.Column
	KeyColumn string // пусто, если у таблицы нет ключа для правки строк
	Rows      []engine.Row
	Record    *engine.Row
	RecordID  string

	Page     int
	NextPage int
	PrevPage int
}
