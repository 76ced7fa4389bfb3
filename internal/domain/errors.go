package domain

import "errors"

// Ошибки ядра. Оборачиваются через fmt.Errorf("...: %w") и проверяются errors.Is.
var (
	ErrConnection          = errors.New("ошибка подключения к серверу")
	ErrNotConfigured       = errors.New("подключение к серверу не настроено")
	ErrInvalidIdentifier   = errors.New("недопустимый идентификатор")
	ErrInvalidType         = errors.New("недопустимый тип столбца")
	ErrEmptyPayload        = errors.New("нет данных для записи")
	ErrPrimaryKeyProtected = errors.New("нельзя удалить столбец первичного ключа")
	ErrSchema              = errors.New("ошибка выполнения запроса схемы")
	ErrNotFound            = errors.New("запись не найдена")
	ErrForbidden           = errors.New("доступ запрещен")
	ErrInvalidCredentials  = errors.New("неверный email или пароль")
	ErrEmailTaken          = errors.New("email уже зарегистрирован")
)
