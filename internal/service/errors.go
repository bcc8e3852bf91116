// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден. Также возвращается для файлов,
	// невидимых субъекту: их нельзя отличить от несуществующих.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrUnauthenticated — операция требует аутентификации.
	ErrUnauthenticated = errors.New("требуется аутентификация")
	// ErrForbidden — операция запрещена для данного пользователя.
	ErrForbidden = errors.New("доступ запрещён")
	// ErrInvalidCredentials — неверное имя пользователя или пароль.
	// Не раскрывает, существует ли пользователь.
	ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrTooLarge — размер загружаемого файла превышает лимит.
	ErrTooLarge = errors.New("размер файла превышает допустимый лимит")
	// ErrStorage — сбой файлового хранилища.
	ErrStorage = errors.New("сбой файлового хранилища")
)
