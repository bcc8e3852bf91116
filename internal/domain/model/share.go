package model

import "time"

// Уровни доступа, предоставляемые записью Share.
const (
	AccessRead  = "read"
	AccessWrite = "write"
	AccessAdmin = "admin"
)

// Share — предоставление доступа к файлу другому пользователю.
// Хранится в таблице file_shares, первичный ключ (file_id, user_id).
type Share struct {
	// FileID — UUID файла
	FileID string
	// UserID — UUID пользователя, которому предоставлен доступ
	UserID string
	// AccessLevel — уровень доступа (read, write, admin)
	AccessLevel string
	// CreatedAt — время предоставления доступа
	CreatedAt time.Time
	// UpdatedAt — время последнего изменения уровня
	UpdatedAt time.Time

	// Username — имя пользователя-получателя (заполняется при выборке с JOIN)
	Username string
}
