// Пакет model — доменные модели File Share Service.
package model

import "time"

// User — зарегистрированный пользователь сервиса.
// Хранится в таблице users.
type User struct {
	// ID — UUID пользователя
	ID string
	// Username — уникальное имя пользователя
	Username string
	// Email — уникальный адрес электронной почты
	Email string
	// PasswordHash — bcrypt-хэш пароля
	PasswordHash string
	// CreatedAt — время регистрации
	CreatedAt time.Time
}

// UserProfile — публичная часть профиля пользователя (без хэша пароля).
type UserProfile struct {
	ID       string
	Username string
	Email    string
}

// Profile возвращает публичную часть профиля пользователя.
func (u *User) Profile() UserProfile {
	return UserProfile{ID: u.ID, Username: u.Username, Email: u.Email}
}
