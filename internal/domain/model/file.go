package model

import "time"

// File — запись о загруженном файле.
// Хранится в таблице files.
type File struct {
	// ID — UUID файла
	ID string
	// OwnerID — UUID владельца
	OwnerID string
	// OriginalFilename — оригинальное имя файла, заданное при загрузке
	OriginalFilename string
	// StorageKey — имя файла в локальном хранилище
	StorageKey string
	// ContentType — MIME-тип файла
	ContentType string
	// Size — размер файла в байтах
	Size int64
	// Checksum — SHA-256 контрольная сумма
	Checksum string
	// IsPublic — доступен ли файл анонимно
	IsPublic bool
	// CreatedAt — время загрузки
	CreatedAt time.Time
	// UpdatedAt — время последнего изменения метаданных
	UpdatedAt time.Time

	// OwnerUsername — имя владельца (заполняется при выборке с JOIN)
	OwnerUsername string
}
