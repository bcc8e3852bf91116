// Пакет blobstore — операции с содержимым файлов на локальном диске.
// Обеспечивает streaming-запись с подсчётом SHA-256 на лету,
// чтение и удаление.
package blobstore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// BlobStore — управление содержимым файлов на диске.
type BlobStore struct {
	// dataDir — корневая директория хранения файлов (FS_DATA_DIR)
	dataDir string
}

// SaveResult — результат сохранения содержимого на диск.
type SaveResult struct {
	// StorageKey — имя файла в dataDir
	StorageKey string
	// Size — размер записанных данных в байтах
	Size int64
	// Checksum — SHA-256 хэш содержимого
	Checksum string
}

// New создаёт новый BlobStore. Проверяет и создаёт директорию
// если она не существует.
func New(dataDir string) (*BlobStore, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных %s: %w", dataDir, err)
	}

	return &BlobStore{dataDir: dataDir}, nil
}

// Save записывает данные из reader на диск с подсчётом SHA-256 на лету.
// Формат ключа хранения: {uuid}-{name}.{ext}
// Возвращает ключ, размер и checksum записанного содержимого.
//
// Паттерн: temp файл → запись + SHA-256 → fsync → atomic rename.
// При ошибке temp файл удаляется.
func (bs *BlobStore) Save(reader io.Reader, originalFilename string) (*SaveResult, error) {
	storageKey := generateStorageKey(originalFilename)
	fullPath := filepath.Join(bs.dataDir, storageKey)
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	// Streaming запись с одновременным подсчётом SHA-256
	hasher := sha256.New()
	tee := io.TeeReader(reader, hasher)

	size, err := io.Copy(f, tee)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка записи данных: %w", err)
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	// Атомарный rename
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return &SaveResult{
		StorageKey: storageKey,
		Size:       size,
		Checksum:   hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Open открывает содержимое для чтения.
// Вызывающий код обязан закрыть возвращённый файл.
func (bs *BlobStore) Open(storageKey string) (*os.File, error) {
	fullPath := filepath.Join(bs.dataDir, storageKey)

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("содержимое не найдено: %s", storageKey)
		}
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", storageKey, err)
	}

	return f, nil
}

// Delete удаляет содержимое с диска.
// Возвращает nil если файл уже не существует.
func (bs *BlobStore) Delete(storageKey string) error {
	fullPath := filepath.Join(bs.dataDir, storageKey)

	err := os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления файла %s: %w", storageKey, err)
	}
	return nil
}

// Exists проверяет существование содержимого на диске.
func (bs *BlobStore) Exists(storageKey string) bool {
	fullPath := filepath.Join(bs.dataDir, storageKey)
	_, err := os.Stat(fullPath)
	return err == nil
}

// Size возвращает размер содержимого на диске.
func (bs *BlobStore) Size(storageKey string) (int64, error) {
	fullPath := filepath.Join(bs.dataDir, storageKey)
	info, err := os.Stat(fullPath)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения информации о файле %s: %w", storageKey, err)
	}
	return info.Size(), nil
}

// DataDir возвращает путь к директории данных.
func (bs *BlobStore) DataDir() string {
	return bs.dataDir
}

// CheckReady проверяет, что директория данных доступна на запись.
// Используется readiness probe.
func (bs *BlobStore) CheckReady() (status, message string) {
	probe, err := os.CreateTemp(bs.dataDir, ".readiness-*")
	if err != nil {
		return "fail", "директория данных недоступна на запись: " + err.Error()
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return "ok", "директория данных доступна"
}

// generateStorageKey генерирует ключ хранения на диске.
// Формат: {uuid}-{name}.{ext}
// Пример: 7f3c9a10-1b2c-4d5e-8f90-aabbccddeeff-report.pdf
func generateStorageKey(originalFilename string) string {
	ext := filepath.Ext(originalFilename)
	name := strings.TrimSuffix(originalFilename, ext)

	name = sanitize(name)

	// Ограничиваем длину имени для предотвращения проблем с FS
	if len(name) > 50 {
		name = name[:50]
	}

	uid := uuid.New().String()

	if ext != "" {
		return fmt.Sprintf("%s-%s%s", uid, name, sanitizeExt(ext))
	}
	return fmt.Sprintf("%s-%s", uid, name)
}

// sanitize убирает небезопасные символы из строки для использования в имени файла.
// Оставляет только буквы, цифры, дефис и подчёркивание.
func sanitize(s string) string {
	var result strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' ||
			(r >= 0x0400 && r <= 0x04FF) { // Кириллица
			result.WriteRune(r)
		}
	}
	if result.Len() == 0 {
		return "file"
	}
	return result.String()
}

// sanitizeExt очищает расширение, сохраняя ведущую точку.
// Полностью небезопасное расширение отбрасывается.
func sanitizeExt(ext string) string {
	var result strings.Builder
	for _, r := range strings.TrimPrefix(ext, ".") {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') {
			result.WriteRune(r)
		}
	}
	if result.Len() == 0 {
		return ""
	}
	return "." + result.String()
}
