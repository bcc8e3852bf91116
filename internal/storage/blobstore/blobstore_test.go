package blobstore

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestNew_CreatesDirectory проверяет создание директории данных.
func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	bs, err := New(dir)
	if err != nil {
		t.Fatalf("ошибка создания BlobStore: %v", err)
	}

	if bs.DataDir() != dir {
		t.Errorf("ожидался путь %s, получен %s", dir, bs.DataDir())
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("директория не создана: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("путь не является директорией")
	}
}

// TestSave проверяет сохранение содержимого с подсчётом SHA-256.
func TestSave(t *testing.T) {
	dir := t.TempDir()
	bs, err := New(dir)
	if err != nil {
		t.Fatalf("ошибка создания BlobStore: %v", err)
	}

	content := []byte("Hello, World! Тестовые данные для проверки.")
	reader := bytes.NewReader(content)

	result, err := bs.Save(reader, "test-photo.jpg")
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	// Проверяем размер
	if result.Size != int64(len(content)) {
		t.Errorf("размер: ожидалось %d, получено %d", len(content), result.Size)
	}

	// Проверяем checksum
	expectedHash := sha256.Sum256(content)
	expectedChecksum := hex.EncodeToString(expectedHash[:])
	if result.Checksum != expectedChecksum {
		t.Errorf("checksum: ожидалось %s, получено %s", expectedChecksum, result.Checksum)
	}

	// Проверяем формат ключа хранения
	if !strings.Contains(result.StorageKey, "test-photo") {
		t.Errorf("ключ должен содержать оригинальное имя: %s", result.StorageKey)
	}
	if !strings.HasSuffix(result.StorageKey, ".jpg") {
		t.Errorf("ключ должен сохранять расширение: %s", result.StorageKey)
	}

	// Проверяем содержимое
	data, err := os.ReadFile(filepath.Join(dir, result.StorageKey))
	if err != nil {
		t.Fatalf("ошибка чтения файла: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Error("содержимое файла не совпадает")
	}
}

// TestSave_UniqueKeys проверяет, что одинаковые имена получают разные ключи.
func TestSave_UniqueKeys(t *testing.T) {
	bs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания BlobStore: %v", err)
	}

	r1, err := bs.Save(bytes.NewReader([]byte("first")), "report.pdf")
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}
	r2, err := bs.Save(bytes.NewReader([]byte("second")), "report.pdf")
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	if r1.StorageKey == r2.StorageKey {
		t.Errorf("ключи совпадают: %s", r1.StorageKey)
	}
}

// TestSave_UnsafeFilename проверяет очистку небезопасных символов.
func TestSave_UnsafeFilename(t *testing.T) {
	bs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания BlobStore: %v", err)
	}

	result, err := bs.Save(bytes.NewReader([]byte("data")), "../../etc/passwd")
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	if strings.Contains(result.StorageKey, "/") || strings.Contains(result.StorageKey, "..") {
		t.Errorf("ключ содержит небезопасные символы: %s", result.StorageKey)
	}
}

// TestSave_NoTmpFile проверяет, что temp файл удалён после сохранения.
func TestSave_NoTmpFile(t *testing.T) {
	dir := t.TempDir()
	bs, err := New(dir)
	if err != nil {
		t.Fatalf("ошибка создания BlobStore: %v", err)
	}

	result, err := bs.Save(bytes.NewReader([]byte("data")), "file.txt")
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, result.StorageKey+".tmp")); !os.IsNotExist(err) {
		t.Error("временный файл не удалён")
	}
}

// TestOpen проверяет чтение сохранённого содержимого.
func TestOpen(t *testing.T) {
	bs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания BlobStore: %v", err)
	}

	content := []byte("содержимое для чтения")
	result, err := bs.Save(bytes.NewReader(content), "read.txt")
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	f, err := bs.Open(result.StorageKey)
	if err != nil {
		t.Fatalf("ошибка открытия: %v", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		t.Fatalf("ошибка чтения: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), content) {
		t.Error("прочитанное содержимое не совпадает")
	}
}

// TestOpen_NotFound проверяет ошибку при отсутствии содержимого.
func TestOpen_NotFound(t *testing.T) {
	bs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания BlobStore: %v", err)
	}

	if _, err := bs.Open("missing.txt"); err == nil {
		t.Error("Open() не вернул ошибку для отсутствующего файла")
	}
}

// TestDelete проверяет удаление содержимого.
func TestDelete(t *testing.T) {
	bs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания BlobStore: %v", err)
	}

	result, err := bs.Save(bytes.NewReader([]byte("data")), "doomed.txt")
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	if err := bs.Delete(result.StorageKey); err != nil {
		t.Fatalf("ошибка удаления: %v", err)
	}
	if bs.Exists(result.StorageKey) {
		t.Error("содержимое существует после удаления")
	}

	// Повторное удаление — не ошибка
	if err := bs.Delete(result.StorageKey); err != nil {
		t.Errorf("повторное удаление вернуло ошибку: %v", err)
	}
}

// TestExistsAndSize проверяет Exists и Size.
func TestExistsAndSize(t *testing.T) {
	bs, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("ошибка создания BlobStore: %v", err)
	}

	if bs.Exists("nope.txt") {
		t.Error("Exists() = true для отсутствующего файла")
	}

	result, err := bs.Save(bytes.NewReader([]byte("12345")), "sized.txt")
	if err != nil {
		t.Fatalf("ошибка сохранения: %v", err)
	}

	if !bs.Exists(result.StorageKey) {
		t.Error("Exists() = false для сохранённого файла")
	}

	size, err := bs.Size(result.StorageKey)
	if err != nil {
		t.Fatalf("Size() ошибка: %v", err)
	}
	if size != 5 {
		t.Errorf("Size() = %d, ожидалось 5", size)
	}
}

// TestGenerateStorageKey проверяет формат ключа хранения.
func TestGenerateStorageKey(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		suffix   string
	}{
		{"обычное имя", "photo.jpg", ".jpg"},
		{"без расширения", "README", ""},
		{"кириллица", "отчёт.pdf", ".pdf"},
		{"пустое имя", "", ""},
		{"только спецсимволы", "###.!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := generateStorageKey(tt.filename)
			if key == "" {
				t.Fatal("пустой ключ")
			}
			if tt.suffix != "" && !strings.HasSuffix(key, tt.suffix) {
				t.Errorf("ключ %q не оканчивается на %q", key, tt.suffix)
			}
			if strings.ContainsAny(key, "/\\") {
				t.Errorf("ключ содержит разделители пути: %q", key)
			}
		})
	}
}
