package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/gofileshare/internal/domain/access"
	"github.com/bigkaa/gofileshare/internal/domain/model"
)

// fileColumns — список колонок файла с JOIN на владельца.
const fileColumns = `f.id, f.owner_id, f.original_filename, f.storage_key,
	f.content_type, f.size, f.checksum, f.is_public, f.created_at, f.updated_at,
	u.username`

// visibleCondition — условие видимости файла для пользователя $N.
// Файл виден, если он публичный, принадлежит пользователю или пользователю
// предоставлен доступ любого уровня. NULL вместо идентификатора (аноним)
// оставляет только публичные файлы.
const visibleCondition = `(f.is_public
	OR f.owner_id = %[1]s
	OR EXISTS (SELECT 1 FROM file_shares s WHERE s.file_id = f.id AND s.user_id = %[1]s))`

// OwnerStats — агрегаты для панели пользователя.
type OwnerStats struct {
	// OwnedFiles — количество собственных файлов
	OwnedFiles int
	// TotalSize — суммарный размер собственных файлов в байтах
	TotalSize int64
	// PublicFiles — количество собственных публичных файлов
	PublicFiles int
	// SharedWithMe — количество файлов, к которым предоставлен доступ
	SharedWithMe int
}

// FileRepository — доступ к таблице files.
// Методы *VisibleTo реализуют границу безопасности: запись, невидимую
// для субъекта, невозможно отличить от несуществующей (ErrNotFound).
type FileRepository interface {
	// Create создаёт запись файла.
	Create(ctx context.Context, f *model.File) error
	// GetVisibleTo возвращает файл, если он виден субъекту principalID.
	// nil principalID означает анонимный запрос.
	GetVisibleTo(ctx context.Context, fileID string, principalID *string) (*model.File, error)
	// ListVisibleTo возвращает страницу файлов, видимых пользователю.
	ListVisibleTo(ctx context.Context, principalID string, search *string, limit, offset int) ([]*model.File, error)
	// CountVisibleTo возвращает общее количество видимых файлов.
	CountVisibleTo(ctx context.Context, principalID string, search *string) (int, error)
	// UpdateMeta применяет непустой патч метаданных и возвращает
	// обновлённую запись.
	UpdateMeta(ctx context.Context, fileID string, patch access.FilePatch) (*model.File, error)
	// Delete удаляет запись файла. Записи file_shares удаляются каскадно.
	Delete(ctx context.Context, fileID string) error
	// StatsForOwner возвращает агрегаты для панели пользователя.
	StatsForOwner(ctx context.Context, userID string) (*OwnerStats, error)
}

// fileRepo — реализация FileRepository.
type fileRepo struct {
	db DBTX
}

// NewFileRepository создаёт репозиторий файлов.
func NewFileRepository(db DBTX) FileRepository {
	return &fileRepo{db: db}
}

func (r *fileRepo) Create(ctx context.Context, f *model.File) error {
	query := `
		INSERT INTO files (id, owner_id, original_filename, storage_key,
			content_type, size, checksum, is_public)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		f.ID, f.OwnerID, f.OriginalFilename, f.StorageKey,
		f.ContentType, f.Size, f.Checksum, f.IsPublic,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: файл с таким ID уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания записи файла: %w", err)
	}
	return nil
}

func (r *fileRepo) GetVisibleTo(ctx context.Context, fileID string, principalID *string) (*model.File, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM files f
		JOIN users u ON u.id = f.owner_id
		WHERE f.id = $1 AND %s`,
		fileColumns, fmt.Sprintf(visibleCondition, "$2"))

	f := &model.File{}
	err := r.db.QueryRow(ctx, query, fileID, principalID).Scan(
		&f.ID, &f.OwnerID, &f.OriginalFilename, &f.StorageKey,
		&f.ContentType, &f.Size, &f.Checksum, &f.IsPublic,
		&f.CreatedAt, &f.UpdatedAt, &f.OwnerUsername,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			// Несуществующий и невидимый файл неразличимы.
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения файла: %w", err)
	}
	return f, nil
}

// buildVisibleWhere строит WHERE-условие списка видимых файлов.
func buildVisibleWhere(principalID string, search *string) (string, []any) {
	conditions := []string{fmt.Sprintf(visibleCondition, "$1")}
	args := []any{principalID}

	if search != nil && *search != "" {
		conditions = append(conditions,
			fmt.Sprintf("f.original_filename ILIKE $%d", len(args)+1))
		args = append(args, "%"+escapeLike(*search)+"%")
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

func (r *fileRepo) ListVisibleTo(ctx context.Context, principalID string, search *string, limit, offset int) ([]*model.File, error) {
	where, args := buildVisibleWhere(principalID, search)
	argNum := len(args) + 1

	query := fmt.Sprintf(`
		SELECT %s
		FROM files f
		JOIN users u ON u.id = f.owner_id
		%s
		ORDER BY f.created_at DESC
		LIMIT $%d OFFSET $%d`, fileColumns, where, argNum, argNum+1)

	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка файлов: %w", err)
	}
	defer rows.Close()

	var result []*model.File
	for rows.Next() {
		f := &model.File{}
		if err := rows.Scan(
			&f.ID, &f.OwnerID, &f.OriginalFilename, &f.StorageKey,
			&f.ContentType, &f.Size, &f.Checksum, &f.IsPublic,
			&f.CreatedAt, &f.UpdatedAt, &f.OwnerUsername,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования файла: %w", err)
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

func (r *fileRepo) CountVisibleTo(ctx context.Context, principalID string, search *string) (int, error) {
	where, args := buildVisibleWhere(principalID, search)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM files f %s`, where)

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта файлов: %w", err)
	}
	return count, nil
}

// UpdateMeta собирает SET-часть из типизированного патча.
// Вызывающий обязан гарантировать непустой патч.
func (r *fileRepo) UpdateMeta(ctx context.Context, fileID string, patch access.FilePatch) (*model.File, error) {
	var sets []string
	args := []any{fileID}
	argNum := 2

	if patch.Rename != nil {
		sets = append(sets, fmt.Sprintf("original_filename = $%d", argNum))
		args = append(args, *patch.Rename)
		argNum++
	}
	if patch.SetPublic != nil {
		sets = append(sets, fmt.Sprintf("is_public = $%d", argNum))
		args = append(args, *patch.SetPublic)
	}
	sets = append(sets, "updated_at = now()")

	query := fmt.Sprintf(`
		UPDATE files f
		SET %s
		FROM users u
		WHERE f.id = $1 AND u.id = f.owner_id
		RETURNING %s`, strings.Join(sets, ", "), fileColumns)

	f := &model.File{}
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&f.ID, &f.OwnerID, &f.OriginalFilename, &f.StorageKey,
		&f.ContentType, &f.Size, &f.Checksum, &f.IsPublic,
		&f.CreatedAt, &f.UpdatedAt, &f.OwnerUsername,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка обновления файла: %w", err)
	}
	return f, nil
}

func (r *fileRepo) Delete(ctx context.Context, fileID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM files WHERE id = $1`, fileID)
	if err != nil {
		return fmt.Errorf("ошибка удаления записи файла: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *fileRepo) StatsForOwner(ctx context.Context, userID string) (*OwnerStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM files WHERE owner_id = $1),
			(SELECT COALESCE(SUM(size), 0) FROM files WHERE owner_id = $1),
			(SELECT COUNT(*) FROM files WHERE owner_id = $1 AND is_public),
			(SELECT COUNT(*) FROM file_shares s
				JOIN files f ON f.id = s.file_id
				WHERE s.user_id = $1)`

	stats := &OwnerStats{}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&stats.OwnedFiles, &stats.TotalSize, &stats.PublicFiles, &stats.SharedWithMe,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения статистики: %w", err)
	}
	return stats, nil
}

// escapeLike экранирует спецсимволы шаблона LIKE в пользовательском вводе.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
