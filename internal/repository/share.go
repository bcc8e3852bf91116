package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/gofileshare/internal/domain/model"
)

// ShareRepository — доступ к таблице file_shares.
type ShareRepository interface {
	// Upsert создаёт предоставление доступа или заменяет уровень
	// существующего. Попытка предоставить доступ владельцу файла
	// возвращает ErrOwnerShare.
	Upsert(ctx context.Context, s *model.Share) error
	// Delete отзывает доступ. Идемпотентен: отзыв несуществующего
	// предоставления — не ошибка, revoked = false.
	Delete(ctx context.Context, fileID, userID string) (revoked bool, err error)
	// ListForFile возвращает все предоставления доступа к файлу
	// с именами получателей.
	ListForFile(ctx context.Context, fileID string) ([]*model.Share, error)
}

// shareRepo — реализация ShareRepository.
type shareRepo struct {
	db DBTX
}

// NewShareRepository создаёт репозиторий предоставлений доступа.
func NewShareRepository(db DBTX) ShareRepository {
	return &shareRepo{db: db}
}

// Upsert защищён от выдачи доступа владельцу на уровне SQL:
// вставка не происходит, если user_id совпадает с owner_id файла.
func (r *shareRepo) Upsert(ctx context.Context, s *model.Share) error {
	query := `
		INSERT INTO file_shares (file_id, user_id, access_level)
		SELECT $1, $2, $3
		WHERE NOT EXISTS (
			SELECT 1 FROM files WHERE id = $1 AND owner_id = $2
		)
		ON CONFLICT (file_id, user_id) DO UPDATE
		SET access_level = EXCLUDED.access_level,
			updated_at = now()
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query, s.FileID, s.UserID, s.AccessLevel).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrOwnerShare
		}
		return fmt.Errorf("ошибка предоставления доступа: %w", err)
	}
	return nil
}

func (r *shareRepo) Delete(ctx context.Context, fileID, userID string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM file_shares WHERE file_id = $1 AND user_id = $2`,
		fileID, userID)
	if err != nil {
		return false, fmt.Errorf("ошибка отзыва доступа: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *shareRepo) ListForFile(ctx context.Context, fileID string) ([]*model.Share, error) {
	query := `
		SELECT s.file_id, s.user_id, s.access_level, s.created_at, s.updated_at,
			u.username
		FROM file_shares s
		JOIN users u ON u.id = s.user_id
		WHERE s.file_id = $1
		ORDER BY s.created_at`

	rows, err := r.db.Query(ctx, query, fileID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка предоставлений: %w", err)
	}
	defer rows.Close()

	var result []*model.Share
	for rows.Next() {
		s := &model.Share{}
		if err := rows.Scan(
			&s.FileID, &s.UserID, &s.AccessLevel,
			&s.CreatedAt, &s.UpdatedAt, &s.Username,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования предоставления: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
