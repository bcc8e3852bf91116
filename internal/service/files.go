// files.go — сервис жизненного цикла файлов: загрузка, просмотр,
// скачивание, изменение метаданных, удаление и управление доступом.
// Все решения о правах принимает движок domain/access; запись в БД
// авторитетна, содержимое на диске вторично.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/gofileshare/internal/domain/access"
	"github.com/bigkaa/gofileshare/internal/domain/model"
	"github.com/bigkaa/gofileshare/internal/repository"
	"github.com/bigkaa/gofileshare/internal/storage/blobstore"
)

// maxFilenameLen — максимальная длина имени файла.
const maxFilenameLen = 255

// Prometheus-метрики файловых операций.
var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fs_uploads_total",
		Help: "Общее количество загрузок файлов по статусам.",
	}, []string{"status"})
	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fs_downloads_total",
		Help: "Общее количество скачиваний файлов по статусам.",
	}, []string{"status"})
	uploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fs_upload_bytes_total",
		Help: "Суммарный объём загруженных данных в байтах.",
	})
)

// Blobs — операции с содержимым файлов, используемые сервисом.
// Реализуется blobstore.BlobStore.
type Blobs interface {
	Save(reader io.Reader, originalFilename string) (*blobstore.SaveResult, error)
	Open(storageKey string) (*os.File, error)
	Delete(storageKey string) error
}

// FileDetails — файл вместе с его предоставлениями доступа.
type FileDetails struct {
	File   *model.File
	Shares []*model.Share
}

// FileService — сервис жизненного цикла файлов.
type FileService struct {
	fileRepo      repository.FileRepository
	shareRepo     repository.ShareRepository
	userRepo      repository.UserRepository
	blobs         Blobs
	maxUploadSize int64
	logger        *slog.Logger
}

// NewFileService создаёт сервис жизненного цикла файлов.
func NewFileService(
	fileRepo repository.FileRepository,
	shareRepo repository.ShareRepository,
	userRepo repository.UserRepository,
	blobs Blobs,
	maxUploadSize int64,
	logger *slog.Logger,
) *FileService {
	return &FileService{
		fileRepo:      fileRepo,
		shareRepo:     shareRepo,
		userRepo:      userRepo,
		blobs:         blobs,
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("component", "file_service")),
	}
}

// Upload сохраняет содержимое на диск и создаёт запись файла.
// Содержимое пишется до вставки записи: при сбое вставки блоб
// убирается по мере возможности, осиротевший блоб допустим —
// авторитетна запись в БД.
func (s *FileService) Upload(ctx context.Context, p *access.Principal, reader io.Reader, originalFilename, contentType string, isPublic bool) (*model.File, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}

	originalFilename = strings.TrimSpace(originalFilename)
	if originalFilename == "" {
		return nil, fmt.Errorf("%w: имя файла не задано", ErrValidation)
	}
	if len(originalFilename) > maxFilenameLen {
		return nil, fmt.Errorf("%w: имя файла длиннее %d символов", ErrValidation, maxFilenameLen)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// Лимит + 1 байт: всё, что больше лимита, распознаётся без
	// дочитывания остатка.
	limited := io.LimitReader(reader, s.maxUploadSize+1)
	res, err := s.blobs.Save(limited, originalFilename)
	if err != nil {
		uploadsTotal.WithLabelValues("storage_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if res.Size > s.maxUploadSize {
		if delErr := s.blobs.Delete(res.StorageKey); delErr != nil {
			s.logger.Warn("Не удалось убрать блоб сверх лимита",
				slog.String("storage_key", res.StorageKey),
				slog.String("error", delErr.Error()))
		}
		uploadsTotal.WithLabelValues("too_large").Inc()
		return nil, fmt.Errorf("%w (%d байт)", ErrTooLarge, s.maxUploadSize)
	}

	f := &model.File{
		ID:               uuid.New().String(),
		OwnerID:          p.ID,
		OriginalFilename: originalFilename,
		StorageKey:       res.StorageKey,
		ContentType:      contentType,
		Size:             res.Size,
		Checksum:         res.Checksum,
		IsPublic:         isPublic,
		OwnerUsername:    p.Username,
	}

	if err := s.fileRepo.Create(ctx, f); err != nil {
		if delErr := s.blobs.Delete(res.StorageKey); delErr != nil {
			s.logger.Warn("Осиротевший блоб после сбоя вставки",
				slog.String("storage_key", res.StorageKey),
				slog.String("error", delErr.Error()))
		}
		uploadsTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("создание записи файла: %w", err)
	}

	uploadsTotal.WithLabelValues("success").Inc()
	uploadBytesTotal.Add(float64(res.Size))

	s.logger.Info("Файл загружен",
		slog.String("file_id", f.ID),
		slog.String("owner_id", f.OwnerID),
		slog.String("filename", f.OriginalFilename),
		slog.Int64("size", f.Size),
	)

	return f, nil
}

// Get возвращает файл с предоставлениями доступа.
func (s *FileService) Get(ctx context.Context, p *access.Principal, fileID string) (*FileDetails, error) {
	f, shares, err := s.fetchVisible(ctx, p, fileID)
	if err != nil {
		return nil, err
	}
	return &FileDetails{File: f, Shares: shares}, nil
}

// Download открывает содержимое файла для стриминга.
// Вызывающий код обязан закрыть возвращённый файл.
func (s *FileService) Download(ctx context.Context, p *access.Principal, fileID string) (*model.File, *os.File, error) {
	f, _, err := s.fetchVisible(ctx, p, fileID)
	if err != nil {
		downloadsTotal.WithLabelValues("denied").Inc()
		return nil, nil, err
	}

	blob, err := s.blobs.Open(f.StorageKey)
	if err != nil {
		// Запись есть, содержимого нет: рассинхронизация хранилища.
		downloadsTotal.WithLabelValues("storage_error").Inc()
		s.logger.Error("Содержимое файла отсутствует на диске",
			slog.String("file_id", f.ID),
			slog.String("storage_key", f.StorageKey))
		return nil, nil, fmt.Errorf("%w: содержимое недоступно", ErrStorage)
	}

	downloadsTotal.WithLabelValues("success").Inc()
	return f, blob, nil
}

// List возвращает страницу файлов, видимых пользователю:
// собственные, предоставленные и публичные, без дублей,
// с фильтром по подстроке имени.
func (s *FileService) List(ctx context.Context, p *access.Principal, search *string, limit, offset int) ([]*model.File, int, error) {
	if p == nil {
		return nil, 0, ErrUnauthenticated
	}

	files, err := s.fileRepo.ListVisibleTo(ctx, p.ID, search, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("получение списка файлов: %w", err)
	}

	total, err := s.fileRepo.CountVisibleTo(ctx, p.ID, search)
	if err != nil {
		return nil, 0, fmt.Errorf("подсчёт файлов: %w", err)
	}

	return files, total, nil
}

// Update применяет патч метаданных. Патч атомарен: если хотя бы одно
// поле не разрешено движком доступа, отклоняется весь патч.
func (s *FileService) Update(ctx context.Context, p *access.Principal, fileID string, patch access.FilePatch) (*model.File, error) {
	f, shares, err := s.fetchVisible(ctx, p, fileID)
	if err != nil {
		return nil, err
	}

	if patch.Rename != nil {
		trimmed := strings.TrimSpace(*patch.Rename)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: новое имя файла не задано", ErrValidation)
		}
		if len(trimmed) > maxFilenameLen {
			return nil, fmt.Errorf("%w: имя файла длиннее %d символов", ErrValidation, maxFilenameLen)
		}
		patch.Rename = &trimmed
	}

	if err := access.DecidePatch(p, f, shares, patch); err != nil {
		return nil, mapAccessErr(err)
	}

	updated, err := s.fileRepo.UpdateMeta(ctx, fileID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("обновление файла: %w", err)
	}

	s.logger.Info("Метаданные файла обновлены",
		slog.String("file_id", fileID),
		slog.String("user_id", p.ID),
	)

	return updated, nil
}

// Delete удаляет файл. Содержимое убирается с диска по мере
// возможности, сбой блоба не отменяет удаление записи.
func (s *FileService) Delete(ctx context.Context, p *access.Principal, fileID string) error {
	f, shares, err := s.fetchVisible(ctx, p, fileID)
	if err != nil {
		return err
	}

	if err := access.Decide(p, f, shares, access.OpDelete); err != nil {
		return mapAccessErr(err)
	}

	if err := s.blobs.Delete(f.StorageKey); err != nil {
		s.logger.Warn("Не удалось удалить содержимое файла",
			slog.String("file_id", f.ID),
			slog.String("storage_key", f.StorageKey),
			slog.String("error", err.Error()))
	}

	if err := s.fileRepo.Delete(ctx, fileID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("удаление записи файла: %w", err)
	}

	s.logger.Info("Файл удалён",
		slog.String("file_id", fileID),
		slog.String("user_id", p.ID),
	)

	return nil
}

// GrantShare предоставляет пользователю доступ к файлу или заменяет
// уровень существующего предоставления. Только владелец управляет
// доступом.
func (s *FileService) GrantShare(ctx context.Context, p *access.Principal, fileID, granteeID, level string) (*model.Share, error) {
	f, shares, err := s.fetchVisible(ctx, p, fileID)
	if err != nil {
		return nil, err
	}

	if err := access.Decide(p, f, shares, access.OpManageShares); err != nil {
		return nil, mapAccessErr(err)
	}

	if !access.IsValidLevel(level) {
		return nil, fmt.Errorf("%w: недопустимый уровень доступа %q, допустимые: read, write, admin",
			ErrValidation, level)
	}

	grantee, err := s.userRepo.GetByID(ctx, granteeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: пользователь-получатель не найден", ErrValidation)
		}
		return nil, fmt.Errorf("проверка получателя: %w", err)
	}

	share := &model.Share{
		FileID:      fileID,
		UserID:      grantee.ID,
		AccessLevel: level,
		Username:    grantee.Username,
	}
	if err := s.shareRepo.Upsert(ctx, share); err != nil {
		if errors.Is(err, repository.ErrOwnerShare) {
			return nil, fmt.Errorf("%w: владельцу доступ не предоставляется", ErrValidation)
		}
		return nil, fmt.Errorf("предоставление доступа: %w", err)
	}

	s.logger.Info("Доступ предоставлен",
		slog.String("file_id", fileID),
		slog.String("grantee_id", grantee.ID),
		slog.String("level", level),
	)

	return share, nil
}

// RevokeShare отзывает доступ. Идемпотентен: отзыв несуществующего
// предоставления завершается успешно.
func (s *FileService) RevokeShare(ctx context.Context, p *access.Principal, fileID, granteeID string) error {
	f, shares, err := s.fetchVisible(ctx, p, fileID)
	if err != nil {
		return err
	}

	if err := access.Decide(p, f, shares, access.OpManageShares); err != nil {
		return mapAccessErr(err)
	}

	revoked, err := s.shareRepo.Delete(ctx, fileID, granteeID)
	if err != nil {
		return fmt.Errorf("отзыв доступа: %w", err)
	}
	if revoked {
		s.logger.Info("Доступ отозван",
			slog.String("file_id", fileID),
			slog.String("grantee_id", granteeID),
		)
	}
	return nil
}

// Stats возвращает агрегаты для панели пользователя.
func (s *FileService) Stats(ctx context.Context, p *access.Principal) (*repository.OwnerStats, error) {
	if p == nil {
		return nil, ErrUnauthenticated
	}

	stats, err := s.fileRepo.StatsForOwner(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("получение статистики: %w", err)
	}
	return stats, nil
}

// fetchVisible возвращает файл и его предоставления, если файл виден
// субъекту. Невидимый и несуществующий файлы неразличимы (ErrNotFound);
// анониму вместо этого возвращается ErrUnauthenticated, что также
// не раскрывает существование файла.
func (s *FileService) fetchVisible(ctx context.Context, p *access.Principal, fileID string) (*model.File, []*model.Share, error) {
	var principalID *string
	if p != nil {
		principalID = &p.ID
	}

	f, err := s.fileRepo.GetVisibleTo(ctx, fileID, principalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if p == nil {
				return nil, nil, ErrUnauthenticated
			}
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("получение файла: %w", err)
	}

	shares, err := s.shareRepo.ListForFile(ctx, f.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("получение предоставлений: %w", err)
	}

	return f, shares, nil
}

// mapAccessErr переводит ошибки движка доступа в ошибки сервисного слоя.
func mapAccessErr(err error) error {
	switch {
	case errors.Is(err, access.ErrUnauthenticated):
		return ErrUnauthenticated
	case errors.Is(err, access.ErrForbidden):
		return ErrForbidden
	case errors.Is(err, access.ErrEmptyPatch):
		return fmt.Errorf("%w: пустой набор изменений", ErrValidation)
	}
	return err
}
