// handler.go — основной обработчик API.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	apierrors "github.com/bigkaa/gofileshare/internal/api/errors"
	"github.com/bigkaa/gofileshare/internal/domain/model"
	"github.com/bigkaa/gofileshare/internal/service"
)

// APIHandler — основной обработчик API.
// Делегирует запросы в сервисный слой.
type APIHandler struct {
	health *HealthHandler
	auth   *service.AuthService
	files  *service.FileService
	users  *service.UserService
	logger *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	auth *service.AuthService,
	files *service.FileService,
	users *service.UserService,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health: health,
		auth:   auth,
		files:  files,
		users:  users,
		logger: logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Представления ответов API ---

// userResponse — публичный профиль пользователя.
type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// fileResponse — метаданные файла. StorageKey наружу не отдаётся.
type fileResponse struct {
	ID               string `json:"id"`
	OwnerID          string `json:"owner_id"`
	OwnerUsername    string `json:"owner_username,omitempty"`
	OriginalFilename string `json:"original_filename"`
	ContentType      string `json:"content_type"`
	Size             int64  `json:"size"`
	Checksum         string `json:"checksum"`
	IsPublic         bool   `json:"is_public"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// shareResponse — предоставление доступа к файлу.
type shareResponse struct {
	FileID      string `json:"file_id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username,omitempty"`
	AccessLevel string `json:"access_level"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// fileListResponse — страница списка файлов.
type fileListResponse struct {
	Items   []fileResponse `json:"items"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	HasMore bool           `json:"has_more"`
}

func mapUserProfile(p model.UserProfile) userResponse {
	return userResponse{
		ID:       p.ID,
		Username: p.Username,
		Email:    p.Email,
	}
}

func mapFile(f *model.File) fileResponse {
	return fileResponse{
		ID:               f.ID,
		OwnerID:          f.OwnerID,
		OwnerUsername:    f.OwnerUsername,
		OriginalFilename: f.OriginalFilename,
		ContentType:      f.ContentType,
		Size:             f.Size,
		Checksum:         f.Checksum,
		IsPublic:         f.IsPublic,
		CreatedAt:        f.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        f.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func mapShare(s *model.Share) shareResponse {
	return shareResponse{
		FileID:      s.FileID,
		UserID:      s.UserID,
		Username:    s.Username,
		AccessLevel: s.AccessLevel,
		CreatedAt:   s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// paginationParams извлекает и нормализует параметры пагинации
// из query string. Возвращает корректные limit и offset.
func paginationParams(r *http.Request) (int, int) {
	l := 100
	o := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			l = v
		}
	}
	if l < 1 {
		l = 1
	}
	if l > 1000 {
		l = 1000
	}

	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			o = v
		}
	}
	if o < 0 {
		o = 0
	}

	return l, o
}

// writeServiceError переводит ошибку сервисного слоя в HTTP-ответ.
// Неизвестные ошибки логируются и отдаются как 500 без деталей.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, "Ресурс не найден")
	case errors.Is(err, service.ErrUnauthenticated):
		apierrors.Unauthorized(w, "Требуется аутентификация")
	case errors.Is(err, service.ErrInvalidCredentials):
		apierrors.Unauthorized(w, "Неверное имя пользователя или пароль")
	case errors.Is(err, service.ErrForbidden):
		apierrors.Forbidden(w, "Недостаточно прав для выполнения операции")
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, service.ErrTooLarge):
		apierrors.PayloadTooLarge(w, err.Error())
	case errors.Is(err, service.ErrStorage):
		h.logger.Error(logMsg, "error", err)
		apierrors.StorageError(w, "Сбой файлового хранилища")
	default:
		h.logger.Error(logMsg, "error", err)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}
