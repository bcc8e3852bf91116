// dashboard.go — обработчик /api/v1/dashboard.
// Агрегаты панели пользователя: количество и объём файлов.
package handlers

import (
	"net/http"

	"github.com/bigkaa/gofileshare/internal/api/middleware"
)

// dashboardResponse — агрегаты панели пользователя.
type dashboardResponse struct {
	OwnedFiles   int   `json:"owned_files"`
	TotalSize    int64 `json:"total_size"`
	PublicFiles  int   `json:"public_files"`
	SharedWithMe int   `json:"shared_with_me"`
}

// Dashboard — GET /api/v1/dashboard.
func (h *APIHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())

	stats, err := h.files.Stats(r.Context(), p)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения статистики")
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		OwnedFiles:   stats.OwnedFiles,
		TotalSize:    stats.TotalSize,
		PublicFiles:  stats.PublicFiles,
		SharedWithMe: stats.SharedWithMe,
	})
}
