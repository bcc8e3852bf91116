// shares.go — обработчики /api/v1/files/{id}/shares endpoints.
// Управление предоставлениями доступа к файлу. Только владелец.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/bigkaa/gofileshare/internal/api/errors"
	"github.com/bigkaa/gofileshare/internal/api/middleware"
)

// grantShareRequest — тело запроса предоставления доступа.
type grantShareRequest struct {
	UserID      string `json:"user_id"`
	AccessLevel string `json:"access_level"`
}

// ListShares — GET /api/v1/files/{id}/shares.
// Список предоставлений доступа к файлу.
func (h *APIHandler) ListShares(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	id := fileIDParam(w, r)
	if id == "" {
		return
	}

	details, err := h.files.Get(r.Context(), p, id)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения предоставлений")
		return
	}

	items := make([]shareResponse, len(details.Shares))
	for i, s := range details.Shares {
		items[i] = mapShare(s)
	}

	writeJSON(w, http.StatusOK, items)
}

// GrantShare — POST /api/v1/files/{id}/shares.
// Предоставляет пользователю доступ к файлу или заменяет уровень
// существующего предоставления.
func (h *APIHandler) GrantShare(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	id := fileIDParam(w, r)
	if id == "" {
		return
	}

	var req grantShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}
	if uuid.Validate(req.UserID) != nil {
		apierrors.ValidationError(w, "Некорректный UUID пользователя (user_id)")
		return
	}

	share, err := h.files.GrantShare(r.Context(), p, id, req.UserID, req.AccessLevel)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка предоставления доступа")
		return
	}

	writeJSON(w, http.StatusCreated, mapShare(share))
}

// RevokeShare — DELETE /api/v1/files/{id}/shares/{userID}.
// Отзывает доступ. Идемпотентен: отзыв несуществующего
// предоставления — 204.
func (h *APIHandler) RevokeShare(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	id := fileIDParam(w, r)
	if id == "" {
		return
	}

	userID := chi.URLParam(r, "userID")
	if uuid.Validate(userID) != nil {
		apierrors.ValidationError(w, "Некорректный UUID пользователя")
		return
	}

	if err := h.files.RevokeShare(r.Context(), p, id, userID); err != nil {
		h.writeServiceError(w, err, "Ошибка отзыва доступа")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
