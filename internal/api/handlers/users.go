// users.go — обработчики /api/v1/users endpoints.
// Поиск пользователей для выбора получателя доступа.
package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/gofileshare/internal/api/errors"
	"github.com/bigkaa/gofileshare/internal/api/middleware"
)

// SearchUsers — GET /api/v1/users?search=<подстрока>.
// Ищет пользователей по подстроке имени. Сам ищущий исключается,
// выдача ограничена сервисным лимитом.
func (h *APIHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	term := r.URL.Query().Get("search")

	profiles, err := h.users.Search(r.Context(), term, p.ID)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка поиска пользователей")
		return
	}

	items := make([]userResponse, len(profiles))
	for i, profile := range profiles {
		items[i] = mapUserProfile(profile)
	}

	writeJSON(w, http.StatusOK, items)
}
