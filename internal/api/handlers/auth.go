// auth.go — обработчики /api/v1/auth endpoints.
// Регистрация, вход, выход и профиль текущего пользователя.
package handlers

import (
	"encoding/json"
	"net/http"

	apierrors "github.com/bigkaa/gofileshare/internal/api/errors"
	"github.com/bigkaa/gofileshare/internal/api/middleware"
)

// registerRequest — тело запроса регистрации.
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest — тело запроса входа.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse — ответ на успешный вход.
type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// Register — POST /api/v1/auth/register.
// Создаёт нового пользователя. 409 при занятом имени или email.
func (h *APIHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	u, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка регистрации пользователя")
		return
	}

	writeJSON(w, http.StatusCreated, mapUserProfile(u.Profile()))
}

// Login — POST /api/v1/auth/login.
// Проверяет учётные данные и выдаёт JWT.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	token, u, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка входа")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  mapUserProfile(u.Profile()),
	})
}

// Logout — POST /api/v1/auth/logout.
// Токены stateless, сервер ничего не хранит: клиент просто
// выбрасывает токен. Endpoint существует для симметрии API.
func (h *APIHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// Me — GET /api/v1/auth/me.
// Возвращает профиль текущего пользователя.
func (h *APIHandler) Me(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	profile, err := h.users.GetProfile(r.Context(), p.ID)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения профиля")
		return
	}

	writeJSON(w, http.StatusOK, mapUserProfile(profile))
}
