// auth.go — JWT middleware для аутентификации запросов.
// Извлекает Bearer token, проверяет его через сервис аутентификации
// и помещает субъекта запроса в контекст. Аутентификация опциональна:
// запрос без токена проходит дальше анонимом, обязательность
// обеспечивает RequireAuth на конкретных маршрутах.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/gofileshare/internal/api/errors"
	"github.com/bigkaa/gofileshare/internal/domain/access"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeyPrincipal — субъект запроса в контексте.
const ContextKeyPrincipal contextKey = "principal"

// TokenVerifier — проверка JWT. Реализуется service.AuthService.
type TokenVerifier interface {
	// VerifyToken проверяет подпись и срок действия токена
	// и возвращает субъекта запроса.
	VerifyToken(tokenString string) (*access.Principal, error)
}

// Auth — middleware аутентификации по Bearer token.
type Auth struct {
	verifier TokenVerifier
	logger   *slog.Logger
}

// NewAuth создаёт middleware аутентификации.
func NewAuth(verifier TokenVerifier, logger *slog.Logger) *Auth {
	return &Auth{
		verifier: verifier,
		logger:   logger.With(slog.String("component", "auth_middleware")),
	}
}

// Middleware возвращает HTTP middleware, извлекающий субъекта запроса.
// Запрос без заголовка Authorization проходит анонимом; запрос с
// невалидным токеном отклоняется сразу — чтобы клиент с просроченным
// токеном получил 401, а не поведение анонима.
func (a *Auth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				apierrors.Unauthorized(w, "Неверный формат Authorization: ожидается Bearer <token>")
				return
			}

			tokenString := parts[1]
			if tokenString == "" {
				apierrors.Unauthorized(w, "Пустой Bearer token")
				return
			}

			p, err := a.verifier.VerifyToken(tokenString)
			if err != nil {
				a.logger.Debug("JWT валидация не пройдена",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Невалидный или просроченный токен")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyPrincipal, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth — middleware, отклоняющий анонимные запросы.
// Должен использоваться ПОСЛЕ Auth.Middleware().
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromContext(r.Context()) == nil {
			apierrors.Unauthorized(w, "Требуется аутентификация")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PrincipalFromContext извлекает субъекта запроса из контекста.
// Возвращает nil для анонимного запроса.
func PrincipalFromContext(ctx context.Context) *access.Principal {
	p, _ := ctx.Value(ContextKeyPrincipal).(*access.Principal)
	return p
}
