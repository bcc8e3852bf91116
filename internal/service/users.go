// users.go — сервис пользователей: профили с LRU-кэшем и поиск
// получателей доступа.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/gofileshare/internal/domain/model"
	"github.com/bigkaa/gofileshare/internal/repository"
)

// Ограничения поиска пользователей.
const (
	minSearchTermLen = 2
	searchLimit      = 10
)

// Prometheus-метрики кэша профилей.
var (
	userCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fs_user_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш профилей пользователей.",
	})
	userCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fs_user_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша профилей пользователей.",
	})
)

// UserService — профили пользователей и поиск получателей доступа.
// Профили кэшируются в LRU с TTL: записи users неизменяемы,
// поэтому инвалидация не требуется.
type UserService struct {
	userRepo repository.UserRepository
	cache    *expirable.LRU[string, model.UserProfile]
	logger   *slog.Logger
}

// NewUserService создаёт сервис пользователей.
// cacheSize — максимальное количество профилей в кэше,
// cacheTTL — время жизни записи после добавления.
func NewUserService(
	userRepo repository.UserRepository,
	cacheSize int,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		cache:    expirable.NewLRU[string, model.UserProfile](cacheSize, nil, cacheTTL),
		logger:   logger.With(slog.String("component", "user_service")),
	}
}

// GetProfile возвращает публичный профиль пользователя по UUID.
func (s *UserService) GetProfile(ctx context.Context, userID string) (model.UserProfile, error) {
	if profile, ok := s.cache.Get(userID); ok {
		userCacheHitsTotal.Inc()
		return profile, nil
	}
	userCacheMissesTotal.Inc()

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.UserProfile{}, ErrNotFound
		}
		return model.UserProfile{}, fmt.Errorf("получение пользователя: %w", err)
	}

	profile := u.Profile()
	s.cache.Add(userID, profile)
	return profile, nil
}

// Search ищет пользователей по подстроке имени для выбора получателя
// доступа. Запрос короче двух символов отклоняется, сам ищущий
// исключается из результатов, выдача ограничена десятью записями.
func (s *UserService) Search(ctx context.Context, term, excludeID string) ([]model.UserProfile, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < minSearchTermLen {
		return nil, fmt.Errorf("%w: поисковый запрос короче %d символов",
			ErrValidation, minSearchTermLen)
	}

	users, err := s.userRepo.Search(ctx, term, excludeID, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("поиск пользователей: %w", err)
	}

	profiles := make([]model.UserProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	return profiles, nil
}
