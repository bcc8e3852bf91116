package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/bigkaa/gofileshare/internal/domain/model"
	"github.com/bigkaa/gofileshare/internal/repository"
)

func newTestUserService(userRepo *mockUserRepo) *UserService {
	if userRepo == nil {
		userRepo = &mockUserRepo{}
	}
	return NewUserService(userRepo, 16, time.Minute, slog.Default())
}

func TestGetProfile_CachesResult(t *testing.T) {
	calls := 0
	userRepo := &mockUserRepo{
		getByIDFn: func(_ context.Context, id string) (*model.User, error) {
			calls++
			return &model.User{ID: id, Username: "alice", Email: "alice@example.com"}, nil
		},
	}
	svc := newTestUserService(userRepo)

	for i := 0; i < 3; i++ {
		profile, err := svc.GetProfile(context.Background(), "u1")
		if err != nil {
			t.Fatalf("GetProfile() ошибка: %v", err)
		}
		if profile.Username != "alice" {
			t.Errorf("Username = %q", profile.Username)
		}
	}

	// Повторные запросы обслуживаются из кэша
	if calls != 1 {
		t.Errorf("репозиторий вызван %d раз, ожидали 1", calls)
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	svc := newTestUserService(nil)

	_, err := svc.GetProfile(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProfile(несуществующий) = %v, ожидали ErrNotFound", err)
	}
}

func TestGetProfile_NotFoundNotCached(t *testing.T) {
	calls := 0
	userRepo := &mockUserRepo{
		getByIDFn: func(_ context.Context, id string) (*model.User, error) {
			calls++
			if calls == 1 {
				return nil, repository.ErrNotFound
			}
			return &model.User{ID: id, Username: "alice"}, nil
		},
	}
	svc := newTestUserService(userRepo)

	if _, err := svc.GetProfile(context.Background(), "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("первый GetProfile() = %v, ожидали ErrNotFound", err)
	}
	// Отрицательный результат не кэшируется
	if _, err := svc.GetProfile(context.Background(), "u1"); err != nil {
		t.Errorf("второй GetProfile() ошибка: %v", err)
	}
	if calls != 2 {
		t.Errorf("репозиторий вызван %d раз, ожидали 2", calls)
	}
}

func TestSearch_TermTooShort(t *testing.T) {
	svc := newTestUserService(nil)

	for _, term := range []string{"", "a", "  a  ", "я"} {
		_, err := svc.Search(context.Background(), term, "u1")
		if !errors.Is(err, ErrValidation) {
			t.Errorf("Search(%q) = %v, ожидали ErrValidation", term, err)
		}
	}
}

func TestSearch_Success(t *testing.T) {
	userRepo := &mockUserRepo{
		searchFn: func(_ context.Context, term, excludeID string, limit int) ([]*model.User, error) {
			if term != "ali" || excludeID != "u1" || limit != searchLimit {
				t.Errorf("Search(%q, %q, %d)", term, excludeID, limit)
			}
			return []*model.User{
				{ID: "u2", Username: "alice", Email: "alice@example.com", PasswordHash: "секрет"},
			}, nil
		},
	}
	svc := newTestUserService(userRepo)

	profiles, err := svc.Search(context.Background(), "  ali ", "u1")
	if err != nil {
		t.Fatalf("Search() ошибка: %v", err)
	}
	if len(profiles) != 1 || profiles[0].Username != "alice" {
		t.Fatalf("Search() = %+v", profiles)
	}
}

func TestSearch_CyrillicTerm(t *testing.T) {
	userRepo := &mockUserRepo{
		searchFn: func(_ context.Context, term, _ string, _ int) ([]*model.User, error) {
			if term != "ив" {
				t.Errorf("Search(%q)", term)
			}
			return nil, nil
		},
	}
	svc := newTestUserService(userRepo)

	// Два символа кириллицы проходят проверку длины
	if _, err := svc.Search(context.Background(), "ив", "u1"); err != nil {
		t.Errorf("Search(кириллица) ошибка: %v", err)
	}
}
