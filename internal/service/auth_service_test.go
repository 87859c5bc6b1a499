package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopvd/backoffice/internal/constants"
	"github.com/shopvd/backoffice/internal/models"
	"github.com/shopvd/backoffice/internal/repository"

	"gorm.io/gorm"
)

type mapStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapStore() *mapStore {
	return &mapStore{data: map[string][]byte{}}
}

func (m *mapStore) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *mapStore) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *mapStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func setupAuthServiceTest(t *testing.T) (*AuthService, *mapStore, *gorm.DB) {
	t.Helper()
	db := setupServiceTestDB(t)
	store := newMapStore()
	svc := NewAuthService(repository.NewUserRepository(db), store, 0)
	created, err := svc.EnsureUser(context.Background(), "admin", "secret123", "Quản trị", constants.RoleAdmin)
	if err != nil || !created {
		t.Fatalf("ensure user failed: created=%v err=%v", created, err)
	}
	return svc, store, db
}

func TestLoginIssuesSevenDaySession(t *testing.T) {
	svc, _, db := setupAuthServiceTest(t)
	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	if _, err := svc.Login(ctx, "", ""); !errors.Is(err, ErrLoginFieldsRequired) {
		t.Fatalf("expected fields required, got %v", err)
	}
	if _, err := svc.Login(ctx, "admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "ghost", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}

	result, err := svc.Login(ctx, "admin", "secret123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if len(result.SessionToken) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(result.SessionToken))
	}
	if result.ExpiresAt != fixed.Add(7*24*time.Hour).Unix() {
		t.Fatalf("unexpected expiry %d", result.ExpiresAt)
	}
	if result.User.Role != constants.RoleAdmin {
		t.Fatalf("unexpected role %s", result.User.Role)
	}
	var count int64
	db.Model(&models.Session{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 session row, got %d", count)
	}
}

func TestVerifySessionAndLogout(t *testing.T) {
	svc, store, _ := setupAuthServiceTest(t)
	ctx := context.Background()

	result, err := svc.Login(ctx, "admin", "secret123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	user, err := svc.VerifySession(ctx, result.SessionToken)
	if err != nil || user.Username != "admin" {
		t.Fatalf("verify failed: %+v err=%v", user, err)
	}
	if len(store.data) != 1 {
		t.Fatalf("expected session cached, got %d entries", len(store.data))
	}
	if _, err := svc.VerifySession(ctx, "nope"); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected invalid session, got %v", err)
	}

	if err := svc.Logout(ctx, result.SessionToken); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected cache cleared on logout")
	}
	if _, err := svc.VerifySession(ctx, result.SessionToken); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected session invalid after logout, got %v", err)
	}
}

func TestExpiredSessionRejected(t *testing.T) {
	svc, _, _ := setupAuthServiceTest(t)
	ctx := context.Background()
	past := time.Now().Add(-8 * 24 * time.Hour)
	svc.now = func() time.Time { return past }
	result, err := svc.Login(ctx, "admin", "secret123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	svc.now = time.Now
	if _, err := svc.VerifySession(ctx, result.SessionToken); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected expired session rejected, got %v", err)
	}
	removed, err := svc.PurgeExpiredSessions(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("expected 1 purged session, got %d err=%v", removed, err)
	}
}

func TestChangePasswordRevokesOtherSessions(t *testing.T) {
	svc, _, db := setupAuthServiceTest(t)
	ctx := context.Background()

	first, _ := svc.Login(ctx, "admin", "secret123")
	second, _ := svc.Login(ctx, "admin", "secret123")

	if err := svc.ChangePassword(ctx, first.SessionToken, first.User.ID, "secret123", "123"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected too short, got %v", err)
	}
	if err := svc.ChangePassword(ctx, first.SessionToken, first.User.ID, "bad", "newsecret"); !errors.Is(err, ErrCurrentPassword) {
		t.Fatalf("expected current password error, got %v", err)
	}
	if err := svc.ChangePassword(ctx, first.SessionToken, first.User.ID, "secret123", "newsecret"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	var remaining []models.Session
	db.Find(&remaining)
	if len(remaining) != 1 || remaining[0].ID != first.SessionToken {
		t.Fatalf("expected only current session kept, got %d", len(remaining))
	}
	if second.SessionToken == first.SessionToken {
		t.Fatalf("expected distinct tokens")
	}
	if _, err := svc.Login(ctx, "admin", "newsecret"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}
