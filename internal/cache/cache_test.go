package cache

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]interface{}
}

func (m *memoryStore) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return false, nil
	}
	*(dest.(*SessionState)) = v.(SessionState)
	return true, nil
}

func (m *memoryStore) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = *(value.(*SessionState))
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func TestNullStoreAlwaysMisses(t *testing.T) {
	var store Store = Null{}
	if err := store.SetJSON(context.Background(), "k", 1, time.Minute); err != nil {
		t.Fatalf("null set failed: %v", err)
	}
	var got int
	hit, err := store.GetJSON(context.Background(), "k", &got)
	if err != nil || hit {
		t.Fatalf("null store should miss, hit=%v err=%v", hit, err)
	}
}

func TestSessionStateRoundTripAndExpiry(t *testing.T) {
	store := &memoryStore{data: map[string]interface{}{}}
	ctx := context.Background()
	live := &SessionState{UserID: 1, Username: "admin", Role: "admin", ExpiresAt: time.Now().Add(time.Hour).Unix()}
	if err := SetSessionState(ctx, store, "tok", live); err != nil {
		t.Fatalf("set state failed: %v", err)
	}
	got, hit, err := GetSessionState(ctx, store, "tok")
	if err != nil || !hit || got.Username != "admin" {
		t.Fatalf("state should hit: %+v %v %v", got, hit, err)
	}

	store.data[sessionStateKey("old")] = SessionState{UserID: 2, ExpiresAt: time.Now().Add(-time.Minute).Unix()}
	if _, hit, _ := GetSessionState(ctx, store, "old"); hit {
		t.Fatalf("expired snapshot should miss")
	}

	if err := DelSessionState(ctx, store, "tok"); err != nil {
		t.Fatalf("delete state failed: %v", err)
	}
	if _, hit, _ := GetSessionState(ctx, store, "tok"); hit {
		t.Fatalf("deleted snapshot should miss")
	}
}

func TestRedisStoreAgainstServer(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("skip redis test: TEST_REDIS_ADDR is empty")
	}
	store := NewRedisWithClient(redis.NewClient(&redis.Options{Addr: addr}), "svdtest")
	defer store.Close()
	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("ping failed: %v", err)
	}

	type payload struct {
		Total int64 `json:"total"`
	}
	if err := store.SetJSON(ctx, "packaging", payload{Total: 8000}, time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	var got payload
	hit, err := store.GetJSON(ctx, "packaging", &got)
	if err != nil || !hit || got.Total != 8000 {
		t.Fatalf("get want 8000 got %+v hit=%v err=%v", got, hit, err)
	}
	if err := store.Delete(ctx, "packaging"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	hit, _ = store.GetJSON(ctx, "packaging", &got)
	if hit {
		t.Fatalf("deleted key should miss")
	}
}
