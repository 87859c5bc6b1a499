package cache

import (
	"context"
	"fmt"
	"time"
)

const sessionStateCacheTTL = 5 * time.Minute

// SessionState 会话鉴权快照，避免每个请求都查库
type SessionState struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	ExpiresAt int64  `json:"expires_at"`
}

func sessionStateKey(token string) string {
	return fmt.Sprintf("auth:session:%s", token)
}

// GetSessionState 获取会话快照，已过期视为未命中
func GetSessionState(ctx context.Context, store Store, token string) (*SessionState, bool, error) {
	if store == nil || token == "" {
		return nil, false, nil
	}
	var state SessionState
	hit, err := store.GetJSON(ctx, sessionStateKey(token), &state)
	if err != nil || !hit {
		return nil, false, err
	}
	if state.ExpiresAt <= time.Now().Unix() {
		return nil, false, nil
	}
	return &state, true, nil
}

// SetSessionState 写入会话快照，TTL 不超过会话剩余时间
func SetSessionState(ctx context.Context, store Store, token string, state *SessionState) error {
	if store == nil || state == nil || token == "" {
		return nil
	}
	ttl := sessionStateCacheTTL
	if remaining := time.Until(time.Unix(state.ExpiresAt, 0)); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return nil
	}
	return store.SetJSON(ctx, sessionStateKey(token), state, ttl)
}

// DelSessionState 删除会话快照
func DelSessionState(ctx context.Context, store Store, token string) error {
	if store == nil || token == "" {
		return nil
	}
	return store.Delete(ctx, sessionStateKey(token))
}
