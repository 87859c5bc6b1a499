package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopvd/backoffice/internal/config"
	"github.com/shopvd/backoffice/internal/constants"

	"github.com/redis/go-redis/v9"
)

// Store 可选的 KV 缓存，未启用时所有读取都未命中
type Store interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Redis 基于 go-redis 的缓存实现
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis 创建 Redis 缓存；未启用时返回 nil
func NewRedis(cfg *config.RedisConfig) *Redis {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	addr := strings.TrimSpace(cfg.Host)
	if addr == "" {
		addr = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = constants.RedisPrefixDefault
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", addr, port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisWithClient(client, prefix)
}

// NewRedisWithClient 使用现有客户端创建缓存
func NewRedisWithClient(client *redis.Client, prefix string) *Redis {
	if strings.TrimSpace(prefix) == "" {
		prefix = constants.RedisPrefixDefault
	}
	return &Redis{client: client, prefix: strings.TrimSpace(prefix)}
}

// Client 获取 Redis 客户端
func (r *Redis) Client() *redis.Client {
	if r == nil {
		return nil
	}
	return r.client
}

// Ping 检查连接
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.client == nil {
		return errors.New("redis not configured")
	}
	return r.client.Ping(ctx).Err()
}

// Close 关闭连接
func (r *Redis) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

// GetJSON 获取 JSON 缓存
func (r *Redis) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, err := r.client.Get(ctx, r.buildKey(key)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 写入 JSON 缓存
func (r *Redis) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.buildKey(key), payload, ttl).Err()
}

// Delete 删除缓存
func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.buildKey(key)).Err()
}

func (r *Redis) buildKey(key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return r.prefix
	}
	return fmt.Sprintf("%s:%s", r.prefix, trimmed)
}

// Null 未启用缓存时的空实现
type Null struct{}

// GetJSON 总是未命中
func (Null) GetJSON(context.Context, string, interface{}) (bool, error) {
	return false, nil
}

// SetJSON 忽略写入
func (Null) SetJSON(context.Context, string, interface{}, time.Duration) error {
	return nil
}

// Delete 忽略删除
func (Null) Delete(context.Context, string) error {
	return nil
}
