package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrLockTimeout 等待锁超时
var ErrLockTimeout = errors.New("获取锁超时")

// RedisStore Redis存储：排序分组锁、已吊销令牌
type RedisStore struct {
	client   *redis.Client
	prefix   string
	lockTTL  time.Duration
	lockWait time.Duration
}

// Config Redis配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
	LockTTL  time.Duration
	LockWait time.Duration
}

// 释放锁时只删除自己持有的锁
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisStore 创建Redis存储实例
func NewRedisStore(config *Config) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})
	return NewWithClient(client, config)
}

// NewWithClient 使用已有客户端创建（测试使用）
func NewWithClient(client *redis.Client, config *Config) *RedisStore {
	prefix := config.Prefix
	if prefix == "" {
		prefix = "abroad"
	}
	lockTTL := config.LockTTL
	if lockTTL <= 0 {
		lockTTL = 5 * time.Second
	}
	lockWait := config.LockWait
	if lockWait <= 0 {
		lockWait = 2 * time.Second
	}

	return &RedisStore{
		client:   client,
		prefix:   prefix,
		lockTTL:  lockTTL,
		lockWait: lockWait,
	}
}

// Close 关闭Redis连接
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping 测试Redis连接
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) key(parts ...string) string {
	k := s.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

// ========== 分组锁 ==========

// Lock 获取命名锁，返回释放函数；在 lockWait 内拿不到锁返回 ErrLockTimeout
func (s *RedisStore) Lock(ctx context.Context, name string) (func(), error) {
	key := s.key("lock", name)
	token := uuid.New().String()
	deadline := time.Now().Add(s.lockWait)

	for {
		ok, err := s.client.SetNX(ctx, key, token, s.lockTTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(25 * time.Millisecond):
		}
	}

	return func() {
		// 使用独立上下文，保证请求取消后依然释放
		_ = unlockScript.Run(context.Background(), s.client, []string{key}, token).Err()
	}, nil
}

// ========== 令牌吊销 ==========

// RevokeToken 吊销令牌直到其过期
func (s *RedisStore) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.key("revoked", tokenID), 1, ttl).Err()
}

// IsTokenRevoked 检查令牌是否已被吊销
func (s *RedisStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key("revoked", tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
