package database

import (
	"abroad/pkg/config"
	"abroad/pkg/redisstore"
	"sync"
)

var (
	redisStoreInstance *redisstore.RedisStore
	redisStoreOnce     sync.Once
)

// GetRedisStore 获取Redis存储的单例实例
func GetRedisStore() *redisstore.RedisStore {
	redisStoreOnce.Do(func() {
		cfg := config.GetConfig()
		redisStoreInstance = redisstore.NewRedisStore(&redisstore.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			LockTTL:  cfg.Ordering.LockTTL,
			LockWait: cfg.Ordering.LockWait,
		})
	})
	return redisStoreInstance
}

// CloseRedisStore 关闭Redis连接
func CloseRedisStore() error {
	if redisStoreInstance != nil {
		return redisStoreInstance.Close()
	}
	return nil
}
