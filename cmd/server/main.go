package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"abroad/internal/database"
	"abroad/internal/ordering"
	"abroad/internal/router"
	"abroad/pkg/config"
	"abroad/pkg/jwt"
	"abroad/pkg/logger"
	"abroad/pkg/redisstore"

	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.GetConfig()

	// 初始化日志
	if err := logger.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLogger := logger.GetLogger()
	appLogger.Info("Starting abroad back-office...")

	// 初始化数据库
	if err := database.Initialize(cfg); err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		// 关闭数据库连接
		if err := database.Close(); err != nil {
			appLogger.Error("Failed to close database:", err)
		}
		// 关闭Redis连接
		if err := database.CloseRedisStore(); err != nil {
			appLogger.Error("Failed to close Redis:", err)
		}
	}()

	// 执行数据库迁移
	if err := database.Migrate(); err != nil {
		appLogger.Fatalf("Failed to migrate database: %v", err)
	}

	// Redis 不可用时服务照常启动：排序不加锁，登出不吊销令牌
	var store *redisstore.RedisStore
	var locker ordering.Locker
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if redisStore := database.GetRedisStore(); redisStore.Ping(pingCtx) == nil {
		store, locker = redisStore, redisStore
	} else {
		appLogger.Warn("Redis unavailable, order locking and token revocation disabled")
	}
	cancel()
	orders := ordering.NewManager(locker)

	// 执行种子数据初始化
	if cfg.Seed.Enabled {
		if err := seedData(context.Background(), database.GetDB(), cfg, orders); err != nil {
			appLogger.Fatalf("Failed to initialize seed data: %v", err)
		}
	}

	// 设置Gin模式
	gin.SetMode(cfg.Server.Mode)

	r := router.SetupRouter(router.Dependencies{
		Config: cfg,
		DB:     database.GetDB(),
		JWT:    jwt.GetJWTManager(),
		Redis:  store,
		Orders: orders,
	})

	// 启动服务器
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	appLogger.Infof("Server started on port %s", cfg.Server.Port)

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown:", err)
	}
	appLogger.Info("Server exited")
}
