package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ashwinyue/next-assist/internal/config"
	"github.com/ashwinyue/next-assist/internal/database"
	"github.com/ashwinyue/next-assist/internal/handler"
	"github.com/ashwinyue/next-assist/internal/pkg/zlog"
	"github.com/ashwinyue/next-assist/internal/repository"
	"github.com/ashwinyue/next-assist/internal/router"
	"github.com/ashwinyue/next-assist/internal/service"
	"github.com/ashwinyue/next-assist/internal/service/auth"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	zlog.Init(zlog.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Debug:      cfg.App.Debug,
	})
	defer zlog.Sync()

	// 设置 Gin 模式
	gin.SetMode(cfg.Server.Mode)

	// 初始化数据库
	db, err := database.New(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(context.Background(), db.DB); err != nil {
			return err
		}
	}

	// 初始化 Redis，不可用时缓冲区与归档退回进程内存储
	redisClient := newRedisClient(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	tokens, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		zlog.Warn("auth.jwtSecret not set, using a random secret; tokens will not survive restart")
	}

	// 初始化各层
	ctx := context.Background()
	repos := repository.NewRepositories(db.DB)
	services, err := service.NewServices(ctx, repos, cfg, redisClient)
	if err != nil {
		return fmt.Errorf("failed to init services: %w", err)
	}
	handlers := handler.NewHandlers(services)

	// 初始化路由
	r := router.SetupRouter(handlers, tokens, cfg.Server.AllowOrigins)

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	zlog.Info("shutting down server")

	// 优雅关闭，先停止接收请求，再落盘未写入的会话
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}
	services.Close(shutdownCtx)

	zlog.Info("server exited")
	return nil
}

// newRedisClient 连接 Redis，Ping 失败时返回 nil
func newRedisClient(cfg *config.Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		zlog.Warn("redis unavailable, falling back to in-memory stores",
			zap.String("addr", cfg.Redis.GetAddr()), zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}
