// Package database 负责 PostgreSQL 连接与迁移
package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ashwinyue/next-assist/internal/config"
	"github.com/ashwinyue/next-assist/internal/model"
	"github.com/ashwinyue/next-assist/internal/pkg/zlog"
)

const pingTimeout = 5 * time.Second

// DB 数据库封装
type DB struct {
	*gorm.DB
}

// New 连接数据库并配置连接池，不做迁移
func New(cfg *config.Config) (*DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.GetDSN()), gormConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.MaxLifetime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	zlog.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("db", cfg.Database.DBName),
		zap.Duration("slow_query", cfg.Database.SlowQuery()))
	return &DB{DB: db}, nil
}

// gormConfig 日志接入 zlog，时间统一为 UTC
func gormConfig(cfg *config.Config) *gorm.Config {
	level := gormlogger.Warn
	if cfg.App.Debug {
		level = gormlogger.Info
	}
	return &gorm.Config{
		Logger: NewLogger(zlog.L().Named("gorm"), level, cfg.Database.SlowQuery()),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Migrate 同步助手相关的表结构
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(model.AllModels...); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	zlog.Info("database migrated", zap.Int("models", len(model.AllModels)))
	return nil
}

// Close 关闭数据库连接
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping 检查数据库连接
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
