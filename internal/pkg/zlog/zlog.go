// Package zlog 提供基于 zap 的全局日志
package zlog

import (
	"os"
	"sync"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options 日志选项
type Options struct {
	Level      string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Debug      bool
}

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// Init 初始化全局日志
// File 为空时输出到控制台，否则按大小切割写文件
func Init(opts Options) *zap.Logger {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var (
		encoder zapcore.Encoder
		sink    zapcore.WriteSyncer
	)
	if opts.File != "" {
		encoder = zapcore.NewJSONEncoder(encCfg)
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAge,
			Compress:   true,
		})
	} else {
		if opts.Debug {
			encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		encoder = zapcore.NewConsoleEncoder(encCfg)
		sink = zapcore.Lock(os.Stdout)
	}

	l := zap.New(zapcore.NewCore(encoder, sink, level), zap.AddCaller(), zap.AddCallerSkip(1))
	Set(l)
	return l
}

// Set 替换全局日志（测试中可注入 zaptest / observer）
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// L 返回全局日志
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug 调试日志
func Debug(msg string, fields ...zap.Field) { L().Debug(msg, fields...) }

// Info 信息日志
func Info(msg string, fields ...zap.Field) { L().Info(msg, fields...) }

// Warn 警告日志
func Warn(msg string, fields ...zap.Field) { L().Warn(msg, fields...) }

// Error 错误日志
func Error(msg string, fields ...zap.Field) { L().Error(msg, fields...) }

// Fatal 致命错误，输出后退出
func Fatal(msg string, fields ...zap.Field) { L().Fatal(msg, fields...) }

// Sync 刷新缓冲
func Sync() error { return L().Sync() }
