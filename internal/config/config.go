package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	AI        AIConfig
	Log       LogConfig
	Auth      AuthConfig
	Assistant AssistantConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  int
	WriteTimeout int
	AllowOrigins []string // 为空时允许所有来源
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int

	SlowQueryMillis int  // 超过该耗时的 SQL 记为慢查询
	AutoMigrate     bool // 启动时同步表结构
}

// SlowQuery 慢查询阈值
func (c *DatabaseConfig) SlowQuery() time.Duration {
	return time.Duration(c.SlowQueryMillis) * time.Millisecond
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AIConfig AI配置
type AIConfig struct {
	Provider string
	OpenAI   OpenAIConfig
	Alibaba  AlibabaConfig
	DeepSeek DeepSeekConfig
}

// OpenAIConfig OpenAI配置
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout int
}

// AlibabaConfig 阿里云配置
type AlibabaConfig struct {
	AccessKeyID     string
	AccessKeySecret string
	Region          string
	Model           string
	Timeout         int
}

// DeepSeekConfig DeepSeek配置
type DeepSeekConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout int
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string
	File       string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // 天
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// AssistantConfig 助手引擎配置
type AssistantConfig struct {
	RestoreWindowHours   int     // 恢复窗口（小时）
	ArchiveLimit         int     // 归档条数上限
	ArchiveRetentionDays int     // 归档保留天数
	FlushDelayMillis     int     // 持久化记录的合并写入延迟
	HistoryWindow        int     // 传给 AI 的历史消息数
	AnomalyThreshold     float64 // 金额异常阈值
	ExpiringWindowDays   int     // 到期提醒窗口
	BufferTTLHours       int     // Redis 缓冲区 TTL
}

// RestoreWindow 恢复窗口
func (c *AssistantConfig) RestoreWindow() time.Duration {
	return time.Duration(c.RestoreWindowHours) * time.Hour
}

// ArchiveRetention 归档保留时长
func (c *AssistantConfig) ArchiveRetention() time.Duration {
	return time.Duration(c.ArchiveRetentionDays) * 24 * time.Hour
}

// FlushDelay 合并写入延迟
func (c *AssistantConfig) FlushDelay() time.Duration {
	return time.Duration(c.FlushDelayMillis) * time.Millisecond
}

// ExpiringWindow 到期提醒窗口
func (c *AssistantConfig) ExpiringWindow() time.Duration {
	return time.Duration(c.ExpiringWindowDays) * 24 * time.Hour
}

// BufferTTL 缓冲区 TTL
func (c *AssistantConfig) BufferTTL() time.Duration {
	return time.Duration(c.BufferTTLHours) * time.Hour
}

// Load 加载配置
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 环境变量
	v.SetEnvPrefix("NEXT_ASSIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("default config: %v", err))
	}
	return cfg
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr 获取 Redis 地址
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "next-assist")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", true)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 60)

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "next_assist")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.maxLifetime", 300)
	v.SetDefault("database.slowQueryMillis", 200)
	v.SetDefault("database.autoMigrate", true)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// AI
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.openai.baseUrl", "https://api.openai.com/v1")
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("ai.openai.timeout", 30)

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.maxSize", 100)
	v.SetDefault("log.maxBackups", 5)
	v.SetDefault("log.maxAge", 30)

	// Auth
	v.SetDefault("auth.issuer", "next-assist")

	// Assistant
	v.SetDefault("assistant.restoreWindowHours", 24)
	v.SetDefault("assistant.archiveLimit", 10)
	v.SetDefault("assistant.archiveRetentionDays", 7)
	v.SetDefault("assistant.flushDelayMillis", 1500)
	v.SetDefault("assistant.historyWindow", 10)
	v.SetDefault("assistant.anomalyThreshold", 1000.0)
	v.SetDefault("assistant.expiringWindowDays", 7)
	v.SetDefault("assistant.bufferTTLHours", 48)
}
