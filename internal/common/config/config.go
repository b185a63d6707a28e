package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Config 应用配置（三个服务共用同一结构，按需取各自的段）
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Consul    ConsulConfig    `json:"consul"`
	Jaeger    JaegerConfig    `json:"jaeger"`
	Log       LogConfig       `json:"log"`
	Clients   ClientsConfig   `json:"clients"`
	Pricing   PricingConfig   `json:"pricing"`
	RateLimit RateLimitConfig `json:"rate_limit"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Name string `json:"name"` // 服务名称（同时用于 Consul 注册）
	Host string `json:"host"` // 监听地址
	Port int    `json:"port"` // HTTP 端口
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	MaxIdle  int    `json:"max_idle"` // 最大空闲连接
	MaxOpen  int    `json:"max_open"` // 最大打开连接
}

// ConsulConfig Consul配置
type ConsulConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// JaegerConfig Jaeger配置
type JaegerConfig struct {
	Endpoint string  `json:"endpoint"`
	Sampler  float64 `json:"sampler"` // 采样率 0.0-1.0
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stdout, file
	Path   string `json:"path"`   // 日志文件路径
}

// ClientsConfig 下游服务客户端配置（vehicles-api 使用）
type ClientsConfig struct {
	Pricing ClientConfig `json:"pricing"`
	Maps    ClientConfig `json:"maps"`
}

// ClientConfig 单个下游服务的访问配置。
// Service 非空时优先通过 Consul 解析实例地址，BaseURL 作为兜底。
type ClientConfig struct {
	Service     string `json:"service"`      // Consul 服务名
	BaseURL     string `json:"base_url"`     // 静态地址兜底，如 http://localhost:8082
	TimeoutMS   int    `json:"timeout_ms"`   // 单次远程调用超时
	MaxFailures int    `json:"max_failures"` // 熔断阈值
	ResetSec    int    `json:"reset_sec"`    // 熔断恢复窗口
}

// PricingConfig pricing-service 专属配置
type PricingConfig struct {
	SeedCount int `json:"seed_count"` // 启动时预置的随机报价条数（0 表示不预置）
}

// RateLimitConfig 限流配置（pricing-service / maps-service 使用）
type RateLimitConfig struct {
	Enabled    bool  `json:"enabled"`
	Capacity   int64 `json:"capacity"`    // 令牌桶容量
	RefillRate int64 `json:"refill_rate"` // 每秒补充令牌数
}

var (
	globalConfig *Config
	configOnce   sync.Once
)

// LoadConfig 加载配置
func LoadConfig(configPath string) (*Config, error) {
	var err error
	configOnce.Do(func() {
		globalConfig = &Config{}
		// 如果配置文件不存在，使用默认配置
		if _, err = os.Stat(configPath); os.IsNotExist(err) {
			logrus.Warnf("Config file not found: %s, using default config", configPath)
			globalConfig = defaultConfig()
			err = nil
			return
		}

		data, readErr := os.ReadFile(configPath)
		if readErr != nil {
			err = fmt.Errorf("failed to read config file: %w", readErr)
			return
		}

		if unmarshalErr := json.Unmarshal(data, globalConfig); unmarshalErr != nil {
			err = fmt.Errorf("failed to parse config file: %w", unmarshalErr)
			return
		}
	})

	if err != nil {
		return nil, err
	}

	return globalConfig, nil
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	if globalConfig == nil {
		return defaultConfig()
	}
	return globalConfig
}

// ClientTimeout 返回该客户端配置的调用超时（含默认值）。
func (c ClientConfig) ClientTimeout() int {
	if c.TimeoutMS <= 0 {
		return 2000
	}
	return c.TimeoutMS
}

// defaultConfig 默认配置（开发环境）
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "vehicles-api",
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     3306,
			User:     "root",
			Password: "root",
			Database: "vehiclemesh",
			MaxIdle:  10,
			MaxOpen:  100,
		},
		Consul: ConsulConfig{
			Host: "localhost",
			Port: 8500,
		},
		Jaeger: JaegerConfig{
			Endpoint: "localhost:6831",
			Sampler:  1.0,
		},
		Log: LogConfig{
			Level:  "debug",
			Format: "text",
			Output: "stdout",
			Path:   "logs/app.log",
		},
		Clients: ClientsConfig{
			Pricing: ClientConfig{
				Service:     "pricing-service",
				BaseURL:     "http://localhost:8082",
				TimeoutMS:   2000,
				MaxFailures: 5,
				ResetSec:    30,
			},
			Maps: ClientConfig{
				Service:     "maps-service",
				BaseURL:     "http://localhost:8083",
				TimeoutMS:   2000,
				MaxFailures: 5,
				ResetSec:    30,
			},
		},
		Pricing: PricingConfig{
			SeedCount: 19,
		},
		RateLimit: RateLimitConfig{
			Enabled:    false,
			Capacity:   200,
			RefillRate: 100,
		},
	}
}
