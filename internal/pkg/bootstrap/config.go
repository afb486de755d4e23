// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ReservationSequential = "sequential"
	ReservationParallel   = "parallel"
)

type Config struct {
	App   AppConfig   `yaml:"app"`
	Infra InfraConfig `yaml:"infra"`
}

type AppConfig struct {
	Name                string           `yaml:"name"`
	Port                int              `yaml:"port"`
	LogLevel            string           `yaml:"log_level"`
	ReservationMode     string           `yaml:"reservation_mode"`
	ProcessingTimeout   time.Duration    `yaml:"processing_timeout"`
	CompensationTimeout time.Duration    `yaml:"compensation_timeout"`
	StockSeed           map[string]int64 `yaml:"stock_seed"`
}

type InfraConfig struct {
	Redis  RedisConfig  `yaml:"redis"`
	MySQL  MySQLConfig  `yaml:"mysql"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	Jaeger JaegerConfig `yaml:"jaeger"`
	Nacos  NacosConfig  `yaml:"nacos"`
}

type RedisConfig struct {
	Addrs string `yaml:"addrs"`
}

type MySQLConfig struct {
	Addr     string `yaml:"addr"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type KafkaConfig struct {
	Brokers    string `yaml:"brokers"`
	AlertTopic string `yaml:"alert_topic"`
}

type JaegerConfig struct {
	Endpoint    string  `yaml:"endpoint"` // 为空时不导出 Span
	SampleRatio float64 `yaml:"sample_ratio"`
}

type NacosConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addrs     string `yaml:"addrs"`
	Namespace string `yaml:"namespace"`
	Group     string `yaml:"group"`
}

// KafkaBrokers 返回拆分后的 broker 列表
func (c KafkaConfig) KafkaBrokers() []string {
	var out []string
	for _, b := range strings.Split(c.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

var currentConfig atomic.Pointer[Config]

// GetCurrentConfig 返回最近一次加载的配置；尚未加载时返回默认配置。
func GetCurrentConfig() *Config {
	if c := currentConfig.Load(); c != nil {
		return c
	}
	c := DefaultConfig()
	return &c
}

// DefaultConfig 返回本地开发使用的默认配置
func DefaultConfig() Config {
	return Config{
		App: AppConfig{
			Name:                "figures-service",
			Port:                8080,
			LogLevel:            "info",
			ReservationMode:     ReservationSequential,
			ProcessingTimeout:   10 * time.Second,
			CompensationTimeout: 5 * time.Second,
		},
		Infra: InfraConfig{
			Redis:  RedisConfig{Addrs: "localhost:6379"},
			MySQL:  MySQLConfig{Addr: "localhost:3306", User: "root", Database: "figures"},
			Kafka:  KafkaConfig{Brokers: "localhost:9092", AlertTopic: "figures.compensation.alerts"},
			Jaeger: JaegerConfig{Endpoint: "http://localhost:14268/api/traces", SampleRatio: 1},
			Nacos:  NacosConfig{Addrs: "localhost:8848", Group: "DEFAULT_GROUP"},
		},
	}
}

// LoadConfig 读取 YAML 配置（文件不存在时使用默认值），再用环境变量覆盖地址类配置。
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.Infra.Redis.Addrs = getEnv("REDIS_ADDRS", cfg.Infra.Redis.Addrs)
	cfg.Infra.MySQL.Addr = getEnv("MYSQL_ADDR", cfg.Infra.MySQL.Addr)
	cfg.Infra.MySQL.Password = getEnv("MYSQL_PASSWORD", cfg.Infra.MySQL.Password)
	cfg.Infra.Kafka.Brokers = getEnv("KAFKA_BROKERS", cfg.Infra.Kafka.Brokers)
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Infra.Jaeger.Endpoint)
	cfg.Infra.Nacos.Addrs = getEnv("NACOS_SERVER_ADDRS", cfg.Infra.Nacos.Addrs)
	cfg.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", cfg.Infra.Nacos.Namespace)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	currentConfig.Store(&cfg)
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.App.ReservationMode {
	case ReservationSequential, ReservationParallel:
	default:
		return fmt.Errorf("unknown reservation_mode %q", c.App.ReservationMode)
	}
	if c.App.ProcessingTimeout <= 0 || c.App.CompensationTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if r := c.Infra.Jaeger.SampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("jaeger sample_ratio must be within [0, 1], got %v", r)
	}
	for k, v := range c.App.StockSeed {
		if v < 0 {
			return fmt.Errorf("stock_seed[%s] must not be negative", k)
		}
	}
	return nil
}

// getEnv 从环境变量中读取配置，不存在时返回默认值。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
