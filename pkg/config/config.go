// Package config 提供 TOML 配置加载与环境变量覆盖
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/wyfcoding/loanloey/pkg/logger"
)

// Config 服务配置
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// 业务时间展示所用时区
	Timezone string `mapstructure:"timezone"`
	// HTTP 服务配置
	HTTP HTTPConfig `mapstructure:"http"`
	// 数据库配置
	Database DatabaseConfig `mapstructure:"database"`
	// Redis 配置
	Redis RedisConfig `mapstructure:"redis"`
	// Kafka 配置
	Kafka KafkaConfig `mapstructure:"kafka"`
	// 日志配置
	Logger logger.Config `mapstructure:"logger"`
	// 指标配置
	Metrics MetricsConfig `mapstructure:"metrics"`
	// 借贷业务配置
	Loan LoanConfig `mapstructure:"loan"`
	// 风险评级配置
	Risk RiskConfig `mapstructure:"risk"`
	// 回执加密配置
	Receipts ReceiptConfig `mapstructure:"receipts"`
	// 管理员配置
	Admin AdminConfig `mapstructure:"admin"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 驱动：mysql
	Driver string `mapstructure:"driver"`
	// 数据源名称
	DSN string `mapstructure:"dsn"`
	// 最大连接数
	MaxOpenConns int `mapstructure:"max_open_conns"`
	// 最大空闲连接数
	MaxIdleConns int `mapstructure:"max_idle_conns"`
	// 连接最大生命周期（秒）
	ConnMaxLifetime int `mapstructure:"conn_max_lifetime"`
	// 是否启用 SQL 日志
	LogEnabled bool `mapstructure:"log_enabled"`
	// 慢查询阈值（毫秒）
	SlowQueryThreshold int `mapstructure:"slow_query_threshold"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	MaxPoolSize  int    `mapstructure:"max_pool_size"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	Brokers      []string `mapstructure:"brokers"`
	MaxRetries   int      `mapstructure:"max_retries"`
	RetryBackoff int      `mapstructure:"retry_backoff"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoanConfig 借贷业务配置
type LoanConfig struct {
	// 最低借款金额
	MinPrincipal int64 `mapstructure:"min_principal"`
	// 利率策略：fixed 或 tiered
	RatePolicy string `mapstructure:"rate_policy"`
	// fixed 策略下的固定利率
	FixedRate float64 `mapstructure:"fixed_rate"`
}

// RiskConfig 风险评级配置
type RiskConfig struct {
	// 评级规则：default 或 score
	Rule string `mapstructure:"rule"`
	// 临近到期判定天数
	NearDueDays int `mapstructure:"near_due_days"`
	// 评级缓存有效期（秒）
	CacheTTL int `mapstructure:"cache_ttl"`
}

// ReceiptConfig 回执加密配置
type ReceiptConfig struct {
	// RSA 私钥 PEM 路径
	PrivateKeyPath string `mapstructure:"private_key_path"`
	// RSA 公钥 PEM 路径
	PublicKeyPath string `mapstructure:"public_key_path"`
	// 回执大小上限（MB）
	MaxSizeMB int64 `mapstructure:"max_size_mb"`
}

// AdminConfig 管理员配置
type AdminConfig struct {
	// 管理员注册口令的 bcrypt 哈希
	SignupSecretHash string `mapstructure:"signup_secret_hash"`
	// 会话有效期（秒）
	SessionTTL int `mapstructure:"session_ttl"`
}

// Load 加载配置文件并应用环境变量覆盖
func Load(path string, cfg *Config) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix("LOANLOEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshaling config: %w", err)
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "loanloey")
	v.SetDefault("environment", "dev")
	v.SetDefault("timezone", "Asia/Bangkok")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.slow_query_threshold", 1000)

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.max_pool_size", 10)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)

	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.retry_backoff", 100)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/loanloey.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9100)

	v.SetDefault("loan.min_principal", 1000)
	v.SetDefault("loan.rate_policy", "fixed")
	v.SetDefault("loan.fixed_rate", 0.02)

	v.SetDefault("risk.rule", "default")
	v.SetDefault("risk.near_due_days", 3)
	v.SetDefault("risk.cache_ttl", 300)

	v.SetDefault("receipts.private_key_path", "keys/receipt_private.pem")
	v.SetDefault("receipts.public_key_path", "keys/receipt_public.pem")
	v.SetDefault("receipts.max_size_mb", 50)

	v.SetDefault("admin.session_ttl", 86400)
}
