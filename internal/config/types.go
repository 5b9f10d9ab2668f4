// Package config 统一配置管理
//
// 配置加载优先级（高→低）：
//  1. 环境变量（通过 .env 文件或 shell/systemd 注入）
//  2. YAML 配置文件（{env}.yaml，如 dev.yaml、test.yaml、prod.yaml）
//  3. 代码硬编码默认值
//
// 凭据单一数据源：
//
//	JWT 密钥、数据库/Redis/MinIO 密码只存在环境变量中（YAML 中不存储任何密码）。
//
// 配置路径确定策略：
//  1. --config 命令行参数（显式路径）
//  2. CONFIG_DIR 环境变量
//  3. 按 APP_ENV 选择默认路径：
//     - prod → /etc/biovault/
//     - dev/test → ./configs/
package config

import "time"

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// DefaultTokenTTL 令牌有效期（30 天）
const DefaultTokenTTL = 30 * 24 * time.Hour

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	APIServer APIServerConfig `yaml:"api_server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	MinIO     MinIOConfig     `yaml:"minio"`
	Auth      AuthConfig      `yaml:"auth"`
	Datasets  DatasetsConfig  `yaml:"datasets"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

// AuthConfig 认证配置
// 注意：JWTSecret 只从环境变量读取，不存储在 YAML 中
type AuthConfig struct {
	JWTSecret     string        `yaml:"-"`              // 只从 JWT_SECRET 环境变量读取
	TokenTTL      time.Duration `yaml:"token_ttl"`      // 默认 720h
	StrictAddress bool          `yaml:"strict_address"` // 启用 EIP-55 地址格式校验
}

// APIServerConfig API Server 配置
type APIServerConfig struct {
	Port string `yaml:"port"` // 监听端口
	URL  string `yaml:"url"`  // 客户端默认连接地址
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "mongodb"（默认）, "postgres", "sqlite", "memory"
	Path     string `yaml:"path"`   // SQLite 文件路径
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"-"` // 只从 DB_PASSWORD 环境变量读取
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	URI      string `yaml:"uri"` // MongoDB 连接 URI（优先于 host/port）
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	DB       int           `yaml:"db"`
	Password string        `yaml:"-"`   // 只从 REDIS_PASSWORD 环境变量读取
	URL      string        `yaml:"url"` // 直接指定 URL（优先于 host/port/db）
	UserTTL  time.Duration `yaml:"user_ttl"`
}

// MinIOConfig MinIO 对象存储配置
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"` // 例如 localhost:9000
	AccessKey string `yaml:"-"`        // 只从 MINIO_ROOT_USER 环境变量读取
	SecretKey string `yaml:"-"`        // 只从 MINIO_ROOT_PASSWORD 环境变量读取
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
}

// DatasetsConfig 受保护数据集来源
type DatasetsConfig struct {
	Source string `yaml:"source"` // "mock"（默认）或 "minio"
	Prefix string `yaml:"prefix"` // MinIO 对象前缀
}

// RateLimitConfig 写接口限流（每客户端 IP）
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`

	// TrustForwarded 按 X-Forwarded-For 识别客户端，仅部署在可信反向代理之后时开启
	TrustForwarded bool `yaml:"trust_forwarded"`
}

// TelemetryConfig OpenTelemetry 链路追踪
type TelemetryConfig struct {
	ServiceName  string `yaml:"service_name"`
	OTLPEndpoint string `yaml:"otlp_endpoint"` // 为空时不启用追踪
	Insecure     bool   `yaml:"insecure"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env            Environment
	DatabaseDriver string // "mongodb", "postgres", "sqlite", or "memory"
	DatabaseURL    string
	DatabaseDBName string // MongoDB 数据库名称
	RedisURL       string // 为空表示不启用缓存
	APIPort        string
	APIServer      APIServerConfig
	Auth           AuthConfig
	Redis          RedisConfig
	MinIO          MinIOConfig
	Datasets       DatasetsConfig
	RateLimit      RateLimitConfig
	Telemetry      TelemetryConfig
	Log            LogConfig
	ConfigFilePath string // 实际加载的配置文件路径
}

// yamlConfigInternal 内部包装，记录配置文件来源（不参与 YAML 序列化）
type yamlConfigInternal struct {
	YAMLConfig `yaml:",inline"`
	loadedFrom string
}
