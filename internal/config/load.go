package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingJWTSecret JWT_SECRET 未配置，服务无法签发令牌
var ErrMissingJWTSecret = errors.New("JWT_SECRET is not set")

// Load 加载配置
//  1. 解析 APP_ENV，加载 .env.{env}（dev/test）
//  2. 加载 {env}.yaml
//  3. 环境变量覆盖
func Load() *Config {
	env := parseEnv(getEnv("APP_ENV", "dev"))
	loadEnvFiles(env)

	yamlCfg := loadYAMLConfig(env)
	return build(env, yamlCfg)
}

// build 在 YAML 配置之上叠加环境变量，得到最终配置
func build(env Environment, yc *yamlConfigInternal) *Config {
	db := yc.Database
	db.Password = firstEnv("DB_PASSWORD", "MONGO_ROOT_PASSWORD")

	databaseURL := firstEnv("DATABASE_URL", "MONGO_URI")
	if databaseURL == "" {
		databaseURL = buildDatabaseURL(db, db.Password)
	}
	driver := detectDatabaseDriver(db.Driver, databaseURL)

	redisCfg := yc.Redis
	redisCfg.Password = os.Getenv("REDIS_PASSWORD")
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" && redisCfg.Enabled {
		redisURL = buildRedisURL(redisCfg)
	}

	minioCfg := yc.MinIO
	minioCfg.AccessKey = os.Getenv("MINIO_ROOT_USER")
	minioCfg.SecretKey = os.Getenv("MINIO_ROOT_PASSWORD")
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		minioCfg.Endpoint = v
	}

	auth := yc.Auth
	auth.JWTSecret = os.Getenv("JWT_SECRET")
	if v := os.Getenv("JWT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			auth.TokenTTL = d
		} else {
			log.Printf("[config] ignoring invalid JWT_TTL %q: %v", v, err)
		}
	}

	telemetry := yc.Telemetry
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		telemetry.OTLPEndpoint = v
	}
	if os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true" {
		telemetry.Insecure = true
	}

	cfg := &Config{
		Env:            env,
		DatabaseDriver: driver,
		DatabaseURL:    databaseURL,
		DatabaseDBName: databaseName(db, databaseURL),
		RedisURL:       redisURL,
		APIPort:        getEnv("PORT", yc.APIServer.Port),
		APIServer:      yc.APIServer,
		Auth:           auth,
		Redis:          redisCfg,
		MinIO:          minioCfg,
		Datasets:       yc.Datasets,
		RateLimit:      yc.RateLimit,
		Telemetry:      telemetry,
		Log:            yc.Log,
		ConfigFilePath: yc.loadedFrom,
	}
	cfg.applyDefaults()
	return cfg
}

// defaultYAMLConfig 代码内置默认值
func defaultYAMLConfig() *yamlConfigInternal {
	return &yamlConfigInternal{YAMLConfig: YAMLConfig{
		APIServer: APIServerConfig{Port: "5000", URL: "http://localhost:5000"},
		Database:  DatabaseConfig{Driver: "mongodb", Host: "localhost", Port: 27017, Name: "biovault", SSLMode: "disable"},
		Redis:     RedisConfig{Host: "localhost", Port: 6379, UserTTL: 10 * time.Minute},
		MinIO:     MinIOConfig{Bucket: "biovault-datasets"},
		Auth:      AuthConfig{TokenTTL: DefaultTokenTTL},
		Datasets:  DatasetsConfig{Source: "mock", Prefix: "datasets/"},
		RateLimit: RateLimitConfig{Enabled: true, RPS: 5, Burst: 10},
		Telemetry: TelemetryConfig{ServiceName: "biovault-api"},
		Log:       LogConfig{Level: "info", Format: "text"},
	}}
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → {env}.yaml
func loadYAMLConfig(env Environment) *yamlConfigInternal {
	cfg := defaultYAMLConfig()

	filename := fmt.Sprintf("%s.yaml", env)
	for _, base := range effectiveConfigPaths() {
		path := filepath.Join(base, filename)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg.YAMLConfig); err != nil {
			log.Printf("[config] failed to parse %s: %v", path, err)
			break
		}
		cfg.loadedFrom = path
		break
	}
	return cfg
}

// applyDefaults 填充缺省值
func (c *Config) applyDefaults() {
	if c.APIPort == "" {
		c.APIPort = "5000"
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = DefaultTokenTTL
	}
	if c.Redis.UserTTL <= 0 {
		c.Redis.UserTTL = 10 * time.Minute
	}
	if c.Datasets.Source == "" {
		c.Datasets.Source = "mock"
	}
	if c.RateLimit.RPS <= 0 {
		c.RateLimit.RPS = 5
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 10
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "biovault-api"
	}
}

// Validate 检查启动必需项
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	switch c.Datasets.Source {
	case "mock":
	case "minio":
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("datasets.source is minio but minio.endpoint is empty")
		}
	default:
		return fmt.Errorf("unknown datasets.source %q", c.Datasets.Source)
	}
	return nil
}
