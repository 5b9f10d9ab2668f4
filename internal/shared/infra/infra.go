// Package infra 基础设施聚合层
//
// 按配置初始化存储与缓存，并统一关闭：
//   - Storage：用户存储（MongoDB / PostgreSQL / SQLite / 内存）
//   - Cache：用户查询缓存（Redis，未配置时为空操作）
package infra

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	"biovault/internal/config"
	"biovault/internal/shared/cache"
	cacheredis "biovault/internal/shared/cache/redis"
	"biovault/internal/shared/storage"
	"biovault/internal/shared/storage/dbutil"
	"biovault/internal/shared/storage/driver/postgres"
	"biovault/internal/shared/storage/driver/sqlite"
	"biovault/internal/shared/storage/memstore"
	"biovault/internal/shared/storage/mongostore"
	"biovault/internal/shared/storage/repository"
)

// Infrastructure 基础设施聚合结构
type Infrastructure struct {
	// Storage 用户存储
	Storage storage.UserStore

	// Cache 用户缓存（Redis 或 NoOp）
	Cache cache.UserCache
}

// New 根据配置初始化全部基础设施；任一组件失败时关闭已创建的组件
func New(cfg *config.Config) (*Infrastructure, error) {
	store, err := NewUserStore(cfg)
	if err != nil {
		return nil, err
	}
	c, err := NewUserCache(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &Infrastructure{Storage: store, Cache: c}, nil
}

// Close 关闭所有基础设施连接
func (i *Infrastructure) Close() error {
	var lastErr error

	if i.Storage != nil {
		if err := i.Storage.Close(); err != nil {
			lastErr = err
		}
	}

	if i.Cache != nil {
		if err := i.Cache.Close(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// NewUserStore 按 DatabaseDriver 创建用户存储
//
// SQL 驱动在打开后执行 AutoMigrate 建表（含钱包地址唯一约束）。
func NewUserStore(cfg *config.Config) (storage.UserStore, error) {
	switch cfg.DatabaseDriver {
	case "memory":
		log.Printf("[Storage] Using in-memory user store")
		return memstore.New(), nil
	case "sqlite":
		return openSQL(sqlite.NewDialect(), sqliteDSN(cfg.DatabaseURL), sqlite.Open)
	case "postgres":
		return openSQL(postgres.NewDialect(), cfg.DatabaseURL, postgres.Open)
	case "mongodb", "":
		s, err := mongostore.NewStore(cfg.DatabaseURL, cfg.DatabaseDBName)
		if err != nil {
			return nil, err
		}
		log.Printf("[Storage] Connected to MongoDB database %s", cfg.DatabaseDBName)
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.DatabaseDriver)
	}
}

func openSQL(dialect dbutil.Dialect, dsn string, open func(string) (*sql.DB, error)) (storage.UserStore, error) {
	db, err := open(dsn)
	if err != nil {
		return nil, err
	}
	if err := dialect.AutoMigrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: auto migrate failed: %w", dialect.DriverType(), err)
	}
	log.Printf("[Storage] Connected to %s", dialect.DriverType())
	return repository.NewStore(db, dialect), nil
}

// sqliteDSN 去掉 sqlite:// 前缀，modernc 驱动接受 file: 形式或文件路径
func sqliteDSN(url string) string {
	return strings.TrimPrefix(strings.TrimPrefix(url, "sqlite://"), "sqlite:")
}

// NewUserCache RedisURL 为空时返回 NoOpCache
func NewUserCache(cfg *config.Config) (cache.UserCache, error) {
	if cfg.RedisURL == "" {
		return cache.NewNoOpCache(), nil
	}
	s, err := cacheredis.NewStoreFromURL(cfg.RedisURL, cfg.Redis.UserTTL)
	if err != nil {
		return nil, err
	}
	return s, nil
}
