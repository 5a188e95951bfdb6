package database

import (
	"fmt"
	"strings"

	"github.com/blues/fundcrm/internal/config"
	"github.com/blues/fundcrm/internal/model"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite://"

// Init 连接数据库并按需迁移
func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(dialector(cfg), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Migrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// OpenSQLite 打开 sqlite 数据库，path 为 ":memory:" 时使用内存库
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// 内存库每个连接各自独立，只保留一个连接
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate 自动迁移
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func dialector(cfg config.DatabaseConfig) gorm.Dialector {
	if strings.HasPrefix(cfg.URL, sqlitePrefix) {
		return sqlite.Open(strings.TrimPrefix(cfg.URL, sqlitePrefix))
	}
	if cfg.URL != "" {
		return postgres.Open(cfg.URL)
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
	return postgres.Open(dsn)
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		// 表结构由托管库维护，不在迁移时创建外键
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}
