package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anoixa/photo-album/config"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// NewDB opens the configured database.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := newDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, newGormConfig(cfg.DBTablePrefix, newGormLogger()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.DBType, err)
	}

	configurePool(db, cfg)
	return db, nil
}

// newGormConfig shared by every dialect. TranslateError maps unique
// violations to gorm.ErrDuplicatedKey.
func newGormConfig(tablePrefix string, gormLogger logger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:                 gormLogger,
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: tablePrefix,
		},
	}
}

func newDialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBType {
	case "sqlite", "sqlite3", "":
		path := cfg.DBFilePath
		if path == "" {
			path = "./data/photo-album.db"
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		logrus.WithField("path", path).Info("Using SQLite database")
		return sqlite.Open(SQLiteDSN(path)), nil

	case "postgres", "postgresql":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.DBHost, cfg.DBPort, cfg.DBUsername, cfg.DBPassword, cfg.DBName)
		logrus.WithFields(logrus.Fields{"host": cfg.DBHost, "port": cfg.DBPort, "db": cfg.DBName}).
			Info("Using PostgreSQL database")
		return postgres.Open(dsn), nil

	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBUsername, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
		logrus.WithFields(logrus.Fields{"host": cfg.DBHost, "port": cfg.DBPort, "db": cfg.DBName}).
			Info("Using MySQL database")
		return mysql.Open(dsn), nil

	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DBType)
	}
}

// SQLiteDSN enables WAL and foreign keys so photo rows cascade with their owner.
func SQLiteDSN(path string) string {
	sep := "?"
	for _, c := range path {
		if c == '?' {
			sep = "&"
			break
		}
	}
	return path + sep + "_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"
}

// configurePool 配置连接池
func configurePool(db *gorm.DB, cfg *config.Config) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	if cfg.DBMaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
	if cfg.DBConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Second)
	}
}
