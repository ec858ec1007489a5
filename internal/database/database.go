package database

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/tablecast/signage/internal/config"
	"github.com/tablecast/signage/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the configured database and runs auto-migration when enabled.
func Connect(cfg *config.AppConfig) (*gorm.DB, error) {
	db, err := open(cfg.Database, resolveLogLevel(cfg))
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}
	return db, nil
}

// OpenMemory returns a migrated in-memory sqlite database. The pool is pinned
// to one connection so every query sees the same memory store.
func OpenMemory() (*gorm.DB, error) {
	db, err := open(config.DatabaseConfig{Driver: config.DriverSQLite, DSN: ":memory:"}, logger.Silent)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Close releases the underlying pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks connectivity.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func resolveLogLevel(cfg *config.AppConfig) logger.LogLevel {
	if cfg.IsDev() && cfg.Log.Level == "debug" {
		return logger.Info
	}
	return logger.Warn
}

func open(cfg config.DatabaseConfig, logLevel logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	dsn := cfg.DSNValue()
	switch cfg.Driver {
	case config.DriverMySQL:
		dialector = mysql.New(mysql.Config{DSN: dsn, DefaultStringSize: 191})
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	case config.DriverPostgres, "":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return db, nil
}

// Migrate runs auto-migration for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}
