// Package repository provides gorm-backed persistence for the helpdesk.
package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storedesk/helpdesk/internal/model"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("record not found")

// Driver selects the SQL dialect.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// Config holds database connection settings.
type Config struct {
	Driver       Driver
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	LogQueries   bool
}

// Open connects to the database and verifies the connection.
func Open(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverPostgres, "":
		if cfg.DSN == "" {
			return nil, errors.New("database DSN is required")
		}
		dialector = postgres.Open(cfg.DSN)
	case DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	logLevel := gormlogger.Silent
	if cfg.LogQueries {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the schema for every entity.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Store{},
		&model.Subscription{},
		&model.Integration{},
		&model.KnowledgeBaseEntry{},
		&model.Conversation{},
		&model.Message{},
		&model.AnalyticsEvent{},
	)
}

// Ping checks database connectivity.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
