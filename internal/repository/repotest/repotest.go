// Package repotest opens throwaway databases for tests.
package repotest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storedesk/helpdesk/internal/repository"
)

// Open returns a migrated in-memory SQLite database private to the test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := repository.Open(repository.Config{
		Driver:       repository.DriverSQLite,
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
