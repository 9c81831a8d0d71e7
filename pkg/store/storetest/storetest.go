// Package storetest opens throwaway SQLite databases for tests.
package storetest

import (
	"path/filepath"
	"testing"

	"dompet/pkg/store"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated SQLite database stored under t.TempDir().
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	gdb.Logger = logger.Default.LogMode(logger.Silent)
	if err := store.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}
