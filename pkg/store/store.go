// Package store holds the gorm-backed repositories for users and transactions.
package store

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"dompet/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to the database behind driver/dsn. SQLite connections are
// limited to a single writer.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "", DriverPostgres:
		if strings.TrimSpace(dsn) == "" {
			return nil, fmt.Errorf("DB_DSN is required for postgres")
		}
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		if dsn == "" {
			dsn = "dompet.db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if strings.ToLower(driver) == DriverSQLite {
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return gdb, nil
}

// MustOpenFromEnv opens the database named by DB_DRIVER and DB_DSN or exits.
// Used by the maintenance commands.
func MustOpenFromEnv() *gorm.DB {
	gdb, err := Open(os.Getenv("DB_DRIVER"), os.Getenv("DB_DSN"))
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	return gdb
}

// Migrate creates or updates the users and transactions tables.
func Migrate(gdb *gorm.DB) error {
	// users first so the transactions FK can be applied
	if err := gdb.AutoMigrate(&models.User{}); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	if err := gdb.AutoMigrate(&models.Transaction{}); err != nil {
		return fmt.Errorf("migrate transactions: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "UNIQUE constraint failed") || strings.Contains(s, "unique constraint")
}
