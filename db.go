package main

import (
	"fmt"
	"log"

	"dompet/pkg/store"

	"gorm.io/gorm"
)

// openDB connects to the configured database and migrates the schema unless
// DB_AUTO_MIGRATE disables it.
func openDB(cfg Config) (*gorm.DB, error) {
	gdb, err := store.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := store.Migrate(gdb); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Printf("schema migrated (%s)", cfg.DBDriver)
	}
	return gdb, nil
}

func closeDB(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
