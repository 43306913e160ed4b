// Package dbtest opens a throwaway sqlite database for repository tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"cleandigo/internal/database"

	"gorm.io/gorm"
)

func Open(t testing.TB, models ...any) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)&_time_format=sqlite"
	db, err := database.Connect(dsn, database.Options{Silent: true})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := database.Migrate(db, models...); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
