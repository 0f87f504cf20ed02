// Package testdb opens migrated in-memory sqlite databases for tests.
package testdb

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/happyfeet/storefront/internal/models"
	"github.com/happyfeet/storefront/pkg/db"
)

func New(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), db.GormConfig())
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	// every pooled connection to :memory: would be a separate database
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := gdb.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return gdb
}
