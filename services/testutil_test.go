package services

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"app-review-api/config"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestRowSet builds a RowSet directly, the way ReadRows would have from a
// live result set. nil cells are NULL.
func newTestRowSet(columns []string, rows ...[]interface{}) *RowSet {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		index[strings.ToLower(name)] = i
	}

	rs := &RowSet{columns: columns, index: index}
	for _, row := range rows {
		scanned := make([]sql.NullString, len(columns))
		for i, cell := range row {
			if cell == nil {
				continue
			}
			scanned[i] = sql.NullString{String: fmt.Sprint(cell), Valid: true}
		}
		rs.values = append(rs.values, scanned)
	}
	return rs
}

// setupSubmissionsTestDB points config.DB at an in-memory SQLite store with
// the submissions-store schema, restoring the previous handle on cleanup.
func setupSubmissionsTestDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open SQLite test database: %v", err)
	}
	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("Failed to migrate test schema: %v", err)
	}

	previous := config.DB
	config.DB = db
	t.Cleanup(func() { config.DB = previous })
	return db
}

// setupWorkflowTestDB does the same for the workflow-tracking store.
func setupWorkflowTestDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open SQLite test database: %v", err)
	}
	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("Failed to migrate test schema: %v", err)
	}

	previous := config.WorkflowDB
	config.WorkflowDB = db
	t.Cleanup(func() { config.WorkflowDB = previous })
	return db
}
