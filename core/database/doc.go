// Package database handles database connections and schema inspection.
//
// It wraps GORM to configure MySQL or SQLite connections from the application's
// configuration.
//
// # Connect
//
// Connect opens the configured driver, applies pool settings and pings the
// database before returning. SQLite is limited to one open connection so that
// ":memory:" databases are shared by every query.
//
// # Schema Inspection
//
// GetTableColumns and ColumnSet list a table's columns. The table data service
// uses them to reject filter and sort fields that are not real columns.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.ColumnSet(db, "records")
package database
