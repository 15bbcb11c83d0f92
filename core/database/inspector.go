package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ColumnInfo describes one table column.
type ColumnInfo struct {
	Field string
	Type  string
	Key   string
}

// GetTableColumns retrieves the column definitions for a given table. Names
// and types are lower cased. A missing table yields no columns and no error.
func GetTableColumns(db *gorm.DB, tableName string) ([]ColumnInfo, error) {
	var columns []ColumnInfo

	if db.Dialector.Name() == DriverSQLite {
		type sqliteColumn struct {
			Name string
			Type string
			Pk   int
		}
		var rows []sqliteColumn
		if err := db.Raw("SELECT name, type, pk FROM pragma_table_info(?)", tableName).Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
		}
		for _, col := range rows {
			info := ColumnInfo{Field: col.Name, Type: col.Type}
			if col.Pk > 0 {
				info.Key = "pri"
			}
			columns = append(columns, info)
		}
	} else {
		err := db.Raw(
			"SELECT COLUMN_NAME AS field, COLUMN_TYPE AS type, COLUMN_KEY AS `key` "+
				"FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? "+
				"ORDER BY ORDINAL_POSITION", tableName,
		).Scan(&columns).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
		}
	}

	for i := range columns {
		columns[i].Field = strings.ToLower(columns[i].Field)
		columns[i].Type = strings.ToLower(columns[i].Type)
		columns[i].Key = strings.ToLower(columns[i].Key)
	}
	return columns, nil
}

// ColumnSet returns the table's column names as a set.
func ColumnSet(db *gorm.DB, tableName string) (map[string]struct{}, error) {
	columns, err := GetTableColumns(db, tableName)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		set[c.Field] = struct{}{}
	}
	return set, nil
}
