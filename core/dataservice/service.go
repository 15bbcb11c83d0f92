package dataservice

import (
	"fmt"

	"record-manager/core/collection"
	"record-manager/core/storage"

	"gorm.io/gorm"
)

// New builds the data service selected by cfg.Kind. Only the dependency the
// kind needs must be non-nil.
func New(cfg Config, db *gorm.DB, client storage.Client, bucket string) (collection.DataService, error) {
	switch cfg.Kind {
	case KindDatabase:
		if db == nil {
			return nil, fmt.Errorf("data service %s requires a database connection", cfg.Kind)
		}
		return NewTable(db, cfg.Table, cfg.IDColumn)
	case KindStorage:
		if client == nil {
			return nil, fmt.Errorf("data service %s requires a storage client", cfg.Kind)
		}
		return NewObject(client, bucket, cfg.DatasetObject, cfg.IDColumn), nil
	default:
		return nil, fmt.Errorf("unsupported data service kind %q", cfg.Kind)
	}
}
