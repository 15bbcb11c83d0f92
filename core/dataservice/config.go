package dataservice

const (
	KindDatabase = "database"
	KindStorage  = "storage"
)

// Config selects and configures the data service behind the collection.
type Config struct {
	// Kind is the backing store (database, storage).
	Kind string `mapstructure:"kind" default:"database"`
	// Table is the SQL table holding records.
	Table string `mapstructure:"table" default:"records"`
	// IDColumn is the column, or JSON attribute, holding the record id.
	IDColumn string `mapstructure:"id_column" default:"id"`
	// DatasetObject is the JSON lines object holding records in the storage bucket.
	DatasetObject string `mapstructure:"dataset_object" default:"records.jsonl"`
}

// IsValidKind checks if the configured kind is supported.
func (c Config) IsValidKind() bool {
	switch c.Kind {
	case KindDatabase, KindStorage:
		return true
	default:
		return false
	}
}
