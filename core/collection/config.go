package collection

import "go.uber.org/zap"

// DefaultIDAttribute is the attribute holding a record's server id.
const DefaultIDAttribute = "id"

// Config composes a collection's behaviour.
type Config struct {
	// FetchSize is the page size used against the data service. -1 makes the
	// collection local: fully materialized, no paging.
	FetchSize int
	// ModelLimit caps materialized records. -1 is unbounded.
	ModelLimit int
	// IDAttribute names the attribute holding the server id.
	IDAttribute string
	// Defaults are applied to attributes before Parse when building records.
	Defaults map[string]any
	// Parse transforms raw data service attributes before a record is built.
	Parse func(attrs map[string]any) map[string]any
	// Factory builds records. Nil builds *Model.
	Factory func(cid string, attrs map[string]any) Record
	// Comparator orders the collection. Field comparators are forwarded to
	// the data service on virtual collections.
	Comparator *Comparator
	// Validate rejects records before they are added or saved.
	Validate func(Record) error
	// MergeOnFetch merges fetched records whose identity is already resident
	// at another index instead of skipping them with a warning.
	MergeOnFetch bool
	// Filter is forwarded with every page request.
	Filter map[string]any
	IDs    IDGenerator
	Logger *zap.Logger
	Sink   EventSink
}

// DefaultConfig returns a local, unbounded configuration.
func DefaultConfig() Config {
	return Config{
		FetchSize:    -1,
		ModelLimit:   -1,
		IDAttribute:  DefaultIDAttribute,
		MergeOnFetch: true,
	}
}

// Settings is the externally configurable part of Config.
type Settings struct {
	// FetchSize is the page size; -1 disables paging.
	FetchSize int `mapstructure:"fetch_size" default:"50"`
	// ModelLimit caps resident records; -1 is unbounded.
	ModelLimit int `mapstructure:"model_limit" default:"500"`
	// IDAttribute names the server id attribute.
	IDAttribute string `mapstructure:"id_attribute" default:"id"`
	// Sort is a comma separated list of fields to order by.
	Sort string `mapstructure:"sort" default:""`
	// SortDirection is 1 for ascending, -1 for descending.
	SortDirection int `mapstructure:"sort_direction" default:"1"`
	// MergeOnFetch merges duplicate identities found while paging.
	MergeOnFetch bool `mapstructure:"merge_on_fetch" default:"true"`
}

// Config converts settings into a collection configuration.
func (s Settings) Config() Config {
	cfg := DefaultConfig()
	cfg.FetchSize = s.FetchSize
	cfg.ModelLimit = s.ModelLimit
	cfg.MergeOnFetch = s.MergeOnFetch
	if s.IDAttribute != "" {
		cfg.IDAttribute = s.IDAttribute
	}
	if s.Sort != "" {
		cfg.Comparator = ByFields(s.Sort, s.SortDirection)
	}
	return cfg
}
