package cmd

import (
	"context"
	"fmt"

	"record-manager/core/collection"
	"record-manager/core/config"
	"record-manager/core/database"
	"record-manager/core/dataservice"
	"record-manager/core/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// backend is a collection wired to the data service selected by configuration.
type backend struct {
	records *collection.Collection
	source  collection.DataService
}

// buildBackend connects the configured data service and creates the collection.
func buildBackend(ctx context.Context, cfg *config.Config, logg *zap.Logger) (*backend, error) {
	if !cfg.Source.IsValidKind() {
		return nil, fmt.Errorf("invalid source kind %q", cfg.Source.Kind)
	}

	var (
		db     *gorm.DB
		client storage.Client
		err    error
	)
	switch cfg.Source.Kind {
	case dataservice.KindDatabase:
		db, err = database.Connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect database: %w", err)
		}
		logg.Info("Connected to database", zap.String("driver", cfg.Database.Driver), zap.String("table", cfg.Source.Table))
	case dataservice.KindStorage:
		client, err = storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			return nil, err
		}
		logg.Info("Using storage dataset", zap.String("bucket", cfg.Storage.Bucket), zap.String("object", cfg.Source.DatasetObject))
	}

	source, err := dataservice.New(cfg.Source, db, client, cfg.Storage.Bucket)
	if err != nil {
		return nil, err
	}

	ccfg := cfg.Collection.Config()
	ccfg.Logger = logg
	ccfg.IDs = collection.UUIDGenerator{}
	records, err := collection.New(source, ccfg)
	if err != nil {
		return nil, err
	}
	return &backend{records: records, source: source}, nil
}
