// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind a small Client interface so that the
// object data service can be tested against core/storage/mocks. Both AWS S3
// and self-hosted MinIO instances are supported.
//
// # Operations
//
//   - BucketExists / MakeBucket: used by EnsureBucket at startup.
//   - PutObject: uploads a whole object.
//   - GetObject: streams an object.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
