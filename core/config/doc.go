// Package config provides configuration management for the record manager.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file. Defaults come from the `default` struct tags of each
// section.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Database: MySQL or SQLite connection details
//   - Storage: S3/MinIO credentials and bucket settings
//   - Log: Logging level and format
//   - Collection: page size, model limit, id attribute and ordering
//   - Source: which data service backs the collection
//
// Nested keys map to environment variables by replacing dots with
// underscores, so collection.fetch_size is read from COLLECTION_FETCH_SIZE.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Collection.FetchSize)
package config
