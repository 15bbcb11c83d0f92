// Package server holds the HTTP server configuration.
//
// The main application entry point handles the server startup. This package
// defines the listen port and the API key protecting the records API.
package server
