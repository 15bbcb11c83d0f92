// Package utils provides common utility functions for the record-manager application.
// It includes helper functions for type conversion shared by record identity extraction,
// value comparison during sorting, and data service filters.
package utils
