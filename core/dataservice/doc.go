// Package dataservice implements collection.DataService over the stores the
// record manager can be configured with.
//
// # Table
//
// Table pages over a SQL table through GORM. Every page carries the filtered
// row count as TotalResults, so a collection backed by a table learns its
// full extent on the first fetch. Filters, sort fields and written attributes
// are checked against the table's columns.
//
// # Object
//
// Object serves a JSON lines dataset stored in a bucket. Pages are produced
// by streaming the object; the total is never reported and HasMore is found
// by probing one record past the page. Writes rewrite the whole object.
//
// # Usage
//
//	svc, err := dataservice.NewTable(db, "records", "id")
//	coll, err := collection.New(svc, settings.Config())
package dataservice
