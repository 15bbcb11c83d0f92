// Package records exposes a collection over HTTP.
//
// The feature serves windows of the collection, single record lookups and
// writes, sorting, and collection statistics. Windows on a virtual collection
// fetch missing pages from the data service on demand; a local collection is
// loaded in full by Service.Load before serving.
//
// # Routes
//
//	GET    /records?start=&count=
//	GET    /records/stats
//	POST   /records/sort?by=&dir=
//	GET    /records/:id
//	POST   /records
//	PATCH  /records/:id
//	DELETE /records/:id
//
// Validation failures map to 422, missing records to 404, conflicts and
// local-only operations to 409, unknown fields to 400 and data service
// failures to 502.
package records
