// Package collection provides a partially materialized, virtualized record
// collection: an ordered, addressable view over a dataset that may be far
// larger than what is held in memory, backed by a paging DataService.
//
// # Modes
//
// A collection is local when Config.FetchSize is -1. Every record is resident
// and synchronous operations run directly. With FetchSize >= 0 the collection
// is virtual: slots are filled on demand by EnsureRange, the dataset's extent
// is learned from each page response, and every operation is serialized
// through a per-collection Queue so that tasks settle in submission order.
//
// # Structure
//
// Records live in an arena. A sparse position index maps logical indices to
// arena handles; its key set is the set of materialized indices. The same
// arena nodes are threaded into an LRU list, so eviction and IndexOf never
// scan the slots and no bookkeeping is stored on the records themselves.
//
//   - Position index: insertAt/removeAt shift later indices, resizeTo trims to a
//     newly reported total.
//   - LRU: reads through At, Lookup, Get and EnsureRange promote records. When
//     Config.ModelLimit is reached the least recently touched clean records
//     are evicted; dirty records are never evicted.
//   - Merge: Add, Set, Remove and Reset identify records by server id, falling
//     back to the client id (cid).
//
// # Usage Example
//
//	coll, err := collection.New(service, collection.Config{
//	    FetchSize:    50,
//	    ModelLimit:   500,
//	    MergeOnFetch: true,
//	    Comparator:   collection.ByFields("lastName,firstName", 1),
//	    Logger:       log,
//	})
//
//	// Materialize and read the first 20 records
//	w, err := coll.EnsureRange(ctx, 0, 20)
//
//	// Identity lookup, fetched when not resident
//	rec, err := coll.FetchByID(ctx, "42")
package collection
