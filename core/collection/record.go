package collection

// Record is the capability a collection needs from a domain entity.
// Implementations must be safe to share between collections; each collection
// keeps its own positional bookkeeping outside the record.
type Record interface {
	// ID returns the server assigned identity, or "" when the record was never saved.
	ID() string
	// CID returns the client identity assigned at creation. It never changes.
	CID() string
	// Attributes returns a serialized copy of the record's fields.
	Attributes() map[string]any
	// ApplyChanges writes the given fields and returns only those whose value changed.
	ApplyChanges(changes map[string]any) map[string]any
	// Dirty reports whether the record holds local changes the data service has not confirmed.
	Dirty() bool
	// Clone returns an independent copy with the same identity.
	Clone() Record
}

// Committer is implemented by records that can clear their dirty state once
// the data service has confirmed a write.
type Committer interface {
	Commit()
}

// Getter is an optional fast path for reading a single field without
// serializing the whole record. Comparators use it when available.
type Getter interface {
	Get(key string) (any, bool)
}

// sameIdentity compares by server id when both sides have one, by cid otherwise.
func sameIdentity(a, b Record) bool {
	if a.ID() != "" && b.ID() != "" {
		return a.ID() == b.ID()
	}
	return a.CID() != "" && a.CID() == b.CID()
}

// identityOf returns the identity used in logs and warnings.
func identityOf(r Record) string {
	if id := r.ID(); id != "" {
		return id
	}
	return r.CID()
}

func field(r Record, key string) any {
	if g, ok := r.(Getter); ok {
		v, _ := g.Get(key)
		return v
	}
	return r.Attributes()[key]
}
