package collection

import (
	"context"

	"go.uber.org/zap"
)

// AddOptions controls how Add treats records whose identity is already resident.
type AddOptions struct {
	// Merge applies changed fields to the resident record in place.
	Merge bool
	// Force replaces the resident record in its slot. Ignored when Merge is set.
	Force bool
	// At inserts at this index instead of appending or sorted placement.
	// Negative values count from the end.
	At *int
	// Silent suppresses events.
	Silent bool
}

// Change describes one record affected by a mutation. Fields holds the
// changed attributes for merges.
type Change struct {
	Record Record         `json:"-"`
	Index  int            `json:"index"`
	Fields map[string]any `json:"fields,omitempty"`
}

// AddResult reports what Add did with each record.
type AddResult struct {
	Added    []Change
	Merged   []Change
	Replaced []Change
	Warnings []*ConsistencyWarning
	Rejected []*ValidationError
}

// Add materializes records. Validation failures and duplicate identities are
// reported in the result; the returned error is only set when the operation
// itself could not run, in which case the result is nil.
func (c *Collection) Add(ctx context.Context, records []Record, opts AddOptions) (*AddResult, error) {
	res := &AddResult{}
	err := c.run(ctx, func(ctx context.Context) error {
		var ev eventBuffer
		c.mu.Lock()
		var at *int
		if opts.At != nil {
			i := *opts.At
			at = &i
		}
		for _, rec := range records {
			c.addLocked(rec, opts, at, res, &ev)
		}
		c.mu.Unlock()
		c.dispatch(ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Collection) validateLocked(rec Record) *ValidationError {
	if rec.CID() == "" {
		return &ValidationError{Record: rec, Err: errMissingCID}
	}
	if c.cfg.Validate != nil {
		if err := c.cfg.Validate(rec); err != nil {
			return &ValidationError{Record: rec, Err: err}
		}
	}
	return nil
}

func (c *Collection) addLocked(rec Record, opts AddOptions, at *int, res *AddResult, ev *eventBuffer) {
	if verr := c.validateLocked(rec); verr != nil {
		res.Rejected = append(res.Rejected, verr)
		return
	}

	if h, ok := c.identifyLocked(rec); ok {
		nd := &c.arena.nodes[h]
		c.lru.touch(h)
		switch {
		case opts.Merge:
			changes := nd.rec.ApplyChanges(rec.Attributes())
			res.Merged = append(res.Merged, Change{Record: nd.rec, Index: nd.index, Fields: changes})
			if len(changes) > 0 && !opts.Silent {
				ev.add(Event{Type: EventChanged, Record: nd.rec, Index: nd.index, Changes: changes})
			}
		case opts.Force:
			delete(c.byCID, nd.rec.CID())
			nd.rec = rec
			c.byCID[rec.CID()] = h
			res.Replaced = append(res.Replaced, Change{Record: rec, Index: nd.index})
			if !opts.Silent {
				ev.add(Event{Type: EventChanged, Record: rec, Index: nd.index, Changes: rec.Attributes()})
			}
		default:
			w := &ConsistencyWarning{Identity: identityOf(rec), Index: c.insertionIndexLocked(rec, at), Existing: nd.index}
			c.logger.Warn("Duplicate identity not added", zap.String("identity", w.Identity), zap.Int("existing", w.Existing))
			res.Warnings = append(res.Warnings, w)
		}
		return
	}

	c.manageCapacityLocked(1, ev)
	idx := c.insertionIndexLocked(rec, at)
	c.materializeLocked(rec, idx, true)
	if c.virtual() {
		c.paging.adjust(1)
	}
	if at != nil {
		*at = idx + 1
	}
	res.Added = append(res.Added, Change{Record: rec, Index: idx})
	if !opts.Silent {
		ev.add(Event{Type: EventAdded, Record: rec, Index: idx})
	}
}

// insertionIndexLocked picks where a new record goes: the explicit position,
// the sorted position on a local collection with a comparator, or the end.
func (c *Collection) insertionIndexLocked(rec Record, at *int) int {
	if at != nil {
		i := c.positions.normalize(*at)
		if i < 0 {
			i = 0
		}
		if i > c.positions.length {
			i = c.positions.length
		}
		return i
	}
	if c.cfg.Comparator != nil && !c.virtual() {
		return c.sortedIndexLocked(rec)
	}
	return c.positions.length
}

// SetOptions controls the three way reconciliation performed by Set.
type SetOptions struct {
	Add    bool
	Remove bool
	Merge  bool
}

// DefaultSetOptions adds new records, removes absent ones and merges matches.
var DefaultSetOptions = SetOptions{Add: true, Remove: true, Merge: true}

// SetResult reports what Set did.
type SetResult struct {
	Added    []Change
	Merged   []Change
	Removed  []Change
	Warnings []*ConsistencyWarning
	Rejected []*ValidationError
}

// Set reconciles the collection against records. Incoming records are
// deduplicated by identity, first occurrence wins.
func (c *Collection) Set(ctx context.Context, records []Record, opts SetOptions) (*SetResult, error) {
	res := &SetResult{}
	err := c.run(ctx, func(ctx context.Context) error {
		var ev eventBuffer
		c.mu.Lock()
		c.setLocked(records, opts, res, &ev)
		c.mu.Unlock()
		c.dispatch(ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Collection) setLocked(records []Record, opts SetOptions, res *SetResult, ev *eventBuffer) {
	var incoming []Record
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if verr := c.validateLocked(rec); verr != nil {
			res.Rejected = append(res.Rejected, verr)
			continue
		}
		key := "cid:" + rec.CID()
		if id := rec.ID(); id != "" {
			key = "id:" + id
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		incoming = append(incoming, rec)
	}

	matched := make(map[int]struct{}, len(incoming))
	var toAdd []Record
	for _, rec := range incoming {
		h, ok := c.identifyLocked(rec)
		if !ok {
			if opts.Add {
				toAdd = append(toAdd, rec)
			}
			continue
		}
		matched[h] = struct{}{}
		c.lru.touch(h)
		if !opts.Merge {
			continue
		}
		nd := c.arena.nodes[h]
		changes := nd.rec.ApplyChanges(rec.Attributes())
		res.Merged = append(res.Merged, Change{Record: nd.rec, Index: nd.index, Fields: changes})
		if len(changes) > 0 {
			ev.add(Event{Type: EventChanged, Record: nd.rec, Index: nd.index, Changes: changes})
		}
	}

	if opts.Remove {
		idx := c.positions.indices()
		for k := len(idx) - 1; k >= 0; k-- {
			h, _ := c.positions.get(idx[k])
			if _, ok := matched[h]; ok {
				continue
			}
			rec := c.arena.nodes[h].rec
			c.removeLocked(h)
			res.Removed = append(res.Removed, Change{Record: rec, Index: idx[k]})
			ev.add(Event{Type: EventRemoved, Record: rec, Index: idx[k]})
		}
	}

	if len(toAdd) > 0 {
		c.manageCapacityLocked(len(toAdd), ev)
	}
	for _, rec := range toAdd {
		idx := c.insertionIndexLocked(rec, nil)
		c.materializeLocked(rec, idx, true)
		if c.virtual() {
			c.paging.adjust(1)
		}
		res.Added = append(res.Added, Change{Record: rec, Index: idx})
		ev.add(Event{Type: EventAdded, Record: rec, Index: idx})
	}

	if c.virtual() {
		return
	}
	switch {
	case c.cfg.Comparator != nil:
		c.sortLocked()
		ev.add(Event{Type: EventSorted})
	case opts.Add && opts.Remove:
		if c.reorderLocked(incoming) {
			ev.add(Event{Type: EventSorted})
		}
	}
}

// reorderLocked swaps resident records into the order of records. Records
// that are not resident are skipped.
func (c *Collection) reorderLocked(records []Record) bool {
	moved := false
	target := 0
	for _, rec := range records {
		h, ok := c.identifyLocked(rec)
		if !ok {
			continue
		}
		if cur := c.arena.nodes[h].index; cur != target {
			c.positions.swap(cur, target)
			moved = true
		}
		target++
	}
	return moved
}

// Remove deletes the resident records sharing the identities of records.
// Later records shift down. Records not resident are ignored.
func (c *Collection) Remove(ctx context.Context, records ...Record) ([]Change, error) {
	var removed []Change
	err := c.run(ctx, func(ctx context.Context) error {
		var ev eventBuffer
		c.mu.Lock()
		for _, rec := range records {
			h, ok := c.identifyLocked(rec)
			if !ok {
				continue
			}
			r, idx := c.arena.nodes[h].rec, c.arena.nodes[h].index
			c.removeLocked(h)
			removed = append(removed, Change{Record: r, Index: idx})
			ev.add(Event{Type: EventRemoved, Record: r, Index: idx})
		}
		c.mu.Unlock()
		c.dispatch(ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Reset drops everything and silently materializes records from index 0.
// Virtual collections also forget what they knew about the dataset's extent.
func (c *Collection) Reset(ctx context.Context, records []Record) (*AddResult, error) {
	res := &AddResult{}
	err := c.run(ctx, func(ctx context.Context) error {
		var ev eventBuffer
		c.mu.Lock()
		c.clearLocked()
		c.paging = initialPaging()
		for _, rec := range records {
			c.addLocked(rec, AddOptions{Merge: true, Silent: true}, nil, res, &ev)
		}
		ev.add(Event{Type: EventReset, Count: c.positions.count()})
		c.mu.Unlock()
		c.dispatch(ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
