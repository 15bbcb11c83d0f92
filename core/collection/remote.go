package collection

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// FetchByID returns the resident record with the given id, or fetches it from
// the data service. Fetched records are not placed in a slot because their
// position is unknown. Concurrent lookups of the same id share one round trip.
func (c *Collection) FetchByID(ctx context.Context, id string) (Record, error) {
	if rec, ok := c.Get(id); ok {
		return rec, nil
	}
	if c.service == nil {
		return nil, ErrNotFound
	}

	v, err, shared := c.lookups.Do(id, func() (any, error) {
		var rec Record
		err := c.run(ctx, func(ctx context.Context) error {
			attrs, err := c.service.FetchRecord(ctx, id)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return err
				}
				return &TransportError{Op: "fetch record", Err: err}
			}
			rec = c.Build(attrs)
			return nil
		})
		return rec, err
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("Shared record lookup", zap.String("id", id))
	}
	return v.(Record), nil
}

// Create sends attrs to the data service and adds the confirmed record at the
// end, or at its sorted position on a local collection with a comparator.
func (c *Collection) Create(ctx context.Context, attrs map[string]any) (Record, error) {
	if c.service == nil {
		return nil, ErrNoService
	}
	var rec Record
	err := c.run(ctx, func(ctx context.Context) error {
		draft := c.Build(attrs)
		c.mu.Lock()
		verr := c.validateLocked(draft)
		c.mu.Unlock()
		if verr != nil {
			return verr
		}

		resp, err := c.service.Create(ctx, draft.Attributes())
		if err != nil {
			return &TransportError{Op: "create", Err: err}
		}

		var ev eventBuffer
		c.mu.Lock()
		draft.ApplyChanges(c.parse(resp))
		c.manageCapacityLocked(1, &ev)
		idx := c.insertionIndexLocked(draft, nil)
		c.materializeLocked(draft, idx, true)
		if c.virtual() {
			c.paging.adjust(1)
		}
		ev.add(Event{Type: EventAdded, Record: draft, Index: idx})
		c.mu.Unlock()
		c.dispatch(ev)

		rec = draft
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Save writes rec to the data service, creating it when it has no id yet.
// The server response is merged back and the record's dirty state cleared.
func (c *Collection) Save(ctx context.Context, rec Record) error {
	if c.service == nil {
		return ErrNoService
	}
	c.mu.Lock()
	verr := c.validateLocked(rec)
	c.mu.Unlock()
	if verr != nil {
		return verr
	}

	return c.run(ctx, func(ctx context.Context) error {
		var (
			resp map[string]any
			err  error
		)
		if id := rec.ID(); id != "" {
			resp, err = c.service.Update(ctx, id, rec.Attributes())
		} else {
			resp, err = c.service.Create(ctx, rec.Attributes())
		}
		if err != nil {
			return &TransportError{Op: "save", Err: err}
		}

		var ev eventBuffer
		c.mu.Lock()
		changes := rec.ApplyChanges(c.parse(resp))
		if cm, ok := rec.(Committer); ok {
			cm.Commit()
		}
		if h, ok := c.identifyLocked(rec); ok {
			c.lru.touch(h)
			if len(changes) > 0 {
				ev.add(Event{Type: EventChanged, Record: rec, Index: c.arena.nodes[h].index, Changes: changes})
			}
		}
		c.mu.Unlock()
		c.dispatch(ev)
		return nil
	})
}

// Destroy deletes rec from the data service when it was ever saved, then
// removes it locally. A record already gone on the server is still removed.
func (c *Collection) Destroy(ctx context.Context, rec Record) error {
	return c.run(ctx, func(ctx context.Context) error {
		if id := rec.ID(); id != "" {
			if c.service == nil {
				return ErrNoService
			}
			if err := c.service.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
				return &TransportError{Op: "destroy", Err: err}
			}
		}

		var ev eventBuffer
		c.mu.Lock()
		if h, ok := c.identifyLocked(rec); ok {
			r, idx := c.arena.nodes[h].rec, c.arena.nodes[h].index
			c.removeLocked(h)
			ev.add(Event{Type: EventRemoved, Record: r, Index: idx})
		}
		c.mu.Unlock()
		c.dispatch(ev)
		return nil
	})
}
