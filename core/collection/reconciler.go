package collection

import (
	"context"

	"go.uber.org/zap"
)

// Window is the materialized part of a requested range. Count may be smaller
// than requested when the dataset ends first or records were evicted.
type Window struct {
	Start    int                   `json:"start"`
	Count    int                   `json:"count"`
	Records  []Record              `json:"records"`
	Warnings []*ConsistencyWarning `json:"-"`
}

// EnsureRange materializes [start, start+count) as far as the data exists and
// returns what is resident. Local collections answer immediately. Virtual
// collections fetch pages for missing slots through the queue.
func (c *Collection) EnsureRange(ctx context.Context, start, count int) (*Window, error) {
	if start < 0 {
		start = 0
	}
	if count < 0 {
		count = 0
	}

	if !c.virtual() {
		var ev eventBuffer
		c.mu.Lock()
		w := c.windowLocked(start, start+count, &ev)
		c.mu.Unlock()
		c.dispatch(ev)
		return w, nil
	}

	var w *Window
	err := c.run(ctx, func(ctx context.Context) error {
		var err error
		w, err = c.fillRange(ctx, start, count)
		return err
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// fillRange runs on the queue worker. The lock is released around every
// data service round trip.
func (c *Collection) fillRange(ctx context.Context, start, count int) (*Window, error) {
	end := start + count
	lastOffset := -1
	more := false
	var warnings []*ConsistencyWarning

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c.mu.Lock()
		var missing int
		if lastOffset < 0 {
			// The first scan looks a full page ahead so a window smaller
			// than a page still prefetches the rest of it.
			upper := start + max(count, c.cfg.FetchSize)
			if total, known := c.paging.Total(); known && upper > total {
				upper = total
			}
			missing = c.positions.firstMissing(start, upper)
		} else {
			upper := end
			if total, known := c.paging.Total(); known && upper > total {
				upper = total
			}
			missing = c.positions.firstMissing(start, upper)
			if !c.paging.TotalKnown && !more {
				missing = -1
			}
		}
		if missing < 0 || missing <= lastOffset {
			c.mu.Unlock()
			break
		}

		req := FetchRequest{
			Offset: missing,
			Limit:  max(count, c.cfg.FetchSize),
			Sort:   c.cfg.Comparator.SortSpec(),
			Filter: c.cfg.Filter,
		}
		c.mu.Unlock()

		c.logger.Debug("Fetching page", zap.Int("offset", req.Offset), zap.Int("limit", req.Limit))
		page, err := c.service.FetchPage(ctx, req)
		if err != nil {
			return nil, &TransportError{Op: "fetch page", Offset: req.Offset, Limit: req.Limit, Err: err}
		}
		if page == nil {
			page = &Page{Offset: req.Offset}
		}

		var ev eventBuffer
		c.mu.Lock()
		warnings = append(warnings, c.applyPageLocked(req, page, &ev)...)
		// Without a total, only a full page explicitly reporting more data
		// justifies another round trip.
		more = page.HasMore != nil && *page.HasMore && c.paging.LastFetchCount >= c.paging.LastFetchSize
		c.mu.Unlock()
		c.dispatch(ev)

		lastOffset = missing
	}

	var ev eventBuffer
	c.mu.Lock()
	w := c.windowLocked(start, end, &ev)
	c.mu.Unlock()
	c.dispatch(ev)
	w.Warnings = warnings
	return w, nil
}

// applyPageLocked merges a fetched page into the slots at page.Offset+k.
func (c *Collection) applyPageLocked(req FetchRequest, page *Page, ev *eventBuffer) []*ConsistencyWarning {
	var warnings []*ConsistencyWarning

	c.paging.update(req, page)
	total, known := c.paging.Total()
	if known && total != c.positions.length {
		for _, h := range c.positions.resizeTo(total) {
			nd := c.arena.nodes[h]
			c.forgetLocked(h)
			ev.add(Event{Type: EventRemoved, Record: nd.rec, Index: nd.index})
		}
	}

	for k, attrs := range page.Records {
		idx := page.Offset + k
		if known && idx >= total {
			break
		}
		rec := c.buildLocked(attrs)

		if h, ok := c.identifyLocked(rec); ok {
			nd := &c.arena.nodes[h]
			if nd.rec.Dirty() {
				c.lru.touch(h)
				w := &ConsistencyWarning{Identity: identityOf(rec), Index: idx, Existing: nd.index}
				c.logger.Warn("Fetched record not merged into dirty resident record",
					zap.String("identity", w.Identity),
					zap.Int("index", idx),
					zap.Int("existing", nd.index),
				)
				warnings = append(warnings, w)
				continue
			}
			if nd.index == idx || c.cfg.MergeOnFetch {
				nd.rec.ApplyChanges(rec.Attributes())
				c.lru.touch(h)
				continue
			}
			w := &ConsistencyWarning{Identity: identityOf(rec), Index: idx, Existing: nd.index}
			c.logger.Warn("Duplicate identity in fetched page",
				zap.String("identity", w.Identity),
				zap.Int("index", idx),
				zap.Int("existing", nd.index),
			)
			warnings = append(warnings, w)
			continue
		}

		if h, ok := c.positions.get(idx); ok {
			existing := c.arena.nodes[h].rec
			if existing.Dirty() {
				w := &ConsistencyWarning{Identity: identityOf(rec), Index: idx, Existing: idx}
				c.logger.Warn("Fetched record conflicts with dirty resident record",
					zap.String("identity", w.Identity),
					zap.String("resident", identityOf(existing)),
					zap.Int("index", idx),
				)
				warnings = append(warnings, w)
				continue
			}
			c.detachLocked(h)
		}

		c.manageCapacityLocked(1, ev)
		c.materializeLocked(rec, idx, false)
	}
	return warnings
}

// windowLocked collects resident records in [start, end) and promotes them.
func (c *Collection) windowLocked(start, end int, ev *eventBuffer) *Window {
	if end > c.positions.length {
		end = c.positions.length
	}
	w := &Window{Start: start, Records: []Record{}}
	for i := start; i < end; i++ {
		if h, ok := c.positions.get(i); ok {
			c.lru.touch(h)
			w.Records = append(w.Records, c.arena.nodes[h].rec)
		}
	}
	w.Count = len(w.Records)
	ev.add(Event{Type: EventRange, Start: start, Count: w.Count})
	return w
}
