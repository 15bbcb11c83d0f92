package collection

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"record-manager/core/utils"
)

// Comparator orders records. Build one with ByFields, ByKey or ByFunc.
type Comparator struct {
	fields    []string
	direction int
	key       func(Record) any
	fn        func(a, b Record) int
}

// ByFields orders by a comma separated list of attribute names. direction is
// 1 for ascending, -1 for descending, and applies to every key.
func ByFields(spec string, direction int) *Comparator {
	var fields []string
	for _, f := range strings.Split(spec, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	if direction == 0 {
		direction = 1
	}
	return &Comparator{fields: fields, direction: direction}
}

// ByKey orders by the value extracted from each record.
func ByKey(key func(Record) any) *Comparator {
	return &Comparator{key: key, direction: 1}
}

// ByFunc orders with a three way compare function.
func ByFunc(fn func(a, b Record) int) *Comparator {
	return &Comparator{fn: fn, direction: 1}
}

// Compare returns a negative number when a sorts before b, positive when after.
func (c *Comparator) Compare(a, b Record) int {
	switch {
	case c.fn != nil:
		return c.fn(a, b)
	case c.key != nil:
		return c.direction * CompareValues(c.key(a), c.key(b))
	}
	for _, f := range c.fields {
		if r := CompareValues(field(a, f), field(b, f)); r != 0 {
			return c.direction * r
		}
	}
	return 0
}

// SortSpec returns the server side form of a field comparator, or nil for
// key and function comparators which the data service cannot evaluate.
func (c *Comparator) SortSpec() *SortSpec {
	if c == nil || len(c.fields) == 0 {
		return nil
	}
	return &SortSpec{Fields: append([]string(nil), c.fields...), Direction: c.direction}
}

func (c *Comparator) String() string {
	switch {
	case c.fn != nil:
		return "func"
	case c.key != nil:
		return "key"
	}
	return fmt.Sprintf("%s:%d", strings.Join(c.fields, ","), c.direction)
}

// CompareValues orders loosely typed attribute values. nil sorts first;
// numbers compare numerically across types; mixed types fall back to their
// string forms.
func CompareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if utils.IsNumber(a) && utils.IsNumber(b) {
		return cmp3(utils.ToFloat64(a), utils.ToFloat64(b))
	}

	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	}

	return strings.Compare(utils.ToString(a), utils.ToString(b))
}

func cmp3(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// sortedIndexLocked finds where rec belongs among the materialized records
// with an iterative binary search. Equal records keep insertion order.
func (c *Collection) sortedIndexLocked(rec Record) int {
	idx := c.positions.indices()
	k := sort.Search(len(idx), func(k int) bool {
		h, _ := c.positions.get(idx[k])
		return c.cfg.Comparator.Compare(c.arena.nodes[h].rec, rec) > 0
	})
	if k == len(idx) {
		return c.positions.length
	}
	return idx[k]
}

// sortLocked reorders materialized records in place. The set of occupied
// indices does not change, only which record sits at each.
func (c *Collection) sortLocked() {
	idx := c.positions.indices()
	handles := make([]int, len(idx))
	for k, i := range idx {
		handles[k], _ = c.positions.get(i)
	}
	sort.SliceStable(handles, func(x, y int) bool {
		return c.cfg.Comparator.Compare(c.arena.nodes[handles[x]].rec, c.arena.nodes[handles[y]].rec) < 0
	})
	for k, i := range idx {
		c.positions.set(i, handles[k])
	}
}

// Sort re-applies the comparator. On a virtual collection the order is owned
// by the data service, so local materialization is dropped and later fetches
// carry the comparator's SortSpec. The known total is kept.
func (c *Collection) Sort(ctx context.Context) error {
	return c.run(ctx, func(ctx context.Context) error {
		var ev eventBuffer
		c.mu.Lock()
		if c.virtual() {
			total, known := c.paging.Total()
			c.clearLocked()
			if known {
				c.positions.length = total
				c.paging.TotalResults = total
				c.paging.TotalKnown = true
			}
			ev.add(Event{Type: EventReset})
		} else {
			if c.cfg.Comparator == nil {
				c.mu.Unlock()
				return ErrNoComparator
			}
			c.sortLocked()
			ev.add(Event{Type: EventSorted})
		}
		c.mu.Unlock()
		c.dispatch(ev)
		return nil
	})
}

// SetComparator swaps the ordering and re-sorts. A nil comparator on a local
// collection keeps the current order.
func (c *Collection) SetComparator(ctx context.Context, cmp *Comparator) error {
	c.mu.Lock()
	c.cfg.Comparator = cmp
	c.mu.Unlock()
	if cmp == nil && !c.virtual() {
		return nil
	}
	return c.Sort(ctx)
}
