package collection

import "go.uber.org/zap"

// lruList is a doubly linked recency list threaded through arena handles.
// head is the most recently touched node, tail the next eviction candidate.
type lruList struct {
	arena *arena
	head  int
	tail  int
	size  int
}

func newLRU(a *arena) *lruList {
	return &lruList{arena: a, head: noHandle, tail: noHandle}
}

func (l *lruList) linked(h int) bool {
	n := l.arena.nodes[h]
	return n.prev != noHandle || n.next != noHandle || l.head == h
}

func (l *lruList) pushFront(h int) {
	n := &l.arena.nodes[h]
	n.prev = noHandle
	n.next = l.head
	if l.head != noHandle {
		l.arena.nodes[l.head].prev = h
	}
	l.head = h
	if l.tail == noHandle {
		l.tail = h
	}
	l.size++
}

func (l *lruList) unlink(h int) {
	if !l.linked(h) {
		return
	}
	n := &l.arena.nodes[h]
	if n.prev != noHandle {
		l.arena.nodes[n.prev].next = n.next
	} else {
		l.head = n.next
	}
	if n.next != noHandle {
		l.arena.nodes[n.next].prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev = noHandle
	n.next = noHandle
	l.size--
}

// touch moves h to the head, linking it if needed.
func (l *lruList) touch(h int) {
	if l.head == h {
		return
	}
	l.unlink(h)
	l.pushFront(h)
}

// order returns handles from head to tail.
func (l *lruList) order() []int {
	out := make([]int, 0, l.size)
	for h := l.head; h != noHandle; h = l.arena.nodes[h].next {
		out = append(out, h)
	}
	return out
}

func (l *lruList) reset() {
	l.head = noHandle
	l.tail = noHandle
	l.size = 0
}

// evictLocked walks from the tail and detaches up to n clean records. Dirty
// records are skipped; when only dirty ones remain it stops short.
func (c *Collection) evictLocked(n int, ev *eventBuffer) int {
	evicted := 0
	h := c.lru.tail
	for h != noHandle && evicted < n {
		nd := c.arena.nodes[h]
		if !nd.rec.Dirty() {
			c.detachLocked(h)
			ev.add(Event{Type: EventEvicted, Record: nd.rec, Index: nd.index})
			evicted++
		}
		h = nd.prev
	}
	if evicted < n {
		c.logger.Warn("Eviction stopped early, remaining records are dirty",
			zap.Int("requested", n),
			zap.Int("evicted", evicted),
			zap.Int("materialized", c.positions.count()),
		)
	}
	return evicted
}

// manageCapacityLocked makes room for incoming records under ModelLimit.
// Local collections are fully materialized and never evict.
func (c *Collection) manageCapacityLocked(incoming int, ev *eventBuffer) {
	if !c.virtual() || c.cfg.ModelLimit < 0 {
		return
	}
	if over := c.lru.size + incoming - c.cfg.ModelLimit; over > 0 {
		c.evictLocked(over, ev)
	}
}
