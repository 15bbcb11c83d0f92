package collection

import "sort"

const noHandle = -1

// node is an arena entry. index caches the logical position of the record so
// that IndexOf and eviction never scan the slot table.
type node struct {
	rec   Record
	index int
	prev  int
	next  int
}

// arena stores nodes by handle and recycles released handles.
type arena struct {
	nodes []node
	free  []int
}

func (a *arena) alloc(rec Record, index int) int {
	n := node{rec: rec, index: index, prev: noHandle, next: noHandle}
	if k := len(a.free); k > 0 {
		h := a.free[k-1]
		a.free = a.free[:k-1]
		a.nodes[h] = n
		return h
	}
	a.nodes = append(a.nodes, n)
	return len(a.nodes) - 1
}

func (a *arena) release(h int) {
	a.nodes[h] = node{index: -1, prev: noHandle, next: noHandle}
	a.free = append(a.free, h)
}

func (a *arena) reset() {
	a.nodes = a.nodes[:0]
	a.free = a.free[:0]
}

// SlotState describes what is known about a logical index.
type SlotState int

const (
	// SlotOutOfRange is beyond a known length.
	SlotOutOfRange SlotState = iota
	// SlotMissing is within range but not materialized.
	SlotMissing
	// SlotMaterialized holds a record.
	SlotMaterialized
	// SlotUndetermined is beyond what is materialized while the total is unknown.
	SlotUndetermined
)

func (s SlotState) String() string {
	switch s {
	case SlotMissing:
		return "missing"
	case SlotMaterialized:
		return "materialized"
	case SlotUndetermined:
		return "undetermined"
	default:
		return "out_of_range"
	}
}

// positionIndex maps logical indices to arena handles. It is sparse: the key
// set of slots is the set of materialized indices.
type positionIndex struct {
	arena  *arena
	slots  map[int]int
	length int
}

func newPositionIndex(a *arena) *positionIndex {
	return &positionIndex{arena: a, slots: make(map[int]int)}
}

func (p *positionIndex) normalize(i int) int {
	if i < 0 {
		i += p.length
	}
	return i
}

func (p *positionIndex) get(i int) (int, bool) {
	h, ok := p.slots[i]
	return h, ok
}

// set places h at i without shifting, extending length when needed.
func (p *positionIndex) set(i, h int) {
	p.slots[i] = h
	p.arena.nodes[h].index = i
	if i >= p.length {
		p.length = i + 1
	}
}

// clear empties slot i without shifting.
func (p *positionIndex) clear(i int) (int, bool) {
	h, ok := p.slots[i]
	if ok {
		delete(p.slots, i)
	}
	return h, ok
}

// insertAt shifts every materialized index >= i up by one and places h at i.
func (p *positionIndex) insertAt(i, h int) {
	if i > p.length {
		p.length = i
	}
	p.shift(i, 1)
	p.length++
	p.set(i, h)
}

// removeAt empties i and shifts every materialized index > i down by one.
func (p *positionIndex) removeAt(i int) (int, bool) {
	h, ok := p.clear(i)
	p.shift(i+1, -1)
	if i < p.length {
		p.length--
	}
	return h, ok
}

// resizeTo sets the length to n and returns the handles dropped from slots >= n.
func (p *positionIndex) resizeTo(n int) []int {
	var dropped []int
	for i, h := range p.slots {
		if i >= n {
			dropped = append(dropped, h)
			delete(p.slots, i)
		}
	}
	p.length = n
	return dropped
}

func (p *positionIndex) shift(from, delta int) {
	var moved []int
	for i := range p.slots {
		if i >= from {
			moved = append(moved, i)
		}
	}
	if len(moved) == 0 {
		return
	}
	handles := make([]int, len(moved))
	for k, i := range moved {
		handles[k] = p.slots[i]
		delete(p.slots, i)
	}
	for k, i := range moved {
		p.slots[i+delta] = handles[k]
		p.arena.nodes[handles[k]].index = i + delta
	}
}

// swap exchanges the contents of i and j, either of which may be empty.
func (p *positionIndex) swap(i, j int) {
	hi, okI := p.slots[i]
	hj, okJ := p.slots[j]
	delete(p.slots, i)
	delete(p.slots, j)
	if okI {
		p.set(j, hi)
	}
	if okJ {
		p.set(i, hj)
	}
}

// indices returns the materialized indices in ascending order.
func (p *positionIndex) indices() []int {
	out := make([]int, 0, len(p.slots))
	for i := range p.slots {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func (p *positionIndex) count() int {
	return len(p.slots)
}

// firstMissing returns the first index in [from, upper) with no record, or -1.
func (p *positionIndex) firstMissing(from, upper int) int {
	for i := from; i < upper; i++ {
		if _, ok := p.slots[i]; !ok {
			return i
		}
	}
	return -1
}

func (p *positionIndex) reset() {
	p.slots = make(map[int]int)
	p.length = 0
}
