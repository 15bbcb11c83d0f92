package collection

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Collection is an ordered, addressable view over a dataset that may be much
// larger than what is resident. See the package documentation.
type Collection struct {
	mu      sync.Mutex
	cfg     Config
	service DataService
	logger  *zap.Logger
	sink    EventSink
	ids     IDGenerator

	arena     *arena
	positions *positionIndex
	lru       *lruList
	byCID     map[string]int
	paging    Paging

	queue   *Queue
	lookups singleflight.Group
}

// New creates a collection. A virtual collection (FetchSize >= 0) requires a
// data service; a local one only needs it for remote writes and lookups.
func New(service DataService, cfg Config) (*Collection, error) {
	if cfg.FetchSize >= 0 && service == nil {
		return nil, errors.New("virtual collection requires a data service")
	}
	if cfg.IDAttribute == "" {
		cfg.IDAttribute = DefaultIDAttribute
	}
	if cfg.IDs == nil {
		cfg.IDs = NewSequence("c")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Sink == nil {
		cfg.Sink = NopSink
	}

	a := &arena{}
	c := &Collection{
		cfg:       cfg,
		service:   service,
		logger:    cfg.Logger.With(zap.String("component", "collection")),
		sink:      cfg.Sink,
		ids:       cfg.IDs,
		arena:     a,
		positions: newPositionIndex(a),
		lru:       newLRU(a),
		byCID:     make(map[string]int),
		paging:    initialPaging(),
	}
	c.queue = NewQueue(c.logger)
	return c, nil
}

func (c *Collection) virtual() bool {
	return c.cfg.FetchSize >= 0
}

// IsVirtual reports whether the collection pages through a data service.
func (c *Collection) IsVirtual() bool {
	return c.virtual()
}

// run executes fn through the queue on virtual collections and directly on
// local ones.
func (c *Collection) run(ctx context.Context, fn TaskFunc) error {
	if !c.virtual() {
		return fn(ctx)
	}
	return c.queue.Enqueue(ctx, fn).Wait(ctx)
}

func (c *Collection) dispatch(ev eventBuffer) {
	for _, e := range ev {
		c.sink.Emit(e)
	}
}

// Wait blocks until every queued operation has settled.
func (c *Collection) Wait(ctx context.Context) error {
	return c.queue.Wait(ctx)
}

// Idle returns a channel closed when no operation is queued.
func (c *Collection) Idle() <-chan struct{} {
	return c.queue.Idle()
}

// Len returns the logical length: the known total for virtual collections
// once reported, otherwise one past the highest index ever occupied.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positions.length
}

// Paging returns a snapshot of the paging state.
func (c *Collection) Paging() Paging {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paging
}

// At returns the record at i when it is materialized. Negative indices count
// from the end. Reads promote the record in the LRU.
func (c *Collection) At(i int) (Record, bool) {
	r, st := c.Lookup(i)
	return r, st == SlotMaterialized
}

// Lookup returns the record at i together with what is known about the slot.
func (c *Collection) Lookup(i int) (Record, SlotState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i = c.positions.normalize(i)
	if i < 0 {
		return nil, SlotOutOfRange
	}
	if h, ok := c.positions.get(i); ok {
		c.lru.touch(h)
		return c.arena.nodes[h].rec, SlotMaterialized
	}
	if i < c.positions.length {
		return nil, SlotMissing
	}
	if c.virtual() && !c.paging.TotalKnown {
		return nil, SlotUndetermined
	}
	return nil, SlotOutOfRange
}

// Get returns the resident record whose server id or cid equals id.
func (c *Collection) Get(id string) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.lookupLocked(id)
	if !ok {
		return nil, false
	}
	c.lru.touch(h)
	return c.arena.nodes[h].rec, true
}

func (c *Collection) lookupLocked(id string) (int, bool) {
	if id == "" {
		return noHandle, false
	}
	for _, h := range c.positions.slots {
		if c.arena.nodes[h].rec.ID() == id {
			return h, true
		}
	}
	h, ok := c.byCID[id]
	return h, ok
}

// IndexOf returns the logical index of the resident record sharing rec's
// identity, or -1.
func (c *Collection) IndexOf(rec Record) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.identifyLocked(rec); ok {
		return c.arena.nodes[h].index
	}
	return -1
}

// Identify locates the resident record sharing rec's identity.
func (c *Collection) Identify(rec Record) (Record, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.identifyLocked(rec)
	if !ok {
		return nil, -1, false
	}
	return c.arena.nodes[h].rec, c.arena.nodes[h].index, true
}

// identifyLocked only scans the materialized set.
func (c *Collection) identifyLocked(rec Record) (int, bool) {
	if id := rec.ID(); id != "" {
		for _, h := range c.positions.slots {
			if c.arena.nodes[h].rec.ID() == id {
				return h, true
			}
		}
	}
	if h, ok := c.byCID[rec.CID()]; ok && sameIdentity(c.arena.nodes[h].rec, rec) {
		return h, true
	}
	return noHandle, false
}

// Materialized returns the materialized indices in ascending order.
func (c *Collection) Materialized() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positions.indices()
}

// Records returns every record in order. Local collections only.
func (c *Collection) Records() ([]Record, error) {
	if c.virtual() {
		return nil, &UnsupportedModeError{Op: "Records"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orderedLocked(), nil
}

// Each calls fn for every record in order until fn returns false. Local
// collections only. fn must not mutate the collection.
func (c *Collection) Each(fn func(i int, r Record) bool) error {
	if c.virtual() {
		return &UnsupportedModeError{Op: "Each"}
	}
	c.mu.Lock()
	idx := c.positions.indices()
	recs := c.orderedLocked()
	c.mu.Unlock()

	for k, r := range recs {
		if !fn(idx[k], r) {
			break
		}
	}
	return nil
}

// Filter returns the records matching pred in order. Local collections only.
func (c *Collection) Filter(pred func(Record) bool) ([]Record, error) {
	recs, err := c.Records()
	if err != nil {
		var unsupported *UnsupportedModeError
		if errors.As(err, &unsupported) {
			unsupported.Op = "Filter"
		}
		return nil, err
	}
	out := recs[:0]
	for _, r := range recs {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *Collection) orderedLocked() []Record {
	idx := c.positions.indices()
	out := make([]Record, len(idx))
	for k, i := range idx {
		h, _ := c.positions.get(i)
		out[k] = c.arena.nodes[h].rec
	}
	return out
}

// Build creates a record from raw attributes: Defaults first, then Parse,
// then the Factory with a fresh cid. The record is not added.
func (c *Collection) Build(attrs map[string]any) Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildLocked(attrs)
}

func (c *Collection) buildLocked(attrs map[string]any) Record {
	merged := make(map[string]any, len(c.cfg.Defaults)+len(attrs))
	maps.Copy(merged, c.cfg.Defaults)
	maps.Copy(merged, attrs)
	merged = c.parse(merged)

	cid := c.ids.Next()
	if c.cfg.Factory != nil {
		return c.cfg.Factory(cid, merged)
	}
	return NewModel(cid, c.cfg.IDAttribute, merged)
}

func (c *Collection) parse(attrs map[string]any) map[string]any {
	if c.cfg.Parse == nil {
		return attrs
	}
	return c.cfg.Parse(attrs)
}

// materializeLocked places rec at i, shifting later records when shift is set.
func (c *Collection) materializeLocked(rec Record, i int, shift bool) int {
	h := c.arena.alloc(rec, i)
	if shift {
		c.positions.insertAt(i, h)
	} else {
		c.positions.set(i, h)
	}
	c.byCID[rec.CID()] = h
	c.lru.pushFront(h)
	return h
}

// detachLocked empties the record's slot without shifting.
func (c *Collection) detachLocked(h int) {
	nd := c.arena.nodes[h]
	if cur, ok := c.positions.get(nd.index); ok && cur == h {
		c.positions.clear(nd.index)
	}
	c.forgetLocked(h)
}

// removeLocked deletes the record's slot, shifting later records down.
func (c *Collection) removeLocked(h int) {
	c.positions.removeAt(c.arena.nodes[h].index)
	c.forgetLocked(h)
	if c.virtual() {
		c.paging.adjust(-1)
	}
}

func (c *Collection) forgetLocked(h int) {
	c.lru.unlink(h)
	if cur, ok := c.byCID[c.arena.nodes[h].rec.CID()]; ok && cur == h {
		delete(c.byCID, c.arena.nodes[h].rec.CID())
	}
	c.arena.release(h)
}

func (c *Collection) clearLocked() {
	c.arena.reset()
	c.positions.reset()
	c.lru.reset()
	c.byCID = make(map[string]int)
}

// Stats is a point in time summary of a collection.
type Stats struct {
	Length       int    `json:"length"`
	Materialized int    `json:"materialized"`
	LRU          int    `json:"lru"`
	Pending      int    `json:"pending"`
	Virtual      bool   `json:"virtual"`
	FetchSize    int    `json:"fetch_size"`
	ModelLimit   int    `json:"model_limit"`
	Sort         string `json:"sort,omitempty"`
	Paging       Paging `json:"paging"`
}

func (c *Collection) Stats() Stats {
	pending := c.queue.Pending()
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{
		Length:       c.positions.length,
		Materialized: c.positions.count(),
		LRU:          c.lru.size,
		Pending:      pending,
		Virtual:      c.virtual(),
		FetchSize:    c.cfg.FetchSize,
		ModelLimit:   c.cfg.ModelLimit,
		Paging:       c.paging,
	}
	if c.cfg.Comparator != nil {
		s.Sort = c.cfg.Comparator.String()
	}
	return s
}

// Clone copies a local collection. Records are cloned, recency is preserved
// and the cid generator is shared.
func (c *Collection) Clone() (*Collection, error) {
	if c.virtual() {
		return nil, &UnsupportedModeError{Op: "Clone"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cp, err := New(c.service, c.cfg)
	if err != nil {
		return nil, err
	}
	order := c.lru.order()
	for k := len(order) - 1; k >= 0; k-- {
		nd := c.arena.nodes[order[k]]
		cp.materializeLocked(nd.rec.Clone(), nd.index, false)
	}
	cp.positions.length = c.positions.length
	cp.paging = c.paging
	return cp, nil
}

// checkInvariants verifies the bookkeeping structures agree with each other.
func (c *Collection) checkInvariants() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, l := c.positions.count(), c.lru.size; n != l {
		return fmt.Errorf("materialized %d != lru size %d", n, l)
	}
	if walked := len(c.lru.order()); walked != c.lru.size {
		return fmt.Errorf("lru walk %d != lru size %d", walked, c.lru.size)
	}
	if len(c.byCID) != c.positions.count() {
		return fmt.Errorf("cid index %d != materialized %d", len(c.byCID), c.positions.count())
	}
	for i, h := range c.positions.slots {
		nd := c.arena.nodes[h]
		if nd.index != i {
			return fmt.Errorf("slot %d holds node indexed %d", i, nd.index)
		}
		if i >= c.positions.length {
			return fmt.Errorf("slot %d beyond length %d", i, c.positions.length)
		}
		if !c.lru.linked(h) {
			return fmt.Errorf("slot %d not in lru", i)
		}
	}
	if c.virtual() && c.paging.TotalKnown && c.paging.TotalResults != c.positions.length {
		return fmt.Errorf("length %d != known total %d", c.positions.length, c.paging.TotalResults)
	}
	return nil
}

// recency returns resident records from most to least recently touched.
func (c *Collection) recency() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	order := c.lru.order()
	out := make([]Record, len(order))
	for k, h := range order {
		out[k] = c.arena.nodes[h].rec
	}
	return out
}
