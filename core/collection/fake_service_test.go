package collection

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"sync"
)

// fakeService is an in-memory DataService that records every page request.
type fakeService struct {
	mu          sync.Mutex
	rows        []map[string]any
	reportTotal bool
	reportMore  bool
	maxPage     int
	err         error
	fetches     []FetchRequest
	lookups     int
	nextID      int
}

func newFakeService(n int) *fakeService {
	return &fakeService{rows: makeRows(n), nextID: n + 1}
}

func makeRows(n int) []map[string]any {
	rows := make([]map[string]any, n)
	for i := range rows {
		rows[i] = map[string]any{"id": strconv.Itoa(i + 1), "name": fmt.Sprintf("row-%d", i+1)}
	}
	return rows
}

func (f *fakeService) FetchPage(_ context.Context, req FetchRequest) (*Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, req)
	if f.err != nil {
		return nil, f.err
	}

	limit := req.Limit
	if f.maxPage > 0 && limit > f.maxPage {
		limit = f.maxPage
	}
	page := &Page{Offset: req.Offset, Limit: limit}
	for i := req.Offset; i < len(f.rows) && i < req.Offset+limit; i++ {
		page.Records = append(page.Records, maps.Clone(f.rows[i]))
	}
	if f.reportTotal {
		total := len(f.rows)
		page.TotalResults = &total
	}
	if f.reportMore {
		more := req.Offset+len(page.Records) < len(f.rows)
		page.HasMore = &more
	}
	return page, nil
}

func (f *fakeService) FetchRecord(_ context.Context, id string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.rows {
		if r["id"] == id {
			return maps.Clone(r), nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeService) Create(_ context.Context, attrs map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	row := maps.Clone(attrs)
	if _, ok := row["id"]; !ok {
		row["id"] = strconv.Itoa(f.nextID)
		f.nextID++
	}
	f.rows = append(f.rows, row)
	return maps.Clone(row), nil
}

func (f *fakeService) Update(_ context.Context, id string, attrs map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.rows {
		if r["id"] == id {
			maps.Copy(r, attrs)
			r["version"] = 2
			return maps.Clone(r), nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeService) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i, r := range f.rows {
		if r["id"] == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeService) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetches)
}

func (f *fakeService) lastFetch() FetchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[len(f.fetches)-1]
}

func (f *fakeService) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// newLocal builds a local collection holding models with ids 1..n.
func newLocal(t interface{ Fatalf(string, ...any) }, n int, mutate func(*Config)) *Collection {
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := New(nil, cfg)
	if err != nil {
		t.Fatalf("new collection: %v", err)
	}
	if n > 0 {
		recs := make([]Record, n)
		for i, row := range makeRows(n) {
			recs[i] = c.Build(row)
		}
		if _, err := c.Add(context.Background(), recs, AddOptions{}); err != nil {
			t.Fatalf("seed collection: %v", err)
		}
	}
	return c
}

func newVirtual(t interface{ Fatalf(string, ...any) }, svc *fakeService, mutate func(*Config)) *Collection {
	cfg := DefaultConfig()
	cfg.FetchSize = 10
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := New(svc, cfg)
	if err != nil {
		t.Fatalf("new collection: %v", err)
	}
	return c
}

func ids(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID()
	}
	return out
}
