package collection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_VirtualRequiresService(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FetchSize = 10
	_, err := New(nil, cfg)
	assert.Error(t, err)
}

func TestAdd_AppendsAndIndexes(t *testing.T) {
	c := newLocal(t, 5, nil)

	assert.Equal(t, 5, c.Len())
	for i := 0; i < c.Len(); i++ {
		rec, ok := c.At(i)
		require.True(t, ok)
		assert.Equal(t, i, c.IndexOf(rec))
	}
	last, ok := c.At(-1)
	require.True(t, ok)
	assert.Equal(t, "5", last.ID())
	require.NoError(t, c.checkInvariants())
}

func TestAdd_AtShiftsLaterRecords(t *testing.T) {
	c := newLocal(t, 3, nil)
	at := 1
	res, err := c.Add(context.Background(), []Record{
		c.Build(map[string]any{"id": "a"}),
		c.Build(map[string]any{"id": "b"}),
	}, AddOptions{At: &at})
	require.NoError(t, err)
	require.Len(t, res.Added, 2)
	assert.Equal(t, 1, res.Added[0].Index)
	assert.Equal(t, 2, res.Added[1].Index)

	recs, err := c.Records()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "a", "b", "2", "3"}, ids(recs))
	require.NoError(t, c.checkInvariants())
}

func TestAdd_ExistingIdentity(t *testing.T) {
	tests := []struct {
		name        string
		opts        AddOptions
		wantName    string
		wantMerged  int
		wantWarning int
		wantReplace int
	}{
		{name: "merge updates changed fields", opts: AddOptions{Merge: true}, wantName: "updated", wantMerged: 1},
		{name: "force replaces record", opts: AddOptions{Force: true}, wantName: "updated", wantReplace: 1},
		{name: "default warns and keeps", opts: AddOptions{}, wantName: "row-2", wantWarning: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var events []Event
			c := newLocal(t, 3, func(cfg *Config) {
				cfg.Sink = EventFunc(func(e Event) { events = append(events, e) })
			})
			events = nil

			res, err := c.Add(context.Background(), []Record{
				c.Build(map[string]any{"id": "2", "name": "updated"}),
			}, tt.opts)
			require.NoError(t, err)

			assert.Len(t, res.Merged, tt.wantMerged)
			assert.Len(t, res.Replaced, tt.wantReplace)
			assert.Len(t, res.Warnings, tt.wantWarning)
			assert.Empty(t, res.Added)
			assert.Equal(t, 3, c.Len())

			rec, ok := c.At(1)
			require.True(t, ok)
			assert.Equal(t, "2", rec.ID())
			assert.Equal(t, tt.wantName, rec.Attributes()["name"])

			if tt.wantMerged > 0 {
				assert.Equal(t, map[string]any{"name": "updated"}, res.Merged[0].Fields)
				assert.Equal(t, 1, res.Merged[0].Index)
				require.Len(t, events, 1)
				assert.Equal(t, EventChanged, events[0].Type)
			}
			if tt.wantWarning > 0 {
				assert.Equal(t, "2", res.Warnings[0].Identity)
				assert.Equal(t, 1, res.Warnings[0].Existing)
				assert.Empty(t, events)
			}
			require.NoError(t, c.checkInvariants())
		})
	}
}

func TestAdd_Rejected(t *testing.T) {
	invalid := errors.New("name required")
	c := newLocal(t, 0, func(cfg *Config) {
		cfg.Validate = func(r Record) error {
			if r.Attributes()["name"] == nil {
				return invalid
			}
			return nil
		}
	})

	res, err := c.Add(context.Background(), []Record{
		c.Build(map[string]any{"id": "1"}),
		c.Build(map[string]any{"id": "2", "name": "ok"}),
		NewModel("", "id", map[string]any{"id": "3", "name": "no cid"}),
	}, AddOptions{})
	require.NoError(t, err)
	require.Len(t, res.Rejected, 2)
	assert.ErrorIs(t, res.Rejected[0], invalid)
	assert.ErrorIs(t, res.Rejected[1], errMissingCID)
	assert.Len(t, res.Added, 1)
	assert.Equal(t, 1, c.Len())
}

// newVirtualSeeded builds a virtual collection and adds models with ids 1..n.
func newVirtualSeeded(t *testing.T, n int, mutate func(*Config)) *Collection {
	t.Helper()
	c := newVirtual(t, newFakeService(0), mutate)
	recs := make([]Record, n)
	for i, row := range makeRows(n) {
		recs[i] = c.Build(row)
	}
	_, err := c.Add(context.Background(), recs, AddOptions{})
	require.NoError(t, err)
	return c
}

func TestModelLimit_EvictsLeastRecentlyTouched(t *testing.T) {
	c := newVirtualSeeded(t, 3, func(cfg *Config) {
		cfg.ModelLimit = 2
	})

	assert.Equal(t, []int{1, 2}, c.Materialized())
	assert.Equal(t, []string{"3", "2"}, ids(c.recency()))
	_, st := c.Lookup(0)
	assert.Equal(t, SlotMissing, st)
	assert.Equal(t, 3, c.Len())
	require.NoError(t, c.checkInvariants())
}

func TestModelLimit_ReadPromotes(t *testing.T) {
	c := newVirtualSeeded(t, 3, func(cfg *Config) {
		cfg.ModelLimit = 3
	})

	_, ok := c.At(0)
	require.True(t, ok)
	assert.Equal(t, []string{"1", "3", "2"}, ids(c.recency()))

	_, err := c.Add(context.Background(), []Record{c.Build(map[string]any{"id": "4"})}, AddOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3}, c.Materialized())
	require.NoError(t, c.checkInvariants())
}

func TestModelLimit_NeverEvictsDirty(t *testing.T) {
	var evicted int
	c := newVirtualSeeded(t, 2, func(cfg *Config) {
		cfg.ModelLimit = 2
		cfg.Sink = EventFunc(func(e Event) {
			if e.Type == EventEvicted {
				evicted++
			}
		})
	})
	for i := 0; i < 2; i++ {
		rec, _ := c.At(i)
		rec.(*Model).Set("name", "edited")
	}

	_, err := c.Add(context.Background(), []Record{c.Build(map[string]any{"id": "3"})}, AddOptions{})
	require.NoError(t, err)
	assert.Zero(t, evicted)
	assert.Equal(t, 3, c.Stats().Materialized)
	require.NoError(t, c.checkInvariants())
}

func TestModelLimit_LocalCollectionKeepsEverything(t *testing.T) {
	c := newLocal(t, 0, func(cfg *Config) {
		cfg.ModelLimit = 2
	})
	recs := make([]Record, 3)
	for i, row := range makeRows(3) {
		recs[i] = c.Build(row)
	}
	_, err := c.Reset(context.Background(), recs)
	require.NoError(t, err)

	all, err := c.Records()
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, []int{0, 1, 2}, c.Materialized())

	w, err := c.EnsureRange(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, w.Count)
	require.NoError(t, c.checkInvariants())
}

func TestSet_ThreeWay(t *testing.T) {
	c := newLocal(t, 3, nil)

	res, err := c.Set(context.Background(), []Record{
		c.Build(map[string]any{"id": "1", "name": "row-1"}),
		c.Build(map[string]any{"id": "2", "name": "changed"}),
	}, DefaultSetOptions)
	require.NoError(t, err)

	require.Len(t, res.Removed, 1)
	assert.Equal(t, "3", res.Removed[0].Record.ID())
	require.Len(t, res.Merged, 2)
	assert.Empty(t, res.Merged[0].Fields)
	assert.Equal(t, map[string]any{"name": "changed"}, res.Merged[1].Fields)
	assert.Empty(t, res.Added)
	assert.Equal(t, 2, c.Len())
	require.NoError(t, c.checkInvariants())
}

func TestSet_ReordersToIncoming(t *testing.T) {
	c := newLocal(t, 3, nil)

	_, err := c.Set(context.Background(), []Record{
		c.Build(map[string]any{"id": "3"}),
		c.Build(map[string]any{"id": "4"}),
		c.Build(map[string]any{"id": "1"}),
		c.Build(map[string]any{"id": "3"}),
	}, DefaultSetOptions)
	require.NoError(t, err)

	recs, err := c.Records()
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "4", "1"}, ids(recs))
	require.NoError(t, c.checkInvariants())
}

func TestSet_WithoutRemoveKeepsUnmatched(t *testing.T) {
	c := newLocal(t, 2, nil)

	res, err := c.Set(context.Background(), []Record{
		c.Build(map[string]any{"id": "5"}),
	}, SetOptions{Add: true, Merge: true})
	require.NoError(t, err)
	assert.Len(t, res.Added, 1)
	assert.Empty(t, res.Removed)

	recs, _ := c.Records()
	assert.Equal(t, []string{"1", "2", "5"}, ids(recs))
}

func TestSet_SortedWithComparator(t *testing.T) {
	c := newLocal(t, 0, func(cfg *Config) {
		cfg.Comparator = ByFields("rank", 1)
	})

	_, err := c.Set(context.Background(), []Record{
		c.Build(map[string]any{"id": "a", "rank": 3}),
		c.Build(map[string]any{"id": "b", "rank": 1}),
		c.Build(map[string]any{"id": "c", "rank": 2}),
	}, DefaultSetOptions)
	require.NoError(t, err)

	recs, _ := c.Records()
	assert.Equal(t, []string{"b", "c", "a"}, ids(recs))
}

func TestRemove_ShiftsDown(t *testing.T) {
	var removed []int
	c := newLocal(t, 5, func(cfg *Config) {
		cfg.Sink = EventFunc(func(e Event) {
			if e.Type == EventRemoved {
				removed = append(removed, e.Index)
			}
		})
	})

	changes, err := c.Remove(context.Background(),
		c.Build(map[string]any{"id": "2"}),
		c.Build(map[string]any{"id": "missing"}),
	)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, 1, changes[0].Index)
	assert.Equal(t, []int{1}, removed)

	recs, _ := c.Records()
	assert.Equal(t, []string{"1", "3", "4", "5"}, ids(recs))
	for i, r := range recs {
		assert.Equal(t, i, c.IndexOf(r))
	}
	require.NoError(t, c.checkInvariants())
}

func TestReset(t *testing.T) {
	var types []EventType
	c := newLocal(t, 4, func(cfg *Config) {
		cfg.Sink = EventFunc(func(e Event) { types = append(types, e.Type) })
	})
	types = nil

	res, err := c.Reset(context.Background(), []Record{
		c.Build(map[string]any{"id": "9"}),
		c.Build(map[string]any{"id": "9"}),
	})
	require.NoError(t, err)
	assert.Len(t, res.Added, 1)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, []EventType{EventReset}, types)
	require.NoError(t, c.checkInvariants())
}

func TestVirtual_LocalOnlyOperations(t *testing.T) {
	c := newVirtual(t, newFakeService(5), nil)

	_, err := c.Records()
	assert.ErrorIs(t, err, ErrUnsupportedMode)
	err = c.Each(func(int, Record) bool { return true })
	assert.ErrorIs(t, err, ErrUnsupportedMode)
	_, err = c.Filter(func(Record) bool { return true })
	assert.ErrorIs(t, err, ErrUnsupportedMode)
	var unsupported *UnsupportedModeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "Filter", unsupported.Op)
	_, err = c.Clone()
	assert.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestEachAndFilter(t *testing.T) {
	c := newLocal(t, 4, nil)

	var seen []int
	require.NoError(t, c.Each(func(i int, _ Record) bool {
		seen = append(seen, i)
		return i < 2
	}))
	assert.Equal(t, []int{0, 1, 2}, seen)

	even, err := c.Filter(func(r Record) bool {
		return r.ID() == "2" || r.ID() == "4"
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "4"}, ids(even))
}

func TestClone(t *testing.T) {
	c := newLocal(t, 3, nil)
	_, _ = c.At(0)

	cp, err := c.Clone()
	require.NoError(t, err)
	assert.Equal(t, c.Len(), cp.Len())
	assert.Equal(t, ids(c.recency()), ids(cp.recency()))

	orig, _ := c.At(1)
	copied, _ := cp.At(1)
	assert.NotSame(t, orig, copied)
	copied.(*Model).Set("name", "changed")
	assert.Equal(t, "row-2", orig.Attributes()["name"])

	fresh := cp.Build(nil)
	assert.NotEqual(t, orig.CID(), fresh.CID())
	require.NoError(t, cp.checkInvariants())
}

func TestGetAndIdentify(t *testing.T) {
	c := newLocal(t, 3, nil)

	rec, ok := c.Get("2")
	require.True(t, ok)
	byCID, ok := c.Get(rec.CID())
	require.True(t, ok)
	assert.Same(t, rec, byCID)

	_, ok = c.Get("nope")
	assert.False(t, ok)

	found, idx, ok := c.Identify(c.Build(map[string]any{"id": "3"}))
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, "3", found.ID())
	assert.Equal(t, -1, c.IndexOf(c.Build(map[string]any{"id": "7"})))
}

func TestBuild_DefaultsAndParse(t *testing.T) {
	c := newLocal(t, 0, func(cfg *Config) {
		cfg.Defaults = map[string]any{"status": "new", "name": "unnamed"}
		cfg.Parse = func(attrs map[string]any) map[string]any {
			if data, ok := attrs["data"].(map[string]any); ok {
				return data
			}
			return attrs
		}
		cfg.IDs = NewSequence("tmp-")
	})

	rec := c.Build(map[string]any{"name": "given"})
	assert.Equal(t, "tmp-1", rec.CID())
	assert.Equal(t, "", rec.ID())
	assert.Equal(t, map[string]any{"status": "new", "name": "given"}, rec.Attributes())

	wrapped := c.Build(map[string]any{"data": map[string]any{"id": "7"}})
	assert.Equal(t, "7", wrapped.ID())
}

func TestStats(t *testing.T) {
	c := newLocal(t, 3, func(cfg *Config) {
		cfg.Comparator = ByFields("name", -1)
	})

	s := c.Stats()
	assert.Equal(t, 3, s.Length)
	assert.Equal(t, 3, s.Materialized)
	assert.Equal(t, 3, s.LRU)
	assert.False(t, s.Virtual)
	assert.Equal(t, "name:-1", s.Sort)
}
