package collection

import (
	"encoding/json"
	"maps"
	"reflect"
	"sort"
	"sync"

	"record-manager/core/utils"
)

// Model is the default Record: an attribute bag keyed by field name with
// per-field dirty tracking. All methods are safe for concurrent use.
type Model struct {
	mu     sync.RWMutex
	cid    string
	idAttr string
	attrs  map[string]any
	dirty  map[string]struct{}
}

// NewModel creates a clean model. idAttr names the attribute holding the server id.
func NewModel(cid, idAttr string, attrs map[string]any) *Model {
	if idAttr == "" {
		idAttr = DefaultIDAttribute
	}
	m := &Model{
		cid:    cid,
		idAttr: idAttr,
		attrs:  make(map[string]any, len(attrs)),
		dirty:  make(map[string]struct{}),
	}
	maps.Copy(m.attrs, attrs)
	return m
}

func (m *Model) ID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.attrs[m.idAttr]
	if !ok || v == nil {
		return ""
	}
	return utils.ToString(v)
}

func (m *Model) CID() string {
	return m.cid
}

func (m *Model) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.attrs[key]
	return v, ok
}

// Set records a local edit. The field stays dirty until Commit.
func (m *Model) Set(key string, value any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.attrs[key]; ok && reflect.DeepEqual(old, value) {
		return false
	}
	m.attrs[key] = value
	m.dirty[key] = struct{}{}
	return true
}

func (m *Model) Attributes() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]any, len(m.attrs))
	maps.Copy(out, m.attrs)
	return out
}

// ApplyChanges compares field by field and writes only what differs.
// It does not touch the dirty set: merges come from an authoritative source.
func (m *Model) ApplyChanges(changes map[string]any) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	changed := make(map[string]any)
	for k, v := range changes {
		if old, ok := m.attrs[k]; ok && reflect.DeepEqual(old, v) {
			continue
		}
		m.attrs[k] = v
		changed[k] = v
	}
	return changed
}

func (m *Model) Dirty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.dirty) > 0
}

// DirtyFields returns the names of fields with unconfirmed local edits, sorted.
func (m *Model) DirtyFields() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.dirty))
	for k := range m.dirty {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (m *Model) Commit() {
	m.mu.Lock()
	m.dirty = make(map[string]struct{})
	m.mu.Unlock()
}

func (m *Model) Clone() Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := NewModel(m.cid, m.idAttr, m.attrs)
	for k := range m.dirty {
		c.dirty[k] = struct{}{}
	}
	return c
}

func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Attributes())
}
