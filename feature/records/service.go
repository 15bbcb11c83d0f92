package records

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"record-manager/core/collection"

	"go.uber.org/zap"
)

// loadBatch is the page size used when a local collection pulls the whole dataset.
const loadBatch = 200

// Service exposes a collection to the HTTP handler.
type Service struct {
	records *collection.Collection
	source  collection.DataService
	logger  *zap.Logger
}

// NewService creates a new records service. source may be nil when the
// collection is local and never loaded from a data service.
func NewService(records *collection.Collection, source collection.DataService, logger *zap.Logger) *Service {
	return &Service{records: records, source: source, logger: logger}
}

// WindowResponse is a materialized window plus the collection's extent.
type WindowResponse struct {
	Start   int                 `json:"start"`
	Count   int                 `json:"count"`
	Length  int                 `json:"length"`
	Paging  collection.Paging   `json:"paging"`
	Records []collection.Record `json:"records"`
}

// Load pulls the full dataset into a local collection. Virtual collections
// page on demand and are left untouched.
func (s *Service) Load(ctx context.Context) error {
	if s.records.IsVirtual() || s.source == nil {
		return nil
	}

	var recs []collection.Record
	for offset := 0; ; {
		page, err := s.source.FetchPage(ctx, collection.FetchRequest{Offset: offset, Limit: loadBatch})
		if err != nil {
			return &collection.TransportError{Op: "load", Offset: offset, Limit: loadBatch, Err: err}
		}
		for _, attrs := range page.Records {
			recs = append(recs, s.records.Build(attrs))
		}
		offset += len(page.Records)
		if len(page.Records) < loadBatch {
			break
		}
		if page.TotalResults != nil && offset >= *page.TotalResults {
			break
		}
		if page.HasMore != nil && !*page.HasMore {
			break
		}
	}

	res, err := s.records.Reset(ctx, recs)
	if err != nil {
		return err
	}
	s.logger.Info("Loaded records", zap.Int("count", len(res.Added)), zap.Int("rejected", len(res.Rejected)))
	return nil
}

// Window materializes [start, start+count) and returns what is resident.
func (s *Service) Window(ctx context.Context, start, count int) (*WindowResponse, error) {
	w, err := s.records.EnsureRange(ctx, start, count)
	if err != nil {
		return nil, err
	}
	for _, warn := range w.Warnings {
		s.logger.Debug("Window warning", zap.Error(warn))
	}
	return &WindowResponse{
		Start:   w.Start,
		Count:   w.Count,
		Length:  s.records.Len(),
		Paging:  s.records.Paging(),
		Records: w.Records,
	}, nil
}

// Stats returns a snapshot of the collection.
func (s *Service) Stats() collection.Stats {
	return s.records.Stats()
}

// Sort orders the collection by a comma separated field list. An empty list
// clears the comparator.
func (s *Service) Sort(ctx context.Context, by, dir string) error {
	var cmp *collection.Comparator
	if strings.TrimSpace(by) != "" {
		d, err := ParseDirection(dir)
		if err != nil {
			return err
		}
		cmp = collection.ByFields(by, d)
	}
	return s.records.SetComparator(ctx, cmp)
}

// Get returns the record with the given server id.
func (s *Service) Get(ctx context.Context, id string) (collection.Record, error) {
	return s.records.FetchByID(ctx, id)
}

// Create saves a new record.
func (s *Service) Create(ctx context.Context, attrs map[string]any) (collection.Record, error) {
	return s.records.Create(ctx, attrs)
}

// Update applies fields to the record and saves it.
func (s *Service) Update(ctx context.Context, id string, fields map[string]any) (collection.Record, error) {
	rec, err := s.records.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m, ok := rec.(*collection.Model); ok {
		for k, v := range fields {
			m.Set(k, v)
		}
	} else {
		rec.ApplyChanges(fields)
	}
	if err := s.records.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete destroys the record with the given server id.
func (s *Service) Delete(ctx context.Context, id string) error {
	rec, err := s.records.FetchByID(ctx, id)
	if err != nil {
		return err
	}
	return s.records.Destroy(ctx, rec)
}

// ParseDirection accepts asc, desc, 1 and -1. Empty means ascending.
func ParseDirection(dir string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
		return 1, nil
	case "desc":
		return -1, nil
	}
	d, err := strconv.Atoi(dir)
	if err != nil || (d != 1 && d != -1) {
		return 0, fmt.Errorf("invalid sort direction %q: %w", dir, errInvalidInput)
	}
	return d, nil
}

var errInvalidInput = errors.New("invalid input")
