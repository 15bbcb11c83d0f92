package collection

import "context"

// SortSpec is forwarded to the data service so that server side ordering
// matches the collection's field comparator.
type SortSpec struct {
	Fields    []string `json:"fields"`
	Direction int      `json:"direction"`
}

// FetchRequest asks for Limit records starting at Offset.
type FetchRequest struct {
	Offset int
	Limit  int
	Sort   *SortSpec
	Filter map[string]any
}

// Page is a data service response. Offset is the logical index of Records[0].
// Services report whatever extent metadata they have: TotalResults, HasMore,
// both or neither. Count defaults to len(Records) when zero.
type Page struct {
	Records      []map[string]any
	Offset       int
	Limit        int
	Count        int
	TotalResults *int
	HasMore      *bool
}

// DataService is the remote, authoritative store behind a collection.
type DataService interface {
	FetchPage(ctx context.Context, req FetchRequest) (*Page, error)
	// FetchRecord returns ErrNotFound when id does not exist.
	FetchRecord(ctx context.Context, id string) (map[string]any, error)
	Create(ctx context.Context, attrs map[string]any) (map[string]any, error)
	Update(ctx context.Context, id string, attrs map[string]any) (map[string]any, error)
	Delete(ctx context.Context, id string) error
}
