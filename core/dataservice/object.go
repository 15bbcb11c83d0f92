package dataservice

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"

	"record-manager/core/collection"
	"record-manager/core/storage"
	"record-manager/core/utils"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

const ndjsonContentType = "application/x-ndjson"

// maxLineSize bounds a single JSON line in the dataset object.
const maxLineSize = 4 << 20

// Object serves records from a JSON lines object in a storage bucket.
// Pages are read by streaming the object. The total is never reported:
// HasMore is set by probing for one more matching line. Sort specs are not
// supported and ignored. Writes rewrite the whole object.
type Object struct {
	mu     sync.Mutex
	client storage.Client
	bucket string
	object string
	idAttr string
}

func NewObject(client storage.Client, bucket, object, idAttr string) *Object {
	if idAttr == "" {
		idAttr = collection.DefaultIDAttribute
	}
	return &Object{client: client, bucket: bucket, object: object, idAttr: idAttr}
}

// scan calls fn for each record in order until fn returns false. A missing
// object is an empty dataset.
func (o *Object) scan(ctx context.Context, fn func(row map[string]any) bool) error {
	rc, err := o.client.GetObject(ctx, o.bucket, o.object, minio.GetObjectOptions{})
	if err != nil {
		if storage.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to open %s/%s: %w", o.bucket, o.object, err)
	}
	defer rc.Close()

	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var row map[string]any
		if err := json.Unmarshal(raw, &row); err != nil {
			return fmt.Errorf("failed to decode %s line %d: %w", o.object, line, err)
		}
		if !fn(row) {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		if storage.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s/%s: %w", o.bucket, o.object, err)
	}
	return nil
}

func matches(row, filter map[string]any) bool {
	for k, v := range filter {
		if utils.ToString(row[k]) != utils.ToString(v) {
			return false
		}
	}
	return true
}

func (o *Object) FetchPage(ctx context.Context, req collection.FetchRequest) (*collection.Page, error) {
	var (
		records []map[string]any
		matched int
		more    bool
	)
	err := o.scan(ctx, func(row map[string]any) bool {
		if !matches(row, req.Filter) {
			return true
		}
		matched++
		if matched <= req.Offset {
			return true
		}
		if len(records) >= req.Limit {
			more = true
			return false
		}
		records = append(records, row)
		return true
	})
	if err != nil {
		return nil, err
	}

	return &collection.Page{
		Records: records,
		Offset:  req.Offset,
		Limit:   req.Limit,
		Count:   len(records),
		HasMore: &more,
	}, nil
}

func (o *Object) FetchRecord(ctx context.Context, id string) (map[string]any, error) {
	var found map[string]any
	err := o.scan(ctx, func(row map[string]any) bool {
		if utils.ToString(row[o.idAttr]) == id {
			found = row
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, collection.ErrNotFound
	}
	return found, nil
}

func (o *Object) readAll(ctx context.Context) ([]map[string]any, error) {
	var rows []map[string]any
	err := o.scan(ctx, func(row map[string]any) bool {
		rows = append(rows, row)
		return true
	})
	return rows, err
}

func (o *Object) writeAll(ctx context.Context, rows []map[string]any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to encode record %v: %w", row[o.idAttr], err)
		}
	}
	_, err := o.client.PutObject(ctx, o.bucket, o.object, bytes.NewReader(buf.Bytes()), int64(buf.Len()),
		minio.PutObjectOptions{ContentType: ndjsonContentType})
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", o.bucket, o.object, err)
	}
	return nil
}

func (o *Object) indexOf(rows []map[string]any, id string) int {
	for i, row := range rows {
		if utils.ToString(row[o.idAttr]) == id {
			return i
		}
	}
	return -1
}

// Create appends attrs, generating a UUID id when none is given.
func (o *Object) Create(ctx context.Context, attrs map[string]any) (map[string]any, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	rows, err := o.readAll(ctx)
	if err != nil {
		return nil, err
	}
	row := maps.Clone(attrs)
	if row == nil {
		row = make(map[string]any)
	}
	id := utils.ToString(row[o.idAttr])
	if id == "" {
		id = uuid.NewString()
		row[o.idAttr] = id
	}
	if o.indexOf(rows, id) >= 0 {
		return nil, fmt.Errorf("create %s: %w", id, ErrConflict)
	}

	if err := o.writeAll(ctx, append(rows, row)); err != nil {
		return nil, err
	}
	return row, nil
}

func (o *Object) Update(ctx context.Context, id string, attrs map[string]any) (map[string]any, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	rows, err := o.readAll(ctx)
	if err != nil {
		return nil, err
	}
	i := o.indexOf(rows, id)
	if i < 0 {
		return nil, collection.ErrNotFound
	}
	// The id is immutable
	stored := rows[i][o.idAttr]
	maps.Copy(rows[i], attrs)
	rows[i][o.idAttr] = stored
	if err := o.writeAll(ctx, rows); err != nil {
		return nil, err
	}
	return rows[i], nil
}

func (o *Object) Delete(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	rows, err := o.readAll(ctx)
	if err != nil {
		return err
	}
	i := o.indexOf(rows, id)
	if i < 0 {
		return collection.ErrNotFound
	}
	return o.writeAll(ctx, append(rows[:i], rows[i+1:]...))
}
