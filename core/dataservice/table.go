package dataservice

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"record-manager/core/collection"
	"record-manager/core/database"
	"record-manager/core/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Table pages over a SQL table. It reports TotalResults on every page.
type Table struct {
	db       *gorm.DB
	table    string
	idColumn string
	columns  map[string]struct{}
}

// NewTable inspects the table's columns. Filters, sort fields and written
// attributes are checked against them.
func NewTable(db *gorm.DB, table, idColumn string) (*Table, error) {
	columns, err := database.ColumnSet(db, table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s does not exist or has no columns", table)
	}
	if _, ok := columns[idColumn]; !ok {
		return nil, fmt.Errorf("table %s has no id column %s: %w", table, idColumn, ErrUnknownField)
	}
	return &Table{db: db, table: table, idColumn: idColumn, columns: columns}, nil
}

func (t *Table) scoped(ctx context.Context, filter map[string]any) (*gorm.DB, error) {
	q := t.db.WithContext(ctx).Table(t.table)
	if len(filter) == 0 {
		return q, nil
	}
	for k := range filter {
		if _, ok := t.columns[k]; !ok {
			return nil, fmt.Errorf("filter on %s: %w", k, ErrUnknownField)
		}
	}
	return q.Where(filter), nil
}

func (t *Table) byID(q *gorm.DB, id string) *gorm.DB {
	return q.Where(clause.Eq{Column: clause.Column{Name: t.idColumn}, Value: id})
}

func (t *Table) FetchPage(ctx context.Context, req collection.FetchRequest) (*collection.Page, error) {
	q, err := t.scoped(ctx, req.Filter)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", t.table, err)
	}

	q, err = t.scoped(ctx, req.Filter)
	if err != nil {
		return nil, err
	}
	if req.Sort != nil {
		for _, f := range req.Sort.Fields {
			if _, ok := t.columns[f]; !ok {
				return nil, fmt.Errorf("sort on %s: %w", f, ErrUnknownField)
			}
			q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: f}, Desc: req.Sort.Direction < 0})
		}
	}
	// Tie-break on the id so pages are stable
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: t.idColumn}})

	var rows []map[string]any
	if err := q.Offset(req.Offset).Limit(req.Limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch %s [offset=%d limit=%d]: %w", t.table, req.Offset, req.Limit, err)
	}
	for _, row := range rows {
		normalizeRow(row)
	}

	n := int(total)
	return &collection.Page{
		Records:      rows,
		Offset:       req.Offset,
		Limit:        req.Limit,
		Count:        len(rows),
		TotalResults: &n,
	}, nil
}

func (t *Table) FetchRecord(ctx context.Context, id string) (map[string]any, error) {
	var rows []map[string]any
	q := t.byID(t.db.WithContext(ctx).Table(t.table), id)
	if err := q.Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch %s %s: %w", t.table, id, err)
	}
	if len(rows) == 0 {
		return nil, collection.ErrNotFound
	}
	normalizeRow(rows[0])
	return rows[0], nil
}

// Create inserts attrs, generating a UUID id when none is given.
func (t *Table) Create(ctx context.Context, attrs map[string]any) (map[string]any, error) {
	row, err := t.writable(attrs)
	if err != nil {
		return nil, err
	}
	id := utils.ToString(row[t.idColumn])
	if id == "" {
		id = uuid.NewString()
		row[t.idColumn] = id
	}

	if _, err := t.FetchRecord(ctx, id); err == nil {
		return nil, fmt.Errorf("create %s %s: %w", t.table, id, ErrConflict)
	} else if !errors.Is(err, collection.ErrNotFound) {
		return nil, err
	}

	if err := t.db.WithContext(ctx).Table(t.table).Create(row).Error; err != nil {
		return nil, fmt.Errorf("failed to create %s %s: %w", t.table, id, err)
	}
	return t.FetchRecord(ctx, id)
}

// Update writes attrs to the row and returns the stored row.
func (t *Table) Update(ctx context.Context, id string, attrs map[string]any) (map[string]any, error) {
	row, err := t.writable(attrs)
	if err != nil {
		return nil, err
	}
	delete(row, t.idColumn)

	if _, err := t.FetchRecord(ctx, id); err != nil {
		return nil, err
	}
	if len(row) > 0 {
		q := t.byID(t.db.WithContext(ctx).Table(t.table), id)
		if err := q.Updates(row).Error; err != nil {
			return nil, fmt.Errorf("failed to update %s %s: %w", t.table, id, err)
		}
	}
	return t.FetchRecord(ctx, id)
}

func (t *Table) Delete(ctx context.Context, id string) error {
	res := t.db.WithContext(ctx).Exec("DELETE FROM ? WHERE ? = ?",
		clause.Table{Name: t.table}, clause.Column{Name: t.idColumn}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete %s %s: %w", t.table, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return collection.ErrNotFound
	}
	return nil
}

// writable copies attrs, rejecting fields that are not columns.
func (t *Table) writable(attrs map[string]any) (map[string]any, error) {
	row := maps.Clone(attrs)
	if row == nil {
		row = make(map[string]any)
	}
	for k := range row {
		if _, ok := t.columns[k]; !ok {
			return nil, fmt.Errorf("write %s: %w", k, ErrUnknownField)
		}
	}
	return row, nil
}

// normalizeRow turns driver byte slices into strings.
func normalizeRow(row map[string]any) {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
}
