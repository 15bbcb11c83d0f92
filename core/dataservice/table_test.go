package dataservice

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"record-manager/core/collection"
	"record-manager/core/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupTable(t *testing.T, n int) *Table {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	require.NoError(t, db.Exec("CREATE TABLE records (id TEXT PRIMARY KEY, name TEXT, kind TEXT, score INTEGER)").Error)
	for i := 1; i <= n; i++ {
		kind := "chair"
		if i%2 == 0 {
			kind = "table"
		}
		err := db.Exec("INSERT INTO records (id, name, kind, score) VALUES (?, ?, ?, ?)",
			fmt.Sprintf("%02d", i), fmt.Sprintf("item-%02d", i), kind, i*10).Error
		require.NoError(t, err)
	}

	tbl, err := NewTable(db, "records", "id")
	require.NoError(t, err)
	return tbl
}

func pageIDs(p *collection.Page) []string {
	out := make([]string, len(p.Records))
	for i, r := range p.Records {
		out[i] = r["id"].(string)
	}
	return out
}

func TestNewTable(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	_, err = NewTable(db, "missing", "id")
	assert.Error(t, err)

	require.NoError(t, db.Exec("CREATE TABLE things (uid TEXT PRIMARY KEY)").Error)
	_, err = NewTable(db, "things", "id")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestTable_FetchPage(t *testing.T) {
	tbl := setupTable(t, 12)
	ctx := context.Background()

	t.Run("offset and limit with total", func(t *testing.T) {
		page, err := tbl.FetchPage(ctx, collection.FetchRequest{Offset: 5, Limit: 4})
		require.NoError(t, err)
		assert.Equal(t, []string{"06", "07", "08", "09"}, pageIDs(page))
		require.NotNil(t, page.TotalResults)
		assert.Equal(t, 12, *page.TotalResults)
		assert.Equal(t, 5, page.Offset)
		assert.Equal(t, 4, page.Count)
	})

	t.Run("past the end", func(t *testing.T) {
		page, err := tbl.FetchPage(ctx, collection.FetchRequest{Offset: 10, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{"11", "12"}, pageIDs(page))
	})

	t.Run("filter", func(t *testing.T) {
		page, err := tbl.FetchPage(ctx, collection.FetchRequest{Limit: 3, Filter: map[string]any{"kind": "table"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"02", "04", "06"}, pageIDs(page))
		assert.Equal(t, 6, *page.TotalResults)
	})

	t.Run("sort descending", func(t *testing.T) {
		page, err := tbl.FetchPage(ctx, collection.FetchRequest{
			Limit: 3,
			Sort:  &collection.SortSpec{Fields: []string{"score"}, Direction: -1},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"12", "11", "10"}, pageIDs(page))
	})

	t.Run("unknown fields", func(t *testing.T) {
		_, err := tbl.FetchPage(ctx, collection.FetchRequest{Limit: 3, Filter: map[string]any{"color": "red"}})
		assert.ErrorIs(t, err, ErrUnknownField)

		_, err = tbl.FetchPage(ctx, collection.FetchRequest{
			Limit: 3,
			Sort:  &collection.SortSpec{Fields: []string{"name; DROP TABLE records"}, Direction: 1},
		})
		assert.ErrorIs(t, err, ErrUnknownField)
	})
}

func TestTable_FetchRecord(t *testing.T) {
	tbl := setupTable(t, 3)
	ctx := context.Background()

	row, err := tbl.FetchRecord(ctx, "02")
	require.NoError(t, err)
	assert.Equal(t, "item-02", row["name"])
	assert.EqualValues(t, 20, row["score"])

	_, err = tbl.FetchRecord(ctx, "99")
	assert.ErrorIs(t, err, collection.ErrNotFound)
}

func TestTable_Writes(t *testing.T) {
	tbl := setupTable(t, 2)
	ctx := context.Background()

	created, err := tbl.Create(ctx, map[string]any{"name": "new", "kind": "lamp"})
	require.NoError(t, err)
	id, ok := created["id"].(string)
	require.True(t, ok)
	assert.Len(t, id, 36)
	assert.Equal(t, "lamp", created["kind"])

	_, err = tbl.Create(ctx, map[string]any{"id": "01", "name": "dup"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = tbl.Create(ctx, map[string]any{"color": "red"})
	assert.ErrorIs(t, err, ErrUnknownField)

	updated, err := tbl.Update(ctx, "01", map[string]any{"id": "ignored", "name": "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "01", updated["id"])
	assert.Equal(t, "renamed", updated["name"])

	_, err = tbl.Update(ctx, "99", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, collection.ErrNotFound)

	require.NoError(t, tbl.Delete(ctx, "02"))
	assert.ErrorIs(t, tbl.Delete(ctx, "02"), collection.ErrNotFound)

	page, err := tbl.FetchPage(ctx, collection.FetchRequest{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, *page.TotalResults)
}

func TestTable_BackedCollection(t *testing.T) {
	tbl := setupTable(t, 25)
	cfg := collection.DefaultConfig()
	cfg.FetchSize = 10
	coll, err := collection.New(tbl, cfg)
	require.NoError(t, err)

	w, err := coll.EnsureRange(context.Background(), 20, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, w.Count)
	assert.Equal(t, 25, coll.Len())
	assert.Equal(t, "21", w.Records[0].ID())
}

func TestTable_QueryFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery("information_schema.columns").
		WithArgs("records").
		WillReturnRows(sqlmock.NewRows([]string{"field", "type", "key"}).AddRow("id", "varchar(36)", "pri"))
	tbl, err := NewTable(db, "records", "id")
	require.NoError(t, err)

	cause := errors.New("connection reset")
	mock.ExpectQuery("SELECT count").WillReturnError(cause)

	_, err = tbl.FetchPage(context.Background(), collection.FetchRequest{Limit: 10})
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNew(t *testing.T) {
	_, err := New(Config{Kind: "ftp"}, nil, nil, "")
	assert.ErrorContains(t, err, "unsupported")

	_, err = New(Config{Kind: KindDatabase}, nil, nil, "")
	assert.ErrorContains(t, err, "requires a database")

	_, err = New(Config{Kind: KindStorage}, nil, nil, "")
	assert.ErrorContains(t, err, "requires a storage client")
}
