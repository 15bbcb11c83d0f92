package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"record-manager/core/collection"
	"record-manager/core/database"
	"record-manager/core/dataservice"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type windowBody struct {
	Start   int              `json:"start"`
	Count   int              `json:"count"`
	Length  int              `json:"length"`
	Records []map[string]any `json:"records"`
}

func setupApp(t *testing.T, fetchSize int) *fiber.App {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE records (id TEXT PRIMARY KEY, name TEXT, score INTEGER)").Error)
	for i := 1; i <= 25; i++ {
		err := db.Exec("INSERT INTO records (id, name, score) VALUES (?, ?, ?)",
			fmt.Sprintf("%02d", i), fmt.Sprintf("item-%02d", i), i).Error
		require.NoError(t, err)
	}

	tbl, err := dataservice.NewTable(db, "records", "id")
	require.NoError(t, err)

	cfg := collection.DefaultConfig()
	cfg.FetchSize = fetchSize
	coll, err := collection.New(tbl, cfg)
	require.NoError(t, err)

	feature := NewFeature(coll, tbl, zap.NewNop())
	require.NoError(t, feature.Service().Load(context.Background()))

	app := fiber.New()
	require.NoError(t, feature.Load(app))
	return app
}

func do(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func window(t *testing.T, app *fiber.App, target string) windowBody {
	t.Helper()
	resp, data := do(t, app, "GET", target, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var w windowBody
	require.NoError(t, json.Unmarshal(data, &w))
	return w
}

func TestLoader(t *testing.T) {
	coll, err := collection.New(nil, collection.DefaultConfig())
	require.NoError(t, err)
	feature := NewFeature(coll, nil, zap.NewNop())

	assert.Equal(t, "records", feature.Name())
	assert.True(t, feature.IsEnabled())
	assert.NoError(t, feature.Service().Load(context.Background()))
	assert.NoError(t, feature.Load(fiber.New()))
}

func TestHandleWindow(t *testing.T) {
	for _, fetchSize := range []int{10, -1} {
		t.Run(fmt.Sprintf("fetch_size=%d", fetchSize), func(t *testing.T) {
			app := setupApp(t, fetchSize)

			w := window(t, app, "/records?start=5&count=3")
			assert.Equal(t, 5, w.Start)
			assert.Equal(t, 3, w.Count)
			assert.Equal(t, 25, w.Length)
			require.Len(t, w.Records, 3)
			assert.Equal(t, "06", w.Records[0]["id"])
			assert.Equal(t, "item-08", w.Records[2]["name"])

			w = window(t, app, "/records?start=23&count=10")
			assert.Equal(t, 2, w.Count)
		})
	}
}

func TestHandleWindow_NegativeStart(t *testing.T) {
	app := setupApp(t, 10)
	resp, _ := do(t, app, "GET", "/records?start=-1", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleStats(t *testing.T) {
	app := setupApp(t, 10)
	window(t, app, "/records?start=0&count=5")

	resp, data := do(t, app, "GET", "/records/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats collection.Stats
	require.NoError(t, json.Unmarshal(data, &stats))
	assert.True(t, stats.Virtual)
	assert.Equal(t, 25, stats.Length)
	assert.Equal(t, 10, stats.Materialized)
	assert.Equal(t, stats.Materialized, stats.LRU)
}

func TestHandleGet(t *testing.T) {
	app := setupApp(t, 10)

	resp, data := do(t, app, "GET", "/records/03", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "item-03", rec["name"])

	resp, _ = do(t, app, "GET", "/records/99", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleCreate(t *testing.T) {
	app := setupApp(t, 10)

	resp, data := do(t, app, "POST", "/records", `{"name":"fresh","score":99}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var rec map[string]any
	require.NoError(t, json.Unmarshal(data, &rec))
	id, _ := rec["id"].(string)
	require.NotEmpty(t, id)

	resp, _ = do(t, app, "GET", "/records/"+id, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, "POST", "/records", `{"id":"01","name":"dup"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, app, "POST", "/records", `{"bogus":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, "POST", "/records", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleUpdate(t *testing.T) {
	app := setupApp(t, 10)
	window(t, app, "/records?start=0&count=5")

	resp, data := do(t, app, "PATCH", "/records/02", `{"name":"renamed"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var rec map[string]any
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "renamed", rec["name"])

	w := window(t, app, "/records?start=1&count=1")
	require.Len(t, w.Records, 1)
	assert.Equal(t, "renamed", w.Records[0]["name"])

	resp, _ = do(t, app, "PATCH", "/records/99", `{"name":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleDelete(t *testing.T) {
	app := setupApp(t, 10)
	window(t, app, "/records?start=0&count=5")

	resp, _ := do(t, app, "DELETE", "/records/04", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, app, "GET", "/records/04", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	w := window(t, app, "/records?start=0&count=4")
	assert.Equal(t, []any{"01", "02", "03", "05"}, []any{
		w.Records[0]["id"], w.Records[1]["id"], w.Records[2]["id"], w.Records[3]["id"],
	})
	assert.Equal(t, 24, w.Length)
}

func TestHandleSort(t *testing.T) {
	for _, fetchSize := range []int{10, -1} {
		t.Run(fmt.Sprintf("fetch_size=%d", fetchSize), func(t *testing.T) {
			app := setupApp(t, fetchSize)
			window(t, app, "/records?start=0&count=5")

			resp, data := do(t, app, "POST", "/records/sort?by=score&dir=desc", "")
			require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

			w := window(t, app, "/records?start=0&count=2")
			require.Len(t, w.Records, 2)
			assert.Equal(t, "25", w.Records[0]["id"])
			assert.Equal(t, "24", w.Records[1]["id"])
			assert.Equal(t, 25, w.Length)

			resp, _ = do(t, app, "POST", "/records/sort?by=score&dir=sideways", "")
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestStatusFor(t *testing.T) {
	rec := collection.NewModel("c1", "id", nil)
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Validation", &collection.ValidationError{Record: rec, Err: errors.New("bad")}, fiber.StatusUnprocessableEntity},
		{"NotFound", fmt.Errorf("lookup: %w", collection.ErrNotFound), fiber.StatusNotFound},
		{"UnsupportedMode", &collection.UnsupportedModeError{Op: "each"}, fiber.StatusConflict},
		{"Conflict", &collection.TransportError{Op: "create", Err: dataservice.ErrConflict}, fiber.StatusConflict},
		{"UnknownField", &collection.TransportError{Op: "save", Err: dataservice.ErrUnknownField}, fiber.StatusBadRequest},
		{"Transport", &collection.TransportError{Op: "fetch page", Err: errors.New("down")}, fiber.StatusBadGateway},
		{"Other", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 1, false},
		{"asc", 1, false},
		{"DESC", -1, false},
		{"-1", -1, false},
		{"1", 1, false},
		{"2", 0, true},
		{"up", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
