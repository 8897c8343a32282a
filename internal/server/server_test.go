package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoster/querylens/internal/config"
	apperrors "github.com/mkoster/querylens/internal/errors"
	"github.com/mkoster/querylens/internal/logging"
	"github.com/mkoster/querylens/internal/service"
)

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			MaxConnections:  5,
			MaxIdleConns:    2,
			ConnMaxLifetime: "30m",
			ConnMaxIdleTime: "5m",
			QueryTimeout:    "10s",
		},
		Cache: config.CacheConfig{
			TTLSeconds:  300,
			MaxSize:     100,
			CleanupFreq: "1m",
		},
		Documents: config.DocumentsConfig{
			MaxFileSizeMB: 10,
			ChunkSize:     512,
			ChunkOverlap:  50,
			SearchTopK:    5,
		},
		Embedding: config.EmbeddingConfig{
			Provider:   "hash",
			Dimensions: 64,
			Enabled:    true,
		},
		Server: config.ServerConfig{
			Host: "127.0.0.1",
			Port: 0,
		},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *service.Session) {
	t.Helper()

	cfg := testConfig()

	session, err := service.NewSession(cfg, logging.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() { _ = session.Close() })

	srv := New(cfg, session, logging.NewNop())
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	return ts, session
}

func seedSQLite(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "corp.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)

	defer db.Close()

	stmts := []string{
		`CREATE TABLE departments (id INTEGER PRIMARY KEY, dept_name TEXT)`,
		`CREATE TABLE employees (
			emp_id INTEGER PRIMARY KEY,
			full_name TEXT,
			department_id INTEGER REFERENCES departments(id),
			annual_salary REAL,
			hire_date TEXT
		)`,
		`INSERT INTO departments VALUES (1, 'Engineering'), (2, 'Sales')`,
		`INSERT INTO employees VALUES
			(1, 'Alice Chen', 1, 125000, '2021-03-01'),
			(2, 'Bob Diaz', 1, 98000, '2022-07-15'),
			(3, 'Carol Evans', 2, 87000, '2023-01-10')`,
	}

	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	return path
}

func postJSON(t *testing.T, url string, payload interface{}) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)

	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()

	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func connect(t *testing.T, ts *httptest.Server) {
	t.Helper()

	resp := postJSON(t, ts.URL+"/api/connect-database", connectRequest{
		ConnectionString: seedSQLite(t),
	})

	var body connectResponse
	decodeBody(t, resp, &body)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, body.Connected)
	require.Equal(t, 2, body.Tables)
	require.Equal(t, "sqlite", body.Dialect)
}

func TestRootReportsStatus(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)

	var body map[string]interface{}
	decodeBody(t, resp, &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "querylens", body["service"])
	assert.Equal(t, false, body["connected"])
}

func TestQueryRequiresConnection(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/query", queryRequest{Query: "how many employees"})

	var body errorResponse
	decodeBody(t, resp, &body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "connection", body.Type)
	assert.NotEmpty(t, body.Suggestions)
}

func TestConnectValidation(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/connect-database", connectRequest{})

	var body errorResponse
	decodeBody(t, resp, &body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", body.Type)
}

func TestConnectAndQuery(t *testing.T) {
	ts, _ := newTestServer(t)
	connect(t, ts)

	resp := postJSON(t, ts.URL+"/api/query", queryRequest{Query: "How many employees do we have?"})

	var body struct {
		QueryType  string `json:"query_type"`
		SQLResults struct {
			Columns []string        `json:"columns"`
			Rows    [][]interface{} `json:"rows"`
		} `json:"sql_results"`
		GeneratedSQL string `json:"generated_sql"`
		CacheHit     bool   `json:"cache_hit"`
	}
	decodeBody(t, resp, &body)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "sql", body.QueryType)
	assert.Contains(t, body.GeneratedSQL, "COUNT(*)")
	assert.False(t, body.CacheHit)
	require.Equal(t, []string{"total_employees"}, body.SQLResults.Columns)
	require.Len(t, body.SQLResults.Rows, 1)
	assert.EqualValues(t, 3, body.SQLResults.Rows[0][0])
}

func TestQueryCacheHit(t *testing.T) {
	ts, _ := newTestServer(t)
	connect(t, ts)

	first := postJSON(t, ts.URL+"/api/query", queryRequest{Query: "count employees"})
	first.Body.Close()

	resp := postJSON(t, ts.URL+"/api/query", queryRequest{Query: "count employees"})

	var body struct {
		CacheHit bool `json:"cache_hit"`
	}
	decodeBody(t, resp, &body)

	assert.True(t, body.CacheHit)
}

func TestSchemaEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/schema")
	require.NoError(t, err)

	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	connect(t, ts)

	resp, err = http.Get(ts.URL + "/api/schema")
	require.NoError(t, err)

	var model struct {
		Tables  []json.RawMessage `json:"tables"`
		Dialect string            `json:"dialect"`
	}
	decodeBody(t, resp, &model)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, model.Tables, 2)
	assert.Equal(t, "sqlite", model.Dialect)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	connect(t, ts)

	resp := postJSON(t, ts.URL+"/api/query", queryRequest{Query: "how many employees"})
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/api/metrics")
	require.NoError(t, err)

	var body struct {
		Cache struct {
			TotalQueries int64 `json:"total_queries"`
		} `json:"cache"`
		Connected bool `json:"connected"`
	}
	decodeBody(t, resp, &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, body.Connected)
	assert.GreaterOrEqual(t, body.Cache.TotalQueries, int64(1))
}

func TestQueryHistory(t *testing.T) {
	ts, _ := newTestServer(t)
	connect(t, ts)

	resp := postJSON(t, ts.URL+"/api/query", queryRequest{Query: "list all departments"})
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/api/query-history")
	require.NoError(t, err)

	var body struct {
		RecentQueries []string `json:"recent_queries"`
	}
	decodeBody(t, resp, &body)

	assert.Contains(t, body.RecentQueries, "list all departments")
}

func TestClearCache(t *testing.T) {
	ts, session := newTestServer(t)
	connect(t, ts)

	resp := postJSON(t, ts.URL+"/api/query", queryRequest{Query: "count employees"})
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/cache", nil)
	require.NoError(t, err)

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)

	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, session.Cache().Statistics().CurrentSize)
}

func TestDocumentIngestionFlow(t *testing.T) {
	ts, _ := newTestServer(t)

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", "alice_resume.txt")
	require.NoError(t, err)

	_, err = part.Write([]byte("Experience\nFive years of Python development.\n\nSkills\nPython, SQL, AWS"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/documents", mw.FormDataContentType(), &buf)
	require.NoError(t, err)

	var upload uploadResponse
	decodeBody(t, resp, &upload)

	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.NotEmpty(t, upload.JobID)
	assert.Equal(t, 1, upload.Files)

	deadline := time.Now().Add(5 * time.Second)

	for {
		resp, err := http.Get(ts.URL + "/api/ingestion-status/" + upload.JobID)
		require.NoError(t, err)

		var job service.IngestJob
		decodeBody(t, resp, &job)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		if job.Status == service.JobCompleted {
			assert.Equal(t, 1, job.ProcessedFiles)
			break
		}

		require.True(t, time.Now().Before(deadline), "ingestion did not finish: %s", job.Status)
		time.Sleep(20 * time.Millisecond)
	}
}

func TestIngestionStatusUnknownJob(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/ingestion-status/no-such-job")
	require.NoError(t, err)

	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUploadRequiresFiles(t *testing.T) {
	ts, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/documents", mw.FormDataContentType(), &buf)
	require.NoError(t, err)

	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInvalidJSONBody(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/query", "application/json", strings.NewReader("{broken"))
	require.NoError(t, err)

	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusForMapping(t *testing.T) {
	cases := []struct {
		errType string
		status  int
	}{
		{"validation", http.StatusBadRequest},
		{"connection", http.StatusBadRequest},
		{"no_schema", http.StatusConflict},
		{"introspection", http.StatusBadGateway},
		{"execution", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.errType, func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", apperrors.New(apperrors.ErrorType(tc.errType), "boom"))
			assert.Equal(t, tc.status, statusFor(err))
		})
	}
}
