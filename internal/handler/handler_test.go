package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chartq/backend/internal/llm"
	"chartq/backend/internal/model"
	"chartq/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type mockChartQuerier struct {
	queryFunc func(ctx context.Context, req model.ChartQueryRequest) (model.ChartQueryResponse, error)
}

func (m *mockChartQuerier) Query(ctx context.Context, req model.ChartQueryRequest) (model.ChartQueryResponse, error) {
	return m.queryFunc(ctx, req)
}

type mockDBClient struct {
	listTablesFunc  func(schema string) ([]string, error)
	listColumnsFunc func(schema, table string) ([]model.ColumnDescriptor, error)
	listQueriesFunc func(limit int) ([]model.QueryRecord, error)
}

func (m *mockDBClient) ListTables(schema string) ([]string, error) {
	if m.listTablesFunc != nil {
		return m.listTablesFunc(schema)
	}
	return nil, nil
}
func (m *mockDBClient) ListColumns(schema, table string) ([]model.ColumnDescriptor, error) {
	if m.listColumnsFunc != nil {
		return m.listColumnsFunc(schema, table)
	}
	return nil, nil
}
func (m *mockDBClient) ListQueries(limit int) ([]model.QueryRecord, error) {
	if m.listQueriesFunc != nil {
		return m.listQueriesFunc(limit)
	}
	return nil, nil
}

const salesBody = `{"prompt": "Show sales over time", "columns_info": [{"name": "date", "type": "string", "sample": "2024-01-01"}, {"name": "sales", "type": "number", "sample": "123.45"}]}`

func TestQueryHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		body         string
		queryFunc    func(ctx context.Context, req model.ChartQueryRequest) (model.ChartQueryResponse, error)
		expectedCode int
		expectedBody string
	}{
		{
			name:         "invalid json",
			body:         `{"prompt": `, // malformed
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"detail":"Invalid request"}`,
		},
		{
			name: "provider failure",
			body: salesBody,
			queryFunc: func(ctx context.Context, req model.ChartQueryRequest) (model.ChartQueryResponse, error) {
				return model.ChartQueryResponse{}, &service.QueryError{Step: service.StepChartSpec, Err: errors.New("rate limited")}
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"detail":"Error processing request: chart_spec: rate limited"}`,
		},
		{
			name: "success",
			body: salesBody,
			queryFunc: func(ctx context.Context, req model.ChartQueryRequest) (model.ChartQueryResponse, error) {
				return model.ChartQueryResponse{ChartSpec: `{"mark":"line"}`, ChartDescription: "Sales grow."}, nil
			},
			expectedCode: http.StatusOK,
			expectedBody: `{"vega_lite_spec":"{\"mark\":\"line\"}","chart_description":"Sales grow."}`,
		},
		{
			name: "missing columns are accepted",
			body: `{"prompt": "anything"}`,
			queryFunc: func(ctx context.Context, req model.ChartQueryRequest) (model.ChartQueryResponse, error) {
				return model.ChartQueryResponse{ChartSpec: "A", ChartDescription: "B"}, nil
			},
			expectedCode: http.StatusOK,
			expectedBody: `{"vega_lite_spec":"A","chart_description":"B"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := New(&mockChartQuerier{queryFunc: tc.queryFunc}, nil)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest("POST", "/query", bytes.NewBufferString(tc.body))
			c.Request.Header.Set("Content-Type", "application/json")

			h.QueryHandler(c)

			assert.Equal(t, tc.expectedCode, w.Code)
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
		})
	}
}

func TestQueryHandlerDecodesRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var got model.ChartQueryRequest
	h := New(&mockChartQuerier{queryFunc: func(ctx context.Context, req model.ChartQueryRequest) (model.ChartQueryResponse, error) {
		got = req
		return model.ChartQueryResponse{}, nil
	}}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("POST", "/query", bytes.NewBufferString(salesBody))
	c.Request.Header.Set("Content-Type", "application/json")

	h.QueryHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.ChartQueryRequest{
		Prompt: "Show sales over time",
		Columns: []model.ColumnDescriptor{
			{Name: "date", Type: "string", Sample: "2024-01-01"},
			{Name: "sales", Type: "number", Sample: "123.45"},
		},
	}, got)
}

// TestQueryHandlerWithChartService runs the handler over the real two-step
// chain with a scripted provider.
func TestQueryHandlerWithChartService(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name          string
		answers       []error // nil means success
		expectedCode  int
		expectedBody  string
		expectedCalls int
	}{
		{
			name:          "both calls succeed",
			answers:       []error{nil, nil},
			expectedCode:  http.StatusOK,
			expectedBody:  `{"vega_lite_spec":"answer-1","chart_description":"answer-2"}`,
			expectedCalls: 2,
		},
		{
			name:          "first call fails",
			answers:       []error{errors.New("connection refused"), nil},
			expectedCode:  http.StatusInternalServerError,
			expectedBody:  `{"detail":"Error processing request: chart_spec: connection refused"}`,
			expectedCalls: 1,
		},
		{
			name: "second call fails",
			answers: []error{nil, &llm.Error{
				Kind:  llm.KindMissingField,
				Model: "gpt-3.5-turbo",
				Err:   llm.ErrNoChoices,
			}},
			expectedCode:  http.StatusInternalServerError,
			expectedBody:  `{"detail":"Error processing request: chart_description: missing field in gpt-3.5-turbo response: no choices returned by model"}`,
			expectedCalls: 2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			completer := llm.CompleterFunc(func(ctx context.Context, system, user string) (string, error) {
				calls++
				if err := tc.answers[calls-1]; err != nil {
					return "", err
				}
				return fmt.Sprintf("answer-%d", calls), nil
			})
			h := New(service.NewChartService(completer, nil), nil)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest("POST", "/query", bytes.NewBufferString(salesBody))
			c.Request.Header.Set("Content-Type", "application/json")

			h.QueryHandler(c)

			assert.Equal(t, tc.expectedCode, w.Code)
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
			assert.Equal(t, tc.expectedCalls, calls)
			if tc.expectedCode != http.StatusOK {
				assert.NotContains(t, w.Body.String(), "answer-1")
			}
		})
	}
}

func TestListTablesHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		db           service.DBClient
		query        string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "no database",
			db:           nil,
			expectedCode: http.StatusServiceUnavailable,
			expectedBody: `{"detail":"No database configured"}`,
		},
		{
			name: "list tables error",
			db: &mockDBClient{listTablesFunc: func(schema string) ([]string, error) {
				return nil, errors.New("fail")
			}},
			query:        "schema=myschema",
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"detail":"Failed to list tables: fail"}`,
		},
		{
			name: "tables is nil",
			db: &mockDBClient{listTablesFunc: func(schema string) ([]string, error) {
				return nil, nil
			}},
			expectedCode: http.StatusOK,
			expectedBody: `{"tables":[]}`,
		},
		{
			name: "tables list",
			db: &mockDBClient{listTablesFunc: func(schema string) ([]string, error) {
				if schema != "public" {
					return nil, errors.New("unexpected schema " + schema)
				}
				return []string{"orders", "sales"}, nil
			}},
			expectedCode: http.StatusOK,
			expectedBody: `{"tables":["orders","sales"]}`,
		},
		{
			name: "blank schema falls back to public",
			db: &mockDBClient{listTablesFunc: func(schema string) ([]string, error) {
				if schema != "public" {
					return nil, errors.New("unexpected schema " + schema)
				}
				return []string{"sales"}, nil
			}},
			query:        "schema=",
			expectedCode: http.StatusOK,
			expectedBody: `{"tables":["sales"]}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := New(nil, tc.db)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest("GET", "/tables?"+tc.query, nil)

			h.ListTablesHandler(c)

			assert.Equal(t, tc.expectedCode, w.Code)
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
		})
	}
}

func TestListColumnsHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		db           service.DBClient
		query        string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "no database",
			db:           nil,
			query:        "table=sales",
			expectedCode: http.StatusServiceUnavailable,
			expectedBody: `{"detail":"No database configured"}`,
		},
		{
			name:         "missing table param",
			db:           &mockDBClient{},
			query:        "",
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"detail":"Missing 'table' query parameter"}`,
		},
		{
			name: "invalid identifier",
			db: &mockDBClient{listColumnsFunc: func(schema, table string) ([]model.ColumnDescriptor, error) {
				if table != "sales;drop" {
					return nil, errors.New("unexpected table " + table)
				}
				return nil, service.ErrInvalidIdentifier
			}},
			query:        "table=sales%3Bdrop",
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"detail":"Invalid schema or table name"}`,
		},
		{
			name: "table not found",
			db: &mockDBClient{listColumnsFunc: func(schema, table string) ([]model.ColumnDescriptor, error) {
				return nil, service.ErrTableNotFound
			}},
			query:        "schema=analytics&table=nope",
			expectedCode: http.StatusNotFound,
			expectedBody: `{"detail":"Table not found: analytics.nope"}`,
		},
		{
			name: "blank schema falls back to public",
			db: &mockDBClient{listColumnsFunc: func(schema, table string) ([]model.ColumnDescriptor, error) {
				if schema != "public" {
					return nil, errors.New("unexpected schema " + schema)
				}
				return nil, service.ErrTableNotFound
			}},
			query:        "schema=&table=nope",
			expectedCode: http.StatusNotFound,
			expectedBody: `{"detail":"Table not found: public.nope"}`,
		},
		{
			name: "db error",
			db: &mockDBClient{listColumnsFunc: func(schema, table string) ([]model.ColumnDescriptor, error) {
				return nil, errors.New("fail")
			}},
			query:        "table=sales",
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"detail":"Failed to fetch columns: fail"}`,
		},
		{
			name: "success",
			db: &mockDBClient{listColumnsFunc: func(schema, table string) ([]model.ColumnDescriptor, error) {
				return []model.ColumnDescriptor{
					{Name: "date", Type: "date", Sample: "2024-01-01"},
					{Name: "sales", Type: "numeric", Sample: "123.45"},
				}, nil
			}},
			query:        "schema=public&table=sales",
			expectedCode: http.StatusOK,
			expectedBody: `{"columns_info":[{"name":"date","type":"date","sample":"2024-01-01"},{"name":"sales","type":"numeric","sample":"123.45"}]}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := New(nil, tc.db)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest("GET", "/columns?"+tc.query, nil)

			h.ListColumnsHandler(c)

			assert.Equal(t, tc.expectedCode, w.Code)
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
		})
	}
}

func TestListQueriesHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name            string
		noDB            bool
		query           string
		listQueriesFunc func(limit int) ([]model.QueryRecord, error)
		expectedLimit   int
		expectedCode    int
		expectedBody    string
	}{
		{
			name:         "no database",
			noDB:         true,
			expectedCode: http.StatusServiceUnavailable,
			expectedBody: `{"detail":"No database configured"}`,
		},
		{
			name:  "db error",
			query: "limit=5",
			listQueriesFunc: func(limit int) ([]model.QueryRecord, error) {
				return nil, errors.New("fail")
			},
			expectedLimit: 5,
			expectedCode:  http.StatusInternalServerError,
			expectedBody:  `{"detail":"Failed to fetch query history: fail"}`,
		},
		{
			name:  "empty history",
			query: "limit=abc",
			listQueriesFunc: func(limit int) ([]model.QueryRecord, error) {
				return nil, nil
			},
			expectedLimit: defaultHistoryLimit,
			expectedCode:  http.StatusOK,
			expectedBody:  `{"queries":[]}`,
		},
		{
			name:  "history capped",
			query: "limit=1000",
			listQueriesFunc: func(limit int) ([]model.QueryRecord, error) {
				return []model.QueryRecord{{
					ID: 1, RequestID: "req-1", Prompt: "q", Columns: []model.ColumnDescriptor{},
					ChartSpec: "A", ChartDescription: "B", DurationMS: 900, CreatedAt: created,
				}}, nil
			},
			expectedLimit: maxHistoryLimit,
			expectedCode:  http.StatusOK,
			expectedBody: `{"queries":[{"id":1,"request_id":"req-1","prompt":"q","columns_info":[],` +
				`"vega_lite_spec":"A","chart_description":"B","duration_ms":900,"created_at":"2024-05-01T12:00:00Z"}]}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var db service.DBClient
			if !tc.noDB {
				db = &mockDBClient{listQueriesFunc: func(limit int) ([]model.QueryRecord, error) {
					assert.Equal(t, tc.expectedLimit, limit)
					return tc.listQueriesFunc(limit)
				}}
			}

			h := New(nil, db)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest("GET", "/queries?"+tc.query, nil)

			h.ListQueriesHandler(c)

			assert.Equal(t, tc.expectedCode, w.Code)
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
		})
	}
}
