package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dqbreaks/internal/contracts"
	"github.com/wonny/dqbreaks/internal/pgxtest"
	"github.com/wonny/dqbreaks/internal/records"
	"github.com/wonny/dqbreaks/pkg/database"
	"github.com/wonny/dqbreaks/pkg/logger"
)

func newDatasetsHandler(svc RecordsService) *DatasetsHandler {
	h := NewDatasetsHandler(svc, testCfg(), logger.Nop())
	h.now = func() time.Time { return fixedNow }
	return h
}

func TestDatasetsList(t *testing.T) {
	svc := &fakeRecords{runs: []contracts.DatasetRun{
		{Dataset: "D2", LinkID: "a~|b"},
		{Dataset: "D1"},
		{Dataset: "D2", LinkID: "c"},
	}}
	h := newDatasetsHandler(svc)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/datasets", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	runs := decode[[]map[string]any](t, rec)
	assert.Len(t, runs, 3)

	require.Len(t, svc.windows, 1)
	assert.Equal(t, 1, svc.windows[0].Days)
	assert.Equal(t, contracts.NewWindow(1, fixedNow), svc.windows[0])
}

func TestDatasetsListDistinct(t *testing.T) {
	svc := &fakeRecords{runs: []contracts.DatasetRun{{Dataset: "D2"}, {Dataset: "D1"}, {Dataset: "D2"}}}
	h := newDatasetsHandler(svc)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/datasets?distinct=true&days=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"D1", "D2"}, decode[[]string](t, rec))
	assert.Equal(t, 5, svc.windows[0].Days)
}

func TestDatasetsListRejectsBadParams(t *testing.T) {
	for _, q := range []string{"days=abc", "days=0", "days=-3", "days=9999", "distinct=maybe"} {
		t.Run(q, func(t *testing.T) {
			svc := &fakeRecords{}
			rec := httptest.NewRecorder()
			newDatasetsHandler(svc).List(rec, httptest.NewRequest(http.MethodGet, "/api/datasets?"+q, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, ErrTypeValidation, decode[ErrorResponse](t, rec).Type)
			assert.Empty(t, svc.windows, "no query for a rejected request")
		})
	}
}

func TestDatasetsParse(t *testing.T) {
	svc := &fakeRecords{page: &contracts.RecordPage{
		Rows:       []contracts.Record{{"dataset": "D2", "run_id": "x", "rule_nm": "r1"}},
		Columns:    []string{"dataset", "run_id", "rule_nm"},
		Pagination: contracts.NewPagination(2, 10, 11),
		ListQuery:  "-- name: countBreaks",
		ParseQuery: "-- name: pageBreaks",
	}}
	h := newDatasetsHandler(svc)

	rec := httptest.NewRecorder()
	h.Parse(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/parse?dataset=D2&page=2&pageSize=10&days=3", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Contains(t, body, "listQuery")
	assert.Contains(t, body, "parseQuery")
	assert.Equal(t, float64(2), body["pagination"].(map[string]any)["totalPages"])

	require.Len(t, svc.reqs, 1)
	req := svc.reqs[0]
	assert.Equal(t, "D2", req.Dataset)
	assert.Equal(t, 2, req.Page)
	assert.Equal(t, 10, req.PageSize)
	assert.Equal(t, 3, req.Window.Days)
}

func TestDatasetsParseDefaults(t *testing.T) {
	svc := &fakeRecords{page: &contracts.RecordPage{}}
	rec := httptest.NewRecorder()
	newDatasetsHandler(svc).Parse(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/parse?dataset=D2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.reqs, 1)
	assert.Equal(t, 1, svc.reqs[0].Page)
	assert.Equal(t, 100, svc.reqs[0].PageSize)
	assert.Equal(t, 1, svc.reqs[0].Window.Days)
}

func TestDatasetsParseValidation(t *testing.T) {
	for _, q := range []string{"", "dataset=D2&page=0", "dataset=D2&pageSize=-5", "dataset=D2&page=x"} {
		t.Run(q, func(t *testing.T) {
			svc := &fakeRecords{}
			rec := httptest.NewRecorder()
			newDatasetsHandler(svc).Parse(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/parse?"+q, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, svc.reqs)
		})
	}
}

func TestDatasetsParseMaxIntPage(t *testing.T) {
	q := pgxtest.NewQuerier().
		On("-- name: countBreaks", []any{int64(3)}).
		On("-- name: datasetHeader", []any{"key~|region"})
	repo := records.NewRepository(database.NewExecutor(q, database.RetryPolicy{Attempts: 1}, logger.Nop(), nil), 1000)

	target := fmt.Sprintf("/api/datasets/parse?dataset=D2&page=%d", math.MaxInt)
	rec := httptest.NewRecorder()
	newDatasetsHandler(repo).Parse(rec, httptest.NewRequest(http.MethodGet, target, nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[contracts.RecordPage](t, rec)
	assert.Empty(t, page.Rows)
	assert.Equal(t, math.MaxInt, page.Pagination.Page)
	assert.Equal(t, int64(1), page.Pagination.TotalPages)
	assert.Equal(t, 0, q.CallsMatching("-- name: pageBreaks"))
}

func TestDatasetsErrorMapping(t *testing.T) {
	t.Run("connectivity", func(t *testing.T) {
		svc := &fakeRecords{err: &database.ConnectivityError{Name: "countBreaks", Query: "SELECT COUNT(*) FROM rule_breaks", Attempts: 3, Err: errors.New("dial tcp: refused")}}
		rec := httptest.NewRecorder()
		newDatasetsHandler(svc).Parse(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/parse?dataset=D2", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decode[ErrorResponse](t, rec)
		assert.Equal(t, ErrTypeConnectivity, body.Type)
		assert.Equal(t, 3, body.Attempts)
		assert.Equal(t, "countBreaks", body.QueryName)
		assert.Equal(t, "SELECT COUNT(*) FROM rule_breaks", body.Query)
	})

	t.Run("query", func(t *testing.T) {
		svc := &fakeRecords{err: &database.QueryError{Name: "listDatasets", Query: "SELECT broken", Err: errors.New("syntax error")}}
		rec := httptest.NewRecorder()
		newDatasetsHandler(svc).List(rec, httptest.NewRequest(http.MethodGet, "/api/datasets", nil))

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decode[ErrorResponse](t, rec)
		assert.Equal(t, ErrTypeQuery, body.Type)
		assert.Equal(t, "SELECT broken", body.Query)
		assert.Contains(t, body.Error, "syntax error")
	})
}
