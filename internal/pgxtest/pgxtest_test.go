package pgxtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type label string

func TestRowsScan(t *testing.T) {
	day := time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)
	rows := NewRows(
		[]any{"PASSING", int64(3), day, nil},
		[]any{"BREAKING", 7, day, "note"},
	)

	var (
		status label
		count  int64
		date   time.Time
		note   *string
	)

	require.True(t, rows.Next())
	require.NoError(t, rows.Scan(&status, &count, &date, &note))
	assert.Equal(t, label("PASSING"), status)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, day, date)
	assert.Nil(t, note)

	require.True(t, rows.Next())
	require.NoError(t, rows.Scan(&status, &count, &date, &note))
	assert.Equal(t, int64(7), count)
	require.NotNil(t, note)
	assert.Equal(t, "note", *note)

	assert.False(t, rows.Next())
	assert.True(t, rows.Closed())
}

func TestRowsScanMismatch(t *testing.T) {
	rows := NewRows([]any{"x"})
	require.True(t, rows.Next())

	var n int
	assert.Error(t, rows.Scan(&n))

	var a, b string
	assert.Error(t, rows.Scan(&a, &b))
}

func TestQuerierRouting(t *testing.T) {
	q := NewQuerier().
		On("-- name: one", []any{int64(1)}).
		Fail("-- name: broken", errors.New("boom"))

	var n int64
	require.NoError(t, q.QueryRow(context.Background(), "-- name: one\nSELECT 1").Scan(&n))
	assert.Equal(t, int64(1), n)

	_, err := q.Query(context.Background(), "-- name: broken\nSELECT")
	assert.EqualError(t, err, "boom")

	_, err = q.Query(context.Background(), "SELECT unknown")
	assert.Error(t, err)

	assert.Len(t, q.Calls(), 3)
	assert.Equal(t, 1, q.CallsMatching("-- name: one"))
}

func TestQueryRowNoRows(t *testing.T) {
	q := NewQuerier().On("-- name: empty")

	var n int64
	err := q.QueryRow(context.Background(), "-- name: empty").Scan(&n)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestQuerierHonoursCancelledContext(t *testing.T) {
	q := NewQuerier().On("x", []any{1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Query(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, q.Calls())
}
