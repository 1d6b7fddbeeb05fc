// Package pgxtest provides in-memory pgx.Rows and Querier fakes so the
// repositories can be tested without a database.
package pgxtest

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Rows is a scripted pgx.Rows
type Rows struct {
	values [][]any
	pos    int
	err    error
	closed bool
}

// NewRows returns rows yielding each value slice in order
func NewRows(values ...[]any) *Rows {
	return &Rows{values: values, pos: -1}
}

// WithErr makes Err report err after iteration
func (r *Rows) WithErr(err error) *Rows {
	r.err = err
	return r
}

func (r *Rows) Close()                                       { r.closed = true }
func (r *Rows) Err() error                                   { return r.err }
func (r *Rows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *Rows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *Rows) RawValues() [][]byte                          { return nil }
func (r *Rows) Conn() *pgx.Conn                              { return nil }

func (r *Rows) Next() bool {
	if r.closed {
		return false
	}
	r.pos++
	if r.pos >= len(r.values) {
		r.closed = true
		return false
	}
	return true
}

func (r *Rows) Values() ([]any, error) {
	if r.pos < 0 || r.pos >= len(r.values) {
		return nil, fmt.Errorf("pgxtest: no current row")
	}
	return r.values[r.pos], nil
}

func (r *Rows) Scan(dest ...any) error {
	if r.pos < 0 || r.pos >= len(r.values) {
		return fmt.Errorf("pgxtest: no current row")
	}
	return scanInto(r.values[r.pos], dest)
}

// Closed reports whether Close was called or iteration finished
func (r *Rows) Closed() bool { return r.closed }

type row struct {
	rows *Rows
	err  error
}

func (r row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	defer r.rows.Close()
	if !r.rows.Next() {
		return pgx.ErrNoRows
	}
	return r.rows.Scan(dest...)
}

// Call is one recorded query
type Call struct {
	SQL  string
	Args []any
}

// Route answers queries whose SQL contains Match
type Route struct {
	Match string
	Rows  func(args []any) *Rows
	Err   error
}

// Querier routes queries by SQL substring and records every call.
// It is safe for concurrent use.
type Querier struct {
	mu     sync.Mutex
	routes []Route
	calls  []Call
}

// NewQuerier creates a Querier answering with routes in order
func NewQuerier(routes ...Route) *Querier {
	return &Querier{routes: routes}
}

// On adds a route returning fixed rows
func (q *Querier) On(match string, values ...[]any) *Querier {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.routes = append(q.routes, Route{Match: match, Rows: func([]any) *Rows { return NewRows(values...) }})
	return q
}

// Fail adds a route returning err
func (q *Querier) Fail(match string, err error) *Querier {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.routes = append(q.routes, Route{Match: match, Err: err})
	return q
}

func (q *Querier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := q.dispatch(sql, args)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (q *Querier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if err := ctx.Err(); err != nil {
		return row{err: err}
	}
	rows, err := q.dispatch(sql, args)
	return row{rows: rows, err: err}
}

func (q *Querier) dispatch(sql string, args []any) (*Rows, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.calls = append(q.calls, Call{SQL: sql, Args: args})
	for _, rt := range q.routes {
		if !strings.Contains(sql, rt.Match) {
			continue
		}
		if rt.Err != nil {
			return nil, rt.Err
		}
		return rt.Rows(args), nil
	}
	return nil, fmt.Errorf("pgxtest: no route for query: %.80s", sql)
}

// Calls returns a copy of the recorded calls
func (q *Querier) Calls() []Call {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Call(nil), q.calls...)
}

// CallsMatching counts recorded calls whose SQL contains match
func (q *Querier) CallsMatching(match string) int {
	n := 0
	for _, c := range q.Calls() {
		if strings.Contains(c.SQL, match) {
			n++
		}
	}
	return n
}

// scanInto assigns src values to dest pointers, converting where reflect
// allows it. A nil source zeroes the destination (or sets a nil pointer).
func scanInto(src []any, dest []any) error {
	if len(src) != len(dest) {
		return fmt.Errorf("pgxtest: %d values, %d destinations", len(src), len(dest))
	}

	for i, d := range dest {
		dv := reflect.ValueOf(d)
		if dv.Kind() != reflect.Ptr || dv.IsNil() {
			return fmt.Errorf("pgxtest: destination %d is not a non-nil pointer", i)
		}
		target := dv.Elem()

		if src[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}

		sv := reflect.ValueOf(src[i])
		if target.Kind() == reflect.Ptr {
			elem := reflect.New(target.Type().Elem())
			if err := assign(elem.Elem(), sv, i); err != nil {
				return err
			}
			target.Set(elem)
			continue
		}
		if err := assign(target, sv, i); err != nil {
			return err
		}
	}
	return nil
}

func assign(target, sv reflect.Value, i int) error {
	switch {
	case sv.Type().AssignableTo(target.Type()):
		target.Set(sv)
	case sv.Kind() == reflect.String && target.Kind() == reflect.String:
		target.SetString(sv.String())
	case isNumeric(sv.Kind()) && isNumeric(target.Kind()):
		target.Set(sv.Convert(target.Type()))
	default:
		return fmt.Errorf("pgxtest: cannot scan %s into %s (column %d)", sv.Type(), target.Type(), i)
	}
	return nil
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
