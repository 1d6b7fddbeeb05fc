package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ConnectivityError reports that the database could not be reached (or timed
// out) for every attempt the retry policy allowed.
type ConnectivityError struct {
	Name     string
	Query    string
	Attempts int
	Err      error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: database unreachable after %d attempt(s): %v", e.Name, e.Attempts, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// QueryError reports a query the server rejected. It is never retried and
// carries the statement text for diagnostics.
type QueryError struct {
	Name  string
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: query failed: %v", e.Name, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// IsConnectivityError reports whether err looks like a transport or timeout
// failure rather than a rejected statement.
func IsConnectivityError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 08xxx connection_exception, 57P0x shutdown / cannot_connect_now,
		// 57014 statement timeout, 53300 too_many_connections
		return strings.HasPrefix(pgErr.Code, "08") ||
			strings.HasPrefix(pgErr.Code, "57P0") ||
			pgErr.Code == "57014" ||
			pgErr.Code == "53300"
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	return pgconn.SafeToRetry(err)
}
