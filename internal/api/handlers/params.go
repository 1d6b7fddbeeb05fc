package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ParamError is a rejected query parameter
type ParamError struct {
	Param  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

// ParseDays reads a day count in [1, max]. Absent means def; anything
// non-numeric or out of range is rejected rather than widened.
func ParseDays(raw string, def, max int) (int, error) {
	n, err := parseInt("days", raw, def)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, &ParamError{Param: "days", Reason: "must be a positive integer"}
	}
	if max > 0 && n > max {
		return 0, &ParamError{Param: "days", Reason: fmt.Sprintf("must be at most %d", max)}
	}
	return n, nil
}

// parsePositive reads a positive integer parameter, def when absent
func parsePositive(r *http.Request, name string, def int) (int, error) {
	n, err := parseInt(name, r.URL.Query().Get(name), def)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, &ParamError{Param: name, Reason: "must be a positive integer"}
	}
	return n, nil
}

func parseInt(name, raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ParamError{Param: name, Reason: fmt.Sprintf("%q is not an integer", raw)}
	}
	return n, nil
}

func parseBool(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &ParamError{Param: name, Reason: fmt.Sprintf("%q is not a boolean", raw)}
	}
	return b, nil
}
