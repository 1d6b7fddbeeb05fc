package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/dqbreaks/internal/records"
	"github.com/wonny/dqbreaks/pkg/database"
	"github.com/wonny/dqbreaks/pkg/logger"
)

// Error types reported in the "type" field of error payloads
const (
	ErrTypeValidation   = "validation"
	ErrTypeConnectivity = "connectivity"
	ErrTypeQuery        = "query"
	ErrTypeRateLimit    = "rate_limited"
	ErrTypeInternal     = "internal"
	ErrTypeNotFound     = "not_found"
	ErrTypeMethod       = "method_not_allowed"
)

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Error     string `json:"error"`
	Type      string `json:"type"`
	QueryName string `json:"queryName,omitempty"`
	Query     string `json:"query,omitempty"`
	Attempts  int    `json:"attempts,omitempty"`
}

// RespondJSON writes data with the given status
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondError writes a typed error payload
func RespondError(w http.ResponseWriter, status int, errType, message string) {
	RespondJSON(w, status, ErrorResponse{Error: message, Type: errType})
}

// ErrorStatus maps an error to its HTTP status and payload
// ⭐ SSOT: 에러 → HTTP 상태 매핑은 여기서만
func ErrorStatus(err error) (int, ErrorResponse) {
	var (
		paramErr *ParamError
		connErr  *database.ConnectivityError
		queryErr *database.QueryError
	)

	switch {
	case errors.As(err, &paramErr), errors.Is(err, records.ErrDatasetRequired):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Type: ErrTypeValidation}
	case errors.As(err, &connErr):
		return http.StatusServiceUnavailable, ErrorResponse{
			Error:     connErr.Error(),
			Type:      ErrTypeConnectivity,
			QueryName: connErr.Name,
			Query:     connErr.Query,
			Attempts:  connErr.Attempts,
		}
	case errors.As(err, &queryErr):
		return http.StatusInternalServerError, ErrorResponse{
			Error:     queryErr.Error(),
			Type:      ErrTypeQuery,
			QueryName: queryErr.Name,
			Query:     queryErr.Query,
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Type: ErrTypeInternal}
	}
}

// respondErr logs err and writes its mapped response
func respondErr(w http.ResponseWriter, r *http.Request, log *logger.Logger, msg string, err error) {
	status, body := ErrorStatus(err)

	entry := log.WithError(err).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"status": status,
		"type":   body.Type,
	})
	switch {
	case errors.Is(err, context.Canceled):
		entry.Debug(msg + " (client gone)")
	case status < 500:
		entry.Warn(msg)
	default:
		entry.Error(msg)
	}

	RespondJSON(w, status, body)
}
