package records

import (
	"errors"
	"sort"
	"strings"

	"github.com/wonny/dqbreaks/internal/contracts"
)

// ErrDatasetRequired is returned when a page is requested without a dataset
var ErrDatasetRequired = errors.New("dataset parameter is required")

// PageRequest selects one page of a dataset's breaks
type PageRequest struct {
	Dataset  string
	Window   contracts.Window
	Page     int
	PageSize int
}

// Normalize clamps Page to >= 1 and PageSize to [1, maxPageSize].
// A page past the end is kept as requested and yields an empty row set.
func (r PageRequest) Normalize(maxPageSize int) PageRequest {
	r.Dataset = strings.TrimSpace(r.Dataset)
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = 1
	}
	if maxPageSize > 0 && r.PageSize > maxPageSize {
		r.PageSize = maxPageSize
	}
	return r
}

// DistinctDatasets returns the unique dataset names of runs, ascending
func DistinctDatasets(runs []contracts.DatasetRun) []string {
	seen := make(map[string]bool, len(runs))
	out := make([]string, 0, len(runs))
	for _, r := range runs {
		if r.Dataset == "" || seen[r.Dataset] {
			continue
		}
		seen[r.Dataset] = true
		out = append(out, r.Dataset)
	}
	sort.Strings(out)
	return out
}
