package contracts

import (
	"math"
	"time"
)

// Fixed leading columns of every flattened record
const (
	ColumnDataset = "dataset"
	ColumnRunID   = "run_id"
	ColumnRuleNm  = "rule_nm"
)

// FixedColumns precede the dataset specific columns
var FixedColumns = []string{ColumnDataset, ColumnRunID, ColumnRuleNm}

// DatasetRun is one (dataset, run, link header) triple
type DatasetRun struct {
	Dataset string    `json:"dataset"`
	RunID   time.Time `json:"run_id"`
	LinkID  string    `json:"linkid"`
}

// Pagination describes one page of a record listing
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int64 `json:"totalPages"`
}

// NewPagination computes TotalPages = ceil(total / pageSize)
func NewPagination(page, pageSize int, total int64) Pagination {
	p := Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	if pageSize > 0 {
		p.TotalPages = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return p
}

// Offset is the row offset of Page, saturating at math.MaxInt64
func (p Pagination) Offset() int64 {
	if p.Page < 1 || p.PageSize < 1 {
		return 0
	}
	skipped, size := int64(p.Page-1), int64(p.PageSize)
	if skipped > math.MaxInt64/size {
		return math.MaxInt64
	}
	return skipped * size
}

// PastEnd reports whether Page lies beyond the last page
func (p Pagination) PastEnd() bool {
	return int64(p.Page) > p.TotalPages
}

// Record is one flattened rule break keyed by column name
type Record map[string]string

// QueryParameters echoes the bind values of a parse request
type QueryParameters struct {
	Dataset       string    `json:"dataset"`
	DateThreshold time.Time `json:"date_threshold"`
	PageSize      int       `json:"page_size"`
	Offset        int64     `json:"offset"`
}

// RecordPage is one page of flattened records for a dataset.
// ListQuery and ParseQuery are the statements actually executed.
type RecordPage struct {
	Rows       []Record        `json:"rows"`
	Columns    []string        `json:"columns"`
	Pagination Pagination      `json:"pagination"`
	ListQuery  string          `json:"listQuery"`
	ParseQuery string          `json:"parseQuery"`
	Parameters QueryParameters `json:"parameters"`
}
