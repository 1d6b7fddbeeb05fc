package records

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/dqbreaks/internal/contracts"
	"github.com/wonny/dqbreaks/pkg/database"
)

// Repository lists datasets and pages their break records
// ⭐ SSOT: rule_breaks 조회는 여기서만
type Repository struct {
	exec        *database.Executor
	maxPageSize int
}

// NewRepository creates a new records repository
func NewRepository(exec *database.Executor, maxPageSize int) *Repository {
	return &Repository{exec: exec, maxPageSize: maxPageSize}
}

// ListDatasets returns the (dataset, run_id, linkid) triples of the latest
// breaking run of every dataset with breaks since w.Since. Unordered.
func (r *Repository) ListDatasets(ctx context.Context, w contracts.Window) ([]contracts.DatasetRun, error) {
	return database.Collect(ctx, r.exec, QueryListDatasets, listDatasetsSQL, []any{w.Since},
		func(row pgx.CollectableRow) (contracts.DatasetRun, error) {
			var (
				run    contracts.DatasetRun
				linkID *string
			)
			err := row.Scan(&run.Dataset, &run.RunID, &linkID)
			if linkID != nil {
				run.LinkID = *linkID
			}
			return run, err
		})
}

// ParseDataset returns one page of flattened break records.
// An unknown dataset yields an empty page, not an error.
func (r *Repository) ParseDataset(ctx context.Context, req PageRequest) (*contracts.RecordPage, error) {
	req = req.Normalize(r.maxPageSize)
	if req.Dataset == "" {
		return nil, ErrDatasetRequired
	}

	pagination := contracts.NewPagination(req.Page, req.PageSize, 0)
	params := contracts.QueryParameters{
		Dataset:       req.Dataset,
		DateThreshold: req.Window.Since,
		PageSize:      req.PageSize,
		Offset:        pagination.Offset(),
	}

	page := &contracts.RecordPage{
		Rows:       []contracts.Record{},
		Columns:    append([]string{}, contracts.FixedColumns...),
		ListQuery:  countSQL,
		ParseQuery: pageSQL,
		Parameters: params,
	}

	var total int64
	if err := r.exec.QueryRow(ctx, QueryCount, countSQL, []any{req.Dataset, req.Window.Since}, &total); err != nil {
		return nil, err
	}
	page.Pagination = contracts.NewPagination(req.Page, req.PageSize, total)

	header, err := r.header(ctx, req.Dataset)
	if err != nil {
		return nil, err
	}
	page.Columns = append(page.Columns, header.Columns()...)

	if page.Pagination.PastEnd() {
		return page, nil
	}

	rows, err := database.Collect(ctx, r.exec, QueryPage, pageSQL,
		[]any{req.Dataset, req.Window.Since, req.PageSize, params.Offset}, scanBreak)
	if err != nil {
		return nil, err
	}

	page.Rows, page.Columns = Flatten(header, rows)
	return page, nil
}

// header reads the dataset's link header; a dataset without one gets an
// empty header and overflow columns only
func (r *Repository) header(ctx context.Context, dataset string) (Header, error) {
	found, err := database.Collect(ctx, r.exec, QueryHeader, headerSQL, []any{dataset}, pgx.RowTo[string])
	if err != nil {
		return Header{}, err
	}
	if len(found) == 0 {
		return ParseHeader(""), nil
	}
	return ParseHeader(found[0]), nil
}

func scanBreak(row pgx.CollectableRow) (Break, error) {
	var (
		b      Break
		ruleNm *string
		linkID *string
		runID  *time.Time
	)
	err := row.Scan(&b.Dataset, &runID, &ruleNm, &linkID)
	if runID != nil {
		b.RunID = *runID
	}
	if ruleNm != nil {
		b.RuleNm = *ruleNm
	}
	if linkID != nil {
		b.LinkID = *linkID
	}
	return b, err
}
