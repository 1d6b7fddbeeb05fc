package diagnostics

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/dqbreaks/pkg/database"
)

// QuerySchemaColumns names the information_schema lookup
const QuerySchemaColumns = "schemaColumns"

// SchemaTables are the source tables reported by /api/schema
var SchemaTables = []string{"dataset_scan", "dataset_schema", "owl_catalog"}

// current_schema() follows the search_path set on the pool
const schemaColumnsSQL = `-- name: schemaColumns
SELECT table_name::text,
       column_name::text,
       data_type::text,
       character_maximum_length::int
FROM information_schema.columns
WHERE table_schema = current_schema()
  AND table_name = ANY($1)
ORDER BY table_name, ordinal_position`

// Column describes one column of a source table
type Column struct {
	Column    string `json:"column"`
	Type      string `json:"type"`
	MaxLength *int32 `json:"max_length"`
}

// SchemaInspector reads column metadata of the source tables
type SchemaInspector struct {
	exec *database.Executor
}

// NewSchemaInspector creates a new inspector
func NewSchemaInspector(exec *database.Executor) *SchemaInspector {
	return &SchemaInspector{exec: exec}
}

type tableColumn struct {
	table string
	Column
}

// Columns returns the columns of every table in SchemaTables keyed by table
// name. Missing tables map to an empty list.
func (s *SchemaInspector) Columns(ctx context.Context) (map[string][]Column, error) {
	rows, err := database.Collect(ctx, s.exec, QuerySchemaColumns, schemaColumnsSQL, []any{SchemaTables},
		func(row pgx.CollectableRow) (tableColumn, error) {
			var c tableColumn
			err := row.Scan(&c.table, &c.Column.Column, &c.Type, &c.MaxLength)
			return c, err
		})
	if err != nil {
		return nil, err
	}

	out := make(map[string][]Column, len(SchemaTables))
	for _, t := range SchemaTables {
		out[t] = []Column{}
	}
	for _, r := range rows {
		out[r.table] = append(out[r.table], r.Column)
	}
	return out, nil
}
