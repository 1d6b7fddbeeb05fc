package aggregate

import "github.com/wonny/dqbreaks/internal/contracts"

// Query names, used for timings, metrics and error payloads
const (
	QueryGlobalHealth  = "globalHealth"
	QueryTimeSeries    = "timeSeries"
	QueryDimensions    = "dimensions"
	QueryBusinessUnits = "businessUnits"
)

// statusCase must evaluate in the same order as contracts.Classify
const statusCase = `CASE
				WHEN length(a.exception) > 1 THEN 'EXCEPTION'
				WHEN a.score = 0 AND (a.exception IS NULL OR a.exception = '') THEN 'PASSING'
				WHEN a.score > 0 THEN 'BREAKING'
				ELSE 'UNKNOWN'
			END`

// baseCTE is the classified base relation f shared by every aggregate.
//
//	$1 window start date, $2 window end date, $3 schema freshness instant
const baseCTE = `
	WITH a AS (
		SELECT * FROM rule_output
		WHERE run_id::date >= $1::date
		AND run_id::date <= $2::date
	),
	b AS (
		SELECT * FROM dataset_scan
		WHERE rc > 1
		AND run_id::date >= $1::date
	),
	c AS (
		SELECT * FROM owl_rule
	),
	e AS (
		SELECT * FROM dq_dimension
	),
	g AS (
		SELECT * FROM owl_catalog
	),
	h AS (
		SELECT * FROM business_unit_to_dataset
	),
	i AS (
		SELECT * FROM business_units
	),
	j AS (
		SELECT DISTINCT dataset, col_nm, col_semantic
		FROM dataset_schema
		WHERE updated_at >= $3::timestamptz
	),
	f AS (
		SELECT
			a.dataset,
			a.rule_nm,
			a.score AS rule_point,
			` + statusCase + ` AS status,
			COALESCE(e.dim_name, 'UNSPECIFIED') AS dim_name,
			i.name AS business_unit,
			a.run_id::date AS run_date
		FROM a
		LEFT JOIN b ON a.dataset = b.dataset AND a.run_id::date = b.run_id::date
		INNER JOIN c ON a.dataset = c.dataset AND a.rule_nm = c.rule_nm
		LEFT JOIN e ON e.dim_id = c.dim_id
		INNER JOIN g ON g.dataset = a.dataset
		LEFT JOIN h ON h.dataset = g.dataset
		LEFT JOIN i ON i.id = h.id
		LEFT JOIN j ON a.dataset = j.dataset AND c.column_name = j.col_nm
	)`

// Aggregate statements. None of them orders its output; ordering belongs
// to the presentation layer.
var (
	globalHealthSQL = "-- name: " + QueryGlobalHealth + baseCTE + `
	SELECT status, COUNT(*) AS cnt
	FROM f
	GROUP BY status`

	timeSeriesSQL = "-- name: " + QueryTimeSeries + baseCTE + `
	SELECT status, COUNT(*) AS cnt, run_date
	FROM f
	GROUP BY status, run_date`

	dimensionsSQL = "-- name: " + QueryDimensions + baseCTE + `
	SELECT dim_name, status, COUNT(*) AS cnt
	FROM f
	GROUP BY dim_name, status`

	businessUnitsSQL = "-- name: " + QueryBusinessUnits + baseCTE + `
	SELECT business_unit, status, COUNT(*) AS cnt
	FROM f
	WHERE business_unit IS NOT NULL
	AND btrim(business_unit) <> ''
	GROUP BY business_unit, status`
)

// windowArgs binds a window to $1..$3 of baseCTE
func windowArgs(w contracts.Window) []any {
	return []any{w.From, w.To, w.Since}
}

// Statements returns the statement text per query name (dashboard --sql)
func Statements() map[string]string {
	return map[string]string{
		QueryGlobalHealth:  globalHealthSQL,
		QueryTimeSeries:    timeSeriesSQL,
		QueryDimensions:    dimensionsSQL,
		QueryBusinessUnits: businessUnitsSQL,
	}
}
