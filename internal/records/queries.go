package records

// Query names
const (
	QueryListDatasets = "listDatasets"
	QueryHeader       = "datasetHeader"
	QueryCount        = "countBreaks"
	QueryPage         = "pageBreaks"
)

// listDatasetsSQL returns the latest breaking run per dataset among datasets
// with breaks since $1. Unordered.
const listDatasetsSQL = `-- name: listDatasets
	WITH li AS (
		SELECT dataset, linkid FROM opt_owl WHERE linkid IS NOT NULL
	),
	lr AS (
		SELECT max(run_id) AS run_id, dataset
		FROM rule_output
		GROUP BY dataset
	)
	SELECT DISTINCT ro.dataset, ro.run_id, li.linkid
	FROM li
	INNER JOIN rule_output ro ON li.dataset = ro.dataset
	INNER JOIN lr ON lr.dataset = ro.dataset AND lr.run_id = ro.run_id
	WHERE ro.score > 0
	AND ro.dataset IN (
		SELECT dataset
		FROM rule_breaks
		WHERE run_id >= $1
	)`

// headerSQL fetches the link header declared for a dataset
const headerSQL = `-- name: datasetHeader
	SELECT linkid
	FROM opt_owl
	WHERE dataset = $1
	AND linkid IS NOT NULL
	LIMIT 1`

// countSQL counts the break rows of a dataset since $2
const countSQL = `-- name: countBreaks
	SELECT COUNT(*)
	FROM rule_breaks
	WHERE dataset = $1
	AND run_id >= $2`

// pageSQL reads one page of break rows. The order is total so consecutive
// pages never overlap.
const pageSQL = `-- name: pageBreaks
	SELECT dataset, run_id, rule_nm, link_id
	FROM rule_breaks
	WHERE dataset = $1
	AND run_id >= $2
	ORDER BY run_id DESC, rule_nm, link_id
	LIMIT $3 OFFSET $4`
