package records

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/dqbreaks/internal/contracts"
)

// LinkSeparator separates link header names and link payload values
const LinkSeparator = "~|"

// Break is one raw rule_breaks row
type Break struct {
	Dataset string
	RunID   time.Time
	RuleNm  string
	LinkID  string
}

// Header maps payload positions to column names. An empty name means the
// position is not displayed.
type Header struct {
	names []string
	taken map[string]bool
}

// ParseHeader splits an opt_owl.linkid declaration into column names.
// Names are trimmed, blanks skipped, and duplicates (including clashes with
// the fixed columns) suffixed _2, _3, ...
func ParseHeader(linkid string) Header {
	h := Header{taken: make(map[string]bool)}
	for _, c := range contracts.FixedColumns {
		h.taken[c] = true
	}
	if linkid == "" {
		return h
	}

	parts := strings.Split(linkid, LinkSeparator)
	h.names = make([]string, len(parts))
	for i, p := range parts {
		name := strings.TrimSpace(p)
		if name == "" {
			continue
		}
		h.names[i] = h.unique(name)
	}
	return h
}

// Columns returns the declared column names in positional order
func (h Header) Columns() []string {
	out := make([]string, 0, len(h.names))
	for _, n := range h.names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

// nameAt returns the column for payload position i (0-based) and whether
// the position is displayed. Positions past the header become col_<i+1>.
func (h Header) nameAt(i int) (string, bool) {
	if i < len(h.names) {
		return h.names[i], h.names[i] != ""
	}
	name := fmt.Sprintf("col_%d", i+1)
	for h.taken[name] {
		name = "_" + name
	}
	return name, true
}

func (h Header) unique(name string) string {
	if !h.taken[name] {
		h.taken[name] = true
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d", name, n)
		if !h.taken[candidate] {
			h.taken[candidate] = true
			return candidate
		}
	}
}

// Flatten turns raw break rows into display records in two passes:
// collect every key (header columns first, then overflow columns in first
// seen order), then project each row onto the full column set with "" for
// absent values.
func Flatten(header Header, rows []Break) ([]contracts.Record, []string) {
	columns := append([]string{}, contracts.FixedColumns...)
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		seen[c] = true
	}
	for _, c := range header.Columns() {
		seen[c] = true
		columns = append(columns, c)
	}

	// pass 1: schema on read
	partial := make([]contracts.Record, 0, len(rows))
	for _, row := range rows {
		rec := contracts.Record{
			contracts.ColumnDataset: row.Dataset,
			contracts.ColumnRunID:   formatRunID(row.RunID),
			contracts.ColumnRuleNm:  row.RuleNm,
		}

		if row.LinkID != "" {
			for i, value := range strings.Split(row.LinkID, LinkSeparator) {
				name, ok := header.nameAt(i)
				if !ok {
					continue
				}
				rec[name] = value
				if !seen[name] {
					seen[name] = true
					columns = append(columns, name)
				}
			}
		}
		partial = append(partial, rec)
	}

	// pass 2: project
	out := make([]contracts.Record, 0, len(partial))
	for _, rec := range partial {
		projected := make(contracts.Record, len(columns))
		for _, c := range columns {
			projected[c] = rec[c]
		}
		out = append(out, projected)
	}

	return out, columns
}

func formatRunID(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
