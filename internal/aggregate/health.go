package aggregate

import (
	"sort"
	"strings"

	"github.com/wonny/dqbreaks/internal/contracts"
)

// HealthFromCounts turns per-status counts into ratios of the total.
//
// Zero records give an empty slice. Otherwise PASSING, BREAKING and EXCEPTION
// are always present (ratio 0 when absent) and UNKNOWN only when non-zero, so
// the ratios sum to 1.
func HealthFromCounts(counts []contracts.StatusCount) []contracts.GlobalHealth {
	merged := make(map[contracts.Status]int64, len(counts))
	var total int64
	for _, c := range counts {
		if c.Count <= 0 {
			continue
		}
		merged[c.Status] += c.Count
		total += c.Count
	}

	if total == 0 {
		return []contracts.GlobalHealth{}
	}

	canonical := make(map[contracts.Status]bool, len(contracts.CanonicalStatuses))
	for _, s := range contracts.CanonicalStatuses {
		canonical[s] = true
	}

	statuses := make([]contracts.Status, 0, len(merged)+len(canonical))
	for _, s := range contracts.StatusOrder {
		if canonical[s] || merged[s] > 0 {
			statuses = append(statuses, s)
		}
	}
	// values outside the known set still count toward the total
	var extra []contracts.Status
	for s := range merged {
		if !s.Valid() {
			extra = append(extra, s)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	statuses = append(statuses, extra...)

	out := make([]contracts.GlobalHealth, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, contracts.GlobalHealth{
			Status: s,
			Count:  merged[s],
			Ratio:  float64(merged[s]) / float64(total),
		})
	}
	return out
}

// dropUnmapped removes breakdown rows without a group key
func dropUnmapped(rows []contracts.Breakdown) []contracts.Breakdown {
	out := rows[:0]
	for _, r := range rows {
		if strings.TrimSpace(r.GroupKey) == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
