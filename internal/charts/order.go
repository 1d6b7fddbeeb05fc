package charts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wonny/dqbreaks/internal/contracts"
)

// Order selects the presentation an aggregate is sorted for
type Order string

const (
	// OrderChart: dates ascending, groups by total descending
	OrderChart Order = "chart"
	// OrderTable: dates descending, groups alphabetically
	OrderTable Order = "table"
)

// ParseOrder accepts chart (default when empty) or table
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case "", OrderChart:
		return OrderChart, nil
	case OrderTable:
		return OrderTable, nil
	default:
		return "", fmt.Errorf("view must be %q or %q", OrderChart, OrderTable)
	}
}

// SortTimeSeries returns a sorted copy: by date (ascending for charts,
// descending for tables), then status order
func SortTimeSeries(points []contracts.TimeSeriesPoint, o Order) []contracts.TimeSeriesPoint {
	out := append([]contracts.TimeSeriesPoint{}, points...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].RunDate.Equal(out[j].RunDate) {
			if o == OrderTable {
				return out[i].RunDate.After(out[j].RunDate)
			}
			return out[i].RunDate.Before(out[j].RunDate)
		}
		return out[i].Status.Rank() < out[j].Status.Rank()
	})
	return out
}

// SortBreakdowns returns a sorted copy. Charts order groups by total count
// descending (ties by key); tables order groups by key. Within a group rows
// follow status order.
func SortBreakdowns(rows []contracts.Breakdown, o Order) []contracts.Breakdown {
	totals := groupTotals(rows)
	out := append([]contracts.Breakdown{}, rows...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.GroupKey != b.GroupKey {
			if o == OrderChart && totals[a.GroupKey] != totals[b.GroupKey] {
				return totals[a.GroupKey] > totals[b.GroupKey]
			}
			return a.GroupKey < b.GroupKey
		}
		return a.Status.Rank() < b.Status.Rank()
	})
	return out
}

func groupTotals(rows []contracts.Breakdown) map[string]int64 {
	totals := make(map[string]int64)
	for _, r := range rows {
		totals[r.GroupKey] += r.Count
	}
	return totals
}
