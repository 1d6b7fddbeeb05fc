package charts

import (
	"sort"
	"strings"
	"time"

	"github.com/wonny/dqbreaks/internal/contracts"
)

// DateLabelLayout is the x-axis label format (M/D/YYYY)
const DateLabelLayout = "1/2/2006"

const dayKeyLayout = "2006-01-02"

// Slice is one pie slice
type Slice struct {
	Status contracts.Status `json:"status"`
	Value  int64            `json:"value"`
	Ratio  float64          `json:"ratio"`
	Color  string           `json:"color"`
}

// LinePoint is one dated value of a line
type LinePoint struct {
	Date  time.Time `json:"-"`
	Label string    `json:"label"`
	Count int64     `json:"count"`
}

// Line is the time series of one status
type Line struct {
	Status contracts.Status `json:"status"`
	Color  string           `json:"color"`
	Points []LinePoint      `json:"points"`
}

// Segment is one status share of a stacked bar
type Segment struct {
	Status contracts.Status `json:"status"`
	Count  int64            `json:"count"`
	Color  string           `json:"color"`
}

// StackedBar is one group (dimension or business unit)
type StackedBar struct {
	Key      string    `json:"key"`
	Total    int64     `json:"total"`
	Segments []Segment `json:"segments"`
}

// Set is every chart of one dashboard
type Set struct {
	Order         Order        `json:"order"`
	Health        []Slice      `json:"health"`
	TimeSeries    []Line       `json:"timeSeries"`
	Dimensions    []StackedBar `json:"dimensions"`
	BusinessUnits []StackedBar `json:"businessUnits"`
}

// Build maps a dashboard to chart series
func Build(d *contracts.Dashboard, o Order) Set {
	return Set{
		Order:         o,
		Health:        PieSlices(d.GlobalHealth),
		TimeSeries:    TimeSeriesLines(d.TimeSeries, o),
		Dimensions:    StackedBars(d.Dimensions, o),
		BusinessUnits: StackedBars(d.BusinessUnits, o),
	}
}

// PieSlices returns one slice per status in status order
func PieSlices(health []contracts.GlobalHealth) []Slice {
	out := make([]Slice, 0, len(health))
	for _, h := range health {
		out = append(out, Slice{Status: h.Status, Value: h.Count, Ratio: h.Ratio, Color: Color(h.Status)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Status.Rank() < out[j].Status.Rank() })
	return out
}

// TimeSeriesLines returns one line per status present. Each line only has
// the dates where that status occurred; duplicate (status, date) rows are
// summed.
func TimeSeriesLines(points []contracts.TimeSeriesPoint, o Order) []Line {
	type key struct {
		status contracts.Status
		date   string
	}
	sums := make(map[key]int64)
	byStatus := make(map[contracts.Status][]time.Time)
	for _, p := range points {
		date := dayOf(p.RunDate)
		k := key{p.Status, date.Format(dayKeyLayout)}
		if _, ok := sums[k]; !ok {
			byStatus[p.Status] = append(byStatus[p.Status], date)
		}
		sums[k] += p.Count
	}

	statuses := make([]contracts.Status, 0, len(byStatus))
	for s := range byStatus {
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].Rank() != statuses[j].Rank() {
			return statuses[i].Rank() < statuses[j].Rank()
		}
		return statuses[i] < statuses[j]
	})

	out := make([]Line, 0, len(statuses))
	for _, s := range statuses {
		dates := byStatus[s]
		sort.Slice(dates, func(i, j int) bool {
			if o == OrderTable {
				return dates[i].After(dates[j])
			}
			return dates[i].Before(dates[j])
		})

		line := Line{Status: s, Color: Color(s), Points: make([]LinePoint, 0, len(dates))}
		for _, d := range dates {
			line.Points = append(line.Points, LinePoint{Date: d, Label: d.Format(DateLabelLayout), Count: sums[key{s, d.Format(dayKeyLayout)}]})
		}
		out = append(out, line)
	}
	return out
}

// StackedBars returns one bar per non-empty group key with one segment per
// status in fixed order. PASSING, BREAKING and EXCEPTION segments are always
// present; UNKNOWN only when some group has it.
func StackedBars(rows []contracts.Breakdown, o Order) []StackedBar {
	statuses := append([]contracts.Status{}, contracts.CanonicalStatuses...)
	counts := make(map[string]map[contracts.Status]int64)
	var keys []string
	for _, r := range rows {
		if strings.TrimSpace(r.GroupKey) == "" {
			continue
		}
		if _, ok := counts[r.GroupKey]; !ok {
			counts[r.GroupKey] = make(map[contracts.Status]int64)
			keys = append(keys, r.GroupKey)
		}
		counts[r.GroupKey][r.Status] += r.Count
		if !containsStatus(statuses, r.Status) {
			statuses = append(statuses, r.Status)
		}
	}
	sort.SliceStable(statuses, func(i, j int) bool { return statuses[i].Rank() < statuses[j].Rank() })

	out := make([]StackedBar, 0, len(keys))
	for _, k := range keys {
		bar := StackedBar{Key: k, Segments: make([]Segment, 0, len(statuses))}
		for _, s := range statuses {
			n := counts[k][s]
			bar.Total += n
			bar.Segments = append(bar.Segments, Segment{Status: s, Count: n, Color: Color(s)})
		}
		out = append(out, bar)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if o == OrderChart && out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func containsStatus(list []contracts.Status, s contracts.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// dayOf returns the calendar day of t as UTC midnight, whatever t's zone
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
