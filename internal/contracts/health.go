package contracts

import (
	"encoding/json"
	"time"
)

// GlobalHealth is one status share of the window
type GlobalHealth struct {
	Status Status  `json:"status"`
	Count  int64   `json:"count"`
	Ratio  float64 `json:"ratio"`
}

// StatusCount is a raw per-status count before ratios are applied
type StatusCount struct {
	Status Status
	Count  int64
}

// TimeSeriesPoint counts one status on one run date
type TimeSeriesPoint struct {
	Status  Status    `json:"status"`
	Count   int64     `json:"count"`
	RunDate time.Time `json:"run_date"`
}

// MarshalJSON renders RunDate as a plain date
func (p TimeSeriesPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status  Status `json:"status"`
		Count   int64  `json:"count"`
		RunDate string `json:"run_date"`
	}{p.Status, p.Count, p.RunDate.Format(dateLayout)})
}

// Breakdown counts one status within a group (dimension or business unit)
type Breakdown struct {
	GroupKey string `json:"group_key"`
	Status   Status `json:"status"`
	Count    int64  `json:"count"`
}

// Dashboard is the result of one dashboard fetch.
// QueryTimings holds wall time per query in seconds.
type Dashboard struct {
	Window             Window             `json:"window"`
	GlobalHealthWindow Window             `json:"globalHealthWindow"`
	GlobalHealth       []GlobalHealth     `json:"globalHealth"`
	TimeSeries         []TimeSeriesPoint  `json:"timeSeries"`
	Dimensions         []Breakdown        `json:"dimensions"`
	BusinessUnits      []Breakdown        `json:"businessUnits"`
	QueryTimings       map[string]float64 `json:"queryTimings"`
}
