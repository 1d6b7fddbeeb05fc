package contracts

import (
	"encoding/json"
	"time"
)

const dateLayout = "2006-01-02"

// Window is the day-count window shared by every query of one fetch.
//
// From and To are calendar dates (run_id::date between them, inclusive);
// Since is the exact instant used by timestamp filters on rule_breaks.
type Window struct {
	Days  int
	From  time.Time
	To    time.Time
	Since time.Time
}

// NewWindow anchors a window of days at now:
// From = today - days, To = today + 1 day, Since = now - days*24h.
func NewWindow(days int, now time.Time) Window {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return Window{
		Days:  days,
		From:  today.AddDate(0, 0, -days),
		To:    today.AddDate(0, 0, 1),
		Since: now.Add(-time.Duration(days) * 24 * time.Hour),
	}
}

// MarshalJSON renders the bounds as dates and Since as RFC3339
func (w Window) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Days  int    `json:"days"`
		From  string `json:"from"`
		To    string `json:"to"`
		Since string `json:"since"`
	}{
		Days:  w.Days,
		From:  w.From.Format(dateLayout),
		To:    w.To.Format(dateLayout),
		Since: w.Since.Format(time.RFC3339),
	})
}
