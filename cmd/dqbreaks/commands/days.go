package commands

import "fmt"

// windowDays resolves a --days flag: 0 means def, otherwise 1..max
func windowDays(days, def, max int) (int, error) {
	if days == 0 {
		return def, nil
	}
	if days < 1 || days > max {
		return 0, fmt.Errorf("--days must be between 1 and %d, got %d", max, days)
	}
	return days, nil
}
