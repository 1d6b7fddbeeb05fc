package scheduler

import (
	"context"
	"sync"
	"time"
)

// historySize bounds the results kept per job
const historySize = 100

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron expression, seconds field first
	// ("*/30 * * * * *" runs every 30 seconds)
	Schedule() string
}

// JobResult represents the result of a job execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory keeps the most recent results of one job
type JobHistory struct {
	mu      sync.RWMutex
	results []JobResult
}

// Add appends a result, dropping the oldest beyond historySize
func (h *JobHistory) Add(result JobResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.results = append(h.results, result)
	if len(h.results) > historySize {
		h.results = h.results[len(h.results)-historySize:]
	}
}

// Latest returns up to n most recent results, oldest first
func (h *JobHistory) Latest(n int) []JobResult {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n > len(h.results) {
		n = len(h.results)
	}
	if n <= 0 {
		return []JobResult{}
	}
	return append([]JobResult{}, h.results[len(h.results)-n:]...)
}

// Stats summarises the history
func (h *JobHistory) Stats(name, schedule string) JobStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := JobStats{JobName: name, Schedule: schedule, TotalRuns: len(h.results)}
	for i := range h.results {
		r := h.results[i]
		started := r.StartTime
		if r.Success {
			stats.SuccessCount++
			stats.LastSuccess = &started
		} else {
			stats.FailureCount++
			stats.LastFailure = &started
			stats.LastError = r.Error
		}
	}
	if n := len(h.results); n > 0 {
		last := h.results[n-1]
		stats.LastRun = &last.StartTime
		stats.SuccessRate = float64(stats.SuccessCount) / float64(n)
		if last.Success {
			stats.LastError = ""
		}
	}
	return stats
}

// JobStats represents statistics for a job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}
