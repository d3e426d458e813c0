// Package report runs uptime report generation as asynchronous jobs and
// tracks them from Running to Complete or Failed.
package report

import (
	"errors"
	"time"

	"store-monitor-backend/internal/uptime"
)

// Status is the lifecycle state of a report job.
type Status string

const (
	StatusRunning  Status = "Running"
	StatusComplete Status = "Complete"
	StatusFailed   Status = "Failed"
)

// Terminal reports whether no further transition can happen.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

var (
	ErrNotFound    = errors.New("report not found")
	ErrMissingID   = errors.New("report_id is required")
	ErrNotComplete = errors.New("report is not complete")
)

// Job is one report generation request. Result is set only once the job is
// Complete; ArtifactPath once its artifact has been written.
type Job struct {
	ID           string
	Status       Status
	Result       *uptime.Report
	ArtifactPath string
	CreatedAt    time.Time
	FinishedAt   time.Time
}
