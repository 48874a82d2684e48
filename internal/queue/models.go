package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a generation job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Processing sub-steps, reported while a job is in StatusProcessing.
const (
	StepScript  = 1
	StepRender  = 2
	StepAudio   = 3
	StepCombine = 4
)

var allStatuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	for _, status := range allStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Terminal reports whether the status ends the job lifecycle.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one video generation request persisted in the status store.
type Job struct {
	ID           string
	Prompt       string
	Language     string
	Voice        string
	Quality      string
	SyncMethod   string
	IncludeAudio bool
	Status       Status
	Step         int
	StepMessage  string
	Error        string
	VideoPath    string
	SubtitlePath string
	Duration     float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// JobUpdate carries a partial status update. Nil fields leave the stored
// value untouched, so concurrent writers only clobber what they set.
type JobUpdate struct {
	Status       *Status
	Step         *int
	StepMessage  *string
	Error        *string
	VideoPath    *string
	SubtitlePath *string
	Duration     *float64
}

// Empty reports whether the update would change nothing.
func (u JobUpdate) Empty() bool {
	return u.Status == nil && u.Step == nil && u.StepMessage == nil &&
		u.Error == nil && u.VideoPath == nil && u.SubtitlePath == nil && u.Duration == nil
}

// Pointer helpers for building partial updates.

func StatusPtr(s Status) *Status    { return &s }
func IntPtr(v int) *int             { return &v }
func StringPtr(v string) *string    { return &v }
func Float64Ptr(v float64) *float64 { return &v }
func BoolPtr(v bool) *bool          { return &v }

// HealthSummary aggregates job counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}

func inferSummary(jobs []*Job) HealthSummary {
	summary := HealthSummary{Total: len(jobs)}
	for _, job := range jobs {
		switch job.Status {
		case StatusPending:
			summary.Pending++
		case StatusProcessing:
			summary.Processing++
		case StatusCompleted:
			summary.Completed++
		case StatusFailed:
			summary.Failed++
		}
	}
	return summary
}

func normalizeID(id string) string {
	return strings.TrimSpace(id)
}
