package queue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by tests and by deployments that
// can tolerate losing status across restarts. The artifact-presence fallback
// still recovers completed jobs in that case.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

func (m *MemoryStore) Create(_ context.Context, job *Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	stored := *job
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.Status == "" {
		stored.Status = StatusPending
	}
	m.jobs[normalizeID(job.ID)] = &stored
	job.CreatedAt = now
	job.UpdatedAt = now
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[normalizeID(id)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (m *MemoryStore) Update(_ context.Context, id string, update JobUpdate) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[normalizeID(id)]
	if !ok {
		return nil, ErrNotFound
	}
	if update.Status != nil && !update.Status.Valid() {
		return nil, fmt.Errorf("update job: invalid status %q", *update.Status)
	}
	if update.Status != nil {
		job.Status = *update.Status
	}
	if update.Step != nil {
		job.Step = *update.Step
	}
	if update.StepMessage != nil {
		job.StepMessage = *update.StepMessage
	}
	if update.Error != nil {
		job.Error = *update.Error
	}
	if update.VideoPath != nil {
		job.VideoPath = *update.VideoPath
	}
	if update.SubtitlePath != nil {
		job.SubtitlePath = *update.SubtitlePath
	}
	if update.Duration != nil {
		job.Duration = *update.Duration
	}
	job.UpdatedAt = time.Now().UTC()
	copied := *job
	return &copied, nil
}

func (m *MemoryStore) List(_ context.Context) ([]*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jobs := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		copied := *job
		jobs = append(jobs, &copied)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}

func (m *MemoryStore) Health(ctx context.Context) (HealthSummary, error) {
	jobs, err := m.List(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	return inferSummary(jobs), nil
}

func (m *MemoryStore) DeleteTerminalBefore(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, job := range m.jobs {
		if job.Status.Terminal() && job.UpdatedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryStore) Close() error { return nil }
