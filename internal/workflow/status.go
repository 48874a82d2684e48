package workflow

import (
	"context"
	"errors"
	"os"

	"arivid/internal/queue"
)

// Status returns the current state of a job. When the store has no row for
// the id (for example after a restart with an in-memory store), a finished
// video on disk recovers a completed status with probed duration and file
// timestamps.
func (m *Manager) Status(ctx context.Context, id string) (*queue.Job, error) {
	job, err := m.store.Get(ctx, id)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, queue.ErrNotFound) {
		return nil, err
	}
	if !m.artifacts.HasVideo(id) {
		return nil, queue.ErrNotFound
	}

	videoPath := m.artifacts.VideoPath(id)
	recovered := &queue.Job{
		ID:          id,
		Status:      queue.StatusCompleted,
		Step:        queue.StepCombine,
		StepMessage: "Video generation completed (recovered from disk)",
		VideoPath:   videoPath,
		Duration:    m.services.Media.Duration(ctx, videoPath),
	}
	if _, modified, err := m.artifacts.VideoInfo(id); err == nil {
		recovered.CreatedAt = modified
		recovered.UpdatedAt = modified
	}
	for _, format := range []string{"srt", "vtt"} {
		path := m.artifacts.SubtitlePath(id, format)
		if _, err := os.Stat(path); err == nil {
			recovered.SubtitlePath = path
			break
		}
	}
	return recovered, nil
}

// List returns all stored jobs, newest first.
func (m *Manager) List(ctx context.Context) ([]*queue.Job, error) {
	return m.store.List(ctx)
}

// Health aggregates job counts per lifecycle state.
func (m *Manager) Health(ctx context.Context) (queue.HealthSummary, error) {
	return m.store.Health(ctx)
}
