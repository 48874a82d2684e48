package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"arivid/internal/artifacts"
	"arivid/internal/config"
	"arivid/internal/logging"
	"arivid/internal/narration"
	"arivid/internal/queue"
	"arivid/internal/timeline"
	"arivid/internal/timing"
)

// ScriptService generates, repairs, and sizes animation scripts.
type ScriptService interface {
	DetectLanguage(ctx context.Context, prompt string) string
	EstimateDuration(ctx context.Context, prompt string) float64
	Generate(ctx context.Context, prompt, language string, targetDuration float64) (string, error)
	FixFromError(ctx context.Context, script, renderError, language string) (string, error)
}

// RenderService executes scripts through the animation engine.
type RenderService interface {
	Render(ctx context.Context, scriptPath, mediaDir, outputName, quality string) (string, error)
}

// TimingService extracts a visual timing plan from a script.
type TimingService interface {
	Extract(ctx context.Context, script string) []timing.Segment
}

// NarrationService produces narration for a script, either per-segment or as
// one block of text.
type NarrationService interface {
	Compose(ctx context.Context, script, prompt, language string, plan []timing.Segment) []narration.Segment
	ComposeWhole(ctx context.Context, script, prompt, language string, videoDuration float64) (string, error)
}

// AudioService builds the reconciled audio track for narration cues.
type AudioService interface {
	Build(ctx context.Context, workDir, language, voice string, cues []narration.Segment) (string, []timeline.AudioSegmentRecord, error)
}

// SpeechService synthesizes one block of text, used on the simple sync path.
type SpeechService interface {
	Synthesize(ctx context.Context, text, language, voice string) ([]byte, error)
	Format() string
}

// MediaService is the slice of the media toolchain the supervisor drives
// directly.
type MediaService interface {
	Duration(ctx context.Context, path string) float64
	AdjustDuration(ctx context.Context, src, dst string, target float64) error
	BurnSubtitles(ctx context.Context, video, subtitlePath, dst string) error
	Mux(ctx context.Context, video, audio, dst string) error
}

// ScriptValidator checks patched scripts before a second render pass.
type ScriptValidator interface {
	Validate(ctx context.Context, script string) (bool, string)
}

// Services bundles the collaborators a Manager drives.
type Services struct {
	Script    ScriptService
	Render    RenderService
	Timing    TimingService
	Narration NarrationService
	Audio     AudioService
	Speech    SpeechService
	Media     MediaService
	Validator ScriptValidator
}

// Manager supervises video generation jobs. Each submitted job runs as one
// independent background task; the status store is the only shared state
// between jobs.
type Manager struct {
	cfg       *config.Config
	store     queue.Store
	artifacts *artifacts.Store
	services  Services
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
	runCtx  context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager constructs a supervisor.
func NewManager(cfg *config.Config, store queue.Store, artifactStore *artifacts.Store, services Services, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:       cfg,
		store:     store,
		artifacts: artifactStore,
		services:  services,
		logger:    logger,
	}
}

// Start enables job processing and launches the retention sweeper.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}
	m.runCtx, m.cancel = context.WithCancel(ctx)
	m.running = true

	if interval := m.sweepInterval(); interval > 0 {
		m.wg.Add(1)
		go m.runSweeper(m.runCtx, interval)
	}
	return nil
}

// Stop cancels in-flight jobs and waits for them to wind down.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) sweepInterval() time.Duration {
	if m.cfg.Workflow.RetentionDays <= 0 {
		return 0
	}
	seconds := m.cfg.Workflow.SweepIntervalSeconds
	if seconds <= 0 {
		seconds = 3600
	}
	return time.Duration(seconds) * time.Second
}

func (m *Manager) runSweeper(ctx context.Context, interval time.Duration) {
	defer m.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep removes terminal job rows older than the retention window, along
// with their stored artifacts.
func (m *Manager) Sweep(ctx context.Context) {
	retention := time.Duration(m.cfg.Workflow.RetentionDays) * 24 * time.Hour
	if retention <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-retention)

	jobs, err := m.store.List(ctx)
	if err != nil {
		m.logger.Warn("retention sweep could not list jobs", logging.Error(err))
		return
	}
	for _, job := range jobs {
		if job.Status.Terminal() && job.UpdatedAt.Before(cutoff) {
			if err := m.artifacts.Remove(job.ID); err != nil {
				m.logger.Warn("could not remove artifacts for swept job",
					logging.String(logging.FieldJobID, job.ID), logging.Error(err))
			}
		}
	}
	removed, err := m.store.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		m.logger.Warn("retention sweep failed", logging.Error(err))
		return
	}
	if removed > 0 {
		m.logger.Info("retention sweep removed jobs", logging.Int("count", removed))
	}
}
