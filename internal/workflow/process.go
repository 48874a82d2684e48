package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"arivid/internal/logging"
	"arivid/internal/queue"
	"arivid/internal/render"
	"arivid/internal/scriptpatch"
	"arivid/internal/services"
	"arivid/internal/subtitles"
	"arivid/internal/timeline"
	"arivid/internal/timing"
)

// simpleSyncThreshold is the audio/video mismatch, in seconds, beyond which
// the simple sync path pads or trims the audio track.
const simpleSyncThreshold = 2.0

// SyncTimingAnalysis reconciles per-segment narration against the visual
// plan; SyncSimple generates one narration block and force-fits its length;
// SyncSubtitleOverlay burns chunked subtitles into the frames instead of
// muxing an audio track.
const (
	SyncTimingAnalysis  = "timing_analysis"
	SyncSimple          = "simple"
	SyncSubtitleOverlay = "subtitle_overlay"
)

// wholeTextPlaceholder stands in when whole-script narration comes back
// empty or too short to synthesize.
const wholeTextPlaceholder = "Educational animation content."

// Request describes one video generation job. Nil IncludeAudio takes the
// configured pipeline default.
type Request struct {
	Prompt       string
	Language     string
	Voice        string
	Quality      string
	SyncMethod   string
	IncludeAudio *bool
}

// Submit persists a new job and schedules it for background processing. The
// returned id identifies the job in the status store and artifact store.
func (m *Manager) Submit(req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", services.Wrap(services.ErrValidation, "workflow", "submit", "empty prompt", nil)
	}
	if req.Quality == "" {
		req.Quality = m.cfg.Render.Quality
	}
	if !render.ValidQuality(req.Quality) {
		return "", services.Wrap(services.ErrValidation, "workflow", "submit",
			fmt.Sprintf("unknown quality %q", req.Quality), nil)
	}
	if req.SyncMethod == "" {
		req.SyncMethod = m.cfg.Pipeline.SyncMethod
	}
	switch req.SyncMethod {
	case SyncTimingAnalysis, SyncSimple, SyncSubtitleOverlay:
	default:
		return "", services.Wrap(services.ErrValidation, "workflow", "submit",
			fmt.Sprintf("unknown sync method %q", req.SyncMethod), nil)
	}
	includeAudio := m.cfg.Pipeline.IncludeAudio
	if req.IncludeAudio != nil {
		includeAudio = *req.IncludeAudio
	}

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return "", errors.New("workflow not running")
	}
	runCtx := m.runCtx
	m.mu.Unlock()

	job := &queue.Job{
		ID:           uuid.NewString(),
		Prompt:       req.Prompt,
		Language:     req.Language,
		Voice:        req.Voice,
		Quality:      req.Quality,
		SyncMethod:   req.SyncMethod,
		IncludeAudio: includeAudio,
		Status:       queue.StatusPending,
	}
	if err := m.store.Create(runCtx, job); err != nil {
		return "", err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.process(runCtx, job)
	}()
	return job.ID, nil
}

func (m *Manager) process(ctx context.Context, job *queue.Job) {
	logger := m.logger.With(logging.String(logging.FieldJobID, job.ID))
	logger.Info("job started", logging.String("sync_method", job.SyncMethod))

	workDir := m.cfg.JobWorkDir(job.ID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		m.fail(ctx, logger, job.ID, fmt.Errorf("create work dir: %w", err))
		return
	}
	defer os.RemoveAll(workDir)

	if err := m.runPipeline(ctx, logger, job, workDir); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("job canceled by shutdown")
		}
		m.fail(ctx, logger, job.ID, err)
		return
	}
	logger.Info("job completed")
}

func (m *Manager) runPipeline(ctx context.Context, logger *slog.Logger, job *queue.Job, workDir string) error {
	// Step 1: script generation.
	m.step(ctx, job.ID, queue.StepScript, "Generating animation script")

	language := job.Language
	if language == "" {
		language = m.services.Script.DetectLanguage(ctx, job.Prompt)
	}
	targetDuration := 45.0
	if job.IncludeAudio {
		targetDuration = m.services.Script.EstimateDuration(ctx, job.Prompt)
	}
	scriptText, err := m.services.Script.Generate(ctx, job.Prompt, language, targetDuration)
	if err != nil {
		return err
	}
	scriptPath := filepath.Join(workDir, job.ID+".py")
	if err := os.WriteFile(scriptPath, []byte(scriptText), 0o644); err != nil {
		return fmt.Errorf("write script: %w", err)
	}

	// Step 2: render, with one repair-and-retry on failure.
	m.step(ctx, job.ID, queue.StepRender, "Rendering animation")
	mediaDir := filepath.Join(workDir, "media")
	videoPath, err := m.services.Render.Render(ctx, scriptPath, mediaDir, job.ID, job.Quality)
	if err != nil {
		logger.Warn("render failed, attempting script repair", logging.Error(err))
		fixed, fixErr := m.services.Script.FixFromError(ctx, scriptText, services.Message(err), language)
		if fixErr != nil {
			return fixErr
		}
		scriptText = fixed
		if err := os.WriteFile(scriptPath, []byte(scriptText), 0o644); err != nil {
			return fmt.Errorf("write repaired script: %w", err)
		}
		videoPath, err = m.services.Render.Render(ctx, scriptPath, mediaDir, job.ID, job.Quality)
		if err != nil {
			return err
		}
		logger.Info("repaired script rendered")
	}

	if !job.IncludeAudio {
		return m.finish(ctx, job.ID, videoPath, "")
	}

	// Step 3: audio generation and synchronization.
	m.step(ctx, job.ID, queue.StepAudio, "Generating audio")
	videoDuration := m.services.Media.Duration(ctx, videoPath)

	// The overlay path renders narration into the frames and ships the
	// video as-is, so it never reaches the combine step.
	if job.SyncMethod == SyncSubtitleOverlay {
		burned, subtitlePath, err := m.syncOverlay(ctx, job, workDir, scriptText, language, videoPath, videoDuration)
		if err != nil {
			return err
		}
		return m.finish(ctx, job.ID, burned, subtitlePath)
	}

	var (
		audioPath    string
		subtitlePath string
	)
	if job.SyncMethod == SyncTimingAnalysis {
		audioPath, subtitlePath, videoPath, err = m.syncByTiming(
			ctx, logger, job, workDir, scriptPath, scriptText, mediaDir, videoPath, language)
	} else {
		audioPath, subtitlePath, err = m.syncSimple(
			ctx, logger, job, workDir, scriptText, language, videoDuration)
	}
	if err != nil {
		return err
	}

	// Step 4: combine.
	m.step(ctx, job.ID, queue.StepCombine, "Combining audio and video")
	finalPath := filepath.Join(workDir, "final.mp4")
	if err := m.services.Media.Mux(ctx, videoPath, audioPath, finalPath); err != nil {
		return err
	}
	return m.finish(ctx, job.ID, finalPath, subtitlePath)
}

// syncByTiming runs the full reconciliation pipeline: plan extraction, timed
// narration, per-segment synthesis, reconciliation, subtitles, and the
// optional second render pass with hold calls injected.
func (m *Manager) syncByTiming(
	ctx context.Context,
	logger *slog.Logger,
	job *queue.Job,
	workDir, scriptPath, scriptText, mediaDir, videoPath, language string,
) (audioPath, subtitlePath string, renderedPath string, err error) {
	plan := m.services.Timing.Extract(ctx, scriptText)
	cues := m.services.Narration.Compose(ctx, scriptText, job.Prompt, language, plan)

	audioPath, records, err := m.services.Audio.Build(ctx, workDir, language, job.Voice, cues)
	if err != nil {
		return "", "", videoPath, err
	}

	format := m.cfg.Pipeline.SubtitleFormat
	tempSubs := filepath.Join(workDir, "subtitles."+format)
	if err := subtitles.WriteFile(tempSubs, subtitles.FromRecords(records), format); err != nil {
		return "", "", videoPath, err
	}
	subtitlePath, err = m.artifacts.SaveSubtitles(job.ID, format, tempSubs)
	if err != nil {
		return "", "", videoPath, err
	}

	if m.cfg.Pipeline.TwoPassSync {
		videoPath = m.secondPass(ctx, logger, job, plan, records, scriptPath, scriptText, mediaDir, videoPath)
	}
	return audioPath, subtitlePath, videoPath, nil
}

// secondPass re-renders with hold calls injected where narration overruns
// the visuals. Best effort: any failure keeps the first-pass video.
func (m *Manager) secondPass(
	ctx context.Context,
	logger *slog.Logger,
	job *queue.Job,
	plan []timing.Segment,
	records []timeline.AudioSegmentRecord,
	scriptPath, scriptText, mediaDir, videoPath string,
) string {
	adjustments := timeline.Adjustments(plan, records, timeline.AdjustmentThreshold)
	if len(adjustments) == 0 {
		return videoPath
	}
	logger.Info("second render pass for timing adjustments",
		logging.Int("adjustments", len(adjustments)),
		logging.Float64("added_seconds", timeline.TotalAdded(adjustments)))

	patched := scriptpatch.InjectWaits(scriptText, adjustments, len(plan), logger)
	if patched == scriptText {
		return videoPath
	}
	if ok, detail := m.services.Validator.Validate(ctx, patched); !ok {
		logger.Warn("patched script invalid, keeping first-pass video",
			logging.String("detail", detail))
		return videoPath
	}
	if err := os.WriteFile(scriptPath, []byte(patched), 0o644); err != nil {
		logger.Warn("could not write patched script", logging.Error(err))
		return videoPath
	}
	repathed, err := m.services.Render.Render(ctx, scriptPath, mediaDir, job.ID+"_synced", job.Quality)
	if err != nil {
		logger.Warn("second render pass failed, keeping first-pass video", logging.Error(err))
		return videoPath
	}
	return repathed
}

// syncSimple generates one narration block, synthesizes it in a single call,
// and pads or trims the audio to the video duration when the mismatch is
// significant. This legacy path is the only place audio is ever trimmed.
func (m *Manager) syncSimple(
	ctx context.Context,
	logger *slog.Logger,
	job *queue.Job,
	workDir, scriptText, language string,
	videoDuration float64,
) (audioPath, subtitlePath string, err error) {
	text, err := m.services.Narration.ComposeWhole(ctx, scriptText, job.Prompt, language, videoDuration)
	if err != nil {
		return "", "", err
	}
	if len(strings.TrimSpace(text)) < 3 {
		text = wholeTextPlaceholder
	}

	data, err := m.services.Speech.Synthesize(ctx, text, language, job.Voice)
	if err != nil {
		return "", "", services.Wrap(services.ErrProvider, "workflow", "synthesize", "narration synthesis failed", err)
	}
	audioPath = filepath.Join(workDir, "narration."+m.services.Speech.Format())
	if err := os.WriteFile(audioPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write narration audio: %w", err)
	}

	audioDuration := m.services.Media.Duration(ctx, audioPath)
	if math.Abs(audioDuration-videoDuration) > simpleSyncThreshold {
		logger.Info("adjusting narration length to video",
			logging.Float64("audio", audioDuration), logging.Float64("video", videoDuration))
		adjusted := filepath.Join(workDir, "narration_adjusted."+m.services.Speech.Format())
		if err := m.services.Media.AdjustDuration(ctx, audioPath, adjusted, videoDuration); err != nil {
			return "", "", err
		}
		os.Remove(audioPath)
		audioPath = adjusted
	}

	format := m.cfg.Pipeline.SubtitleFormat
	cues := subtitles.ChunkNarration(text, videoDuration)
	tempSubs := filepath.Join(workDir, "subtitles."+format)
	if err := subtitles.WriteFile(tempSubs, cues, format); err != nil {
		return "", "", err
	}
	subtitlePath, err = m.artifacts.SaveSubtitles(job.ID, format, tempSubs)
	if err != nil {
		return "", "", err
	}
	return audioPath, subtitlePath, nil
}

// syncOverlay narrates the whole script as timed subtitles and burns them
// into the video frames. No audio track is produced on this path.
func (m *Manager) syncOverlay(
	ctx context.Context,
	job *queue.Job,
	workDir, scriptText, language string,
	videoPath string,
	videoDuration float64,
) (burnedPath, subtitlePath string, err error) {
	text, err := m.services.Narration.ComposeWhole(ctx, scriptText, job.Prompt, language, videoDuration)
	if err != nil {
		return "", "", err
	}
	if len(strings.TrimSpace(text)) < 3 {
		text = wholeTextPlaceholder
	}

	format := m.cfg.Pipeline.SubtitleFormat
	cues := subtitles.ChunkNarration(text, videoDuration)
	tempSubs := filepath.Join(workDir, "subtitles."+format)
	if err := subtitles.WriteFile(tempSubs, cues, format); err != nil {
		return "", "", err
	}
	subtitlePath, err = m.artifacts.SaveSubtitles(job.ID, format, tempSubs)
	if err != nil {
		return "", "", err
	}

	burnedPath = filepath.Join(workDir, "subtitled.mp4")
	if err := m.services.Media.BurnSubtitles(ctx, videoPath, tempSubs, burnedPath); err != nil {
		return "", "", err
	}
	return burnedPath, subtitlePath, nil
}

func (m *Manager) step(ctx context.Context, id string, step int, message string) {
	_, err := m.store.Update(ctx, id, queue.JobUpdate{
		Status:      queue.StatusPtr(queue.StatusProcessing),
		Step:        queue.IntPtr(step),
		StepMessage: queue.StringPtr(message),
	})
	if err != nil {
		m.logger.Warn("could not persist step transition",
			logging.String(logging.FieldJobID, id), logging.Int(logging.FieldStep, step), logging.Error(err))
	}
}

func (m *Manager) finish(ctx context.Context, id, videoPath, subtitlePath string) error {
	stored, err := m.artifacts.SaveVideo(id, videoPath)
	if err != nil {
		return err
	}
	duration := m.services.Media.Duration(ctx, stored)

	update := queue.JobUpdate{
		Status:      queue.StatusPtr(queue.StatusCompleted),
		Step:        queue.IntPtr(queue.StepCombine),
		StepMessage: queue.StringPtr("Generation completed"),
		VideoPath:   queue.StringPtr(stored),
		Duration:    queue.Float64Ptr(duration),
	}
	if subtitlePath != "" {
		update.SubtitlePath = queue.StringPtr(subtitlePath)
	}
	_, err = m.store.Update(ctx, id, update)
	return err
}

func (m *Manager) fail(ctx context.Context, logger *slog.Logger, id string, cause error) {
	message := services.Message(cause)
	logger.Error("job failed", logging.Error(cause))
	_, err := m.store.Update(ctx, id, queue.JobUpdate{
		Status:      queue.StatusPtr(queue.StatusFailed),
		StepMessage: queue.StringPtr("Generation failed: " + message),
		Error:       queue.StringPtr(message),
	})
	if err != nil {
		logger.Warn("could not persist failure status", logging.Error(err))
	}
}
