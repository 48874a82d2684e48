package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"arivid/internal/logging"
	"arivid/internal/media"
	"arivid/internal/narration"
	"arivid/internal/services"
)

// padThreshold is the minimum shortfall, in seconds, before a clip is padded
// with trailing silence up to its planned visual slot.
const padThreshold = 0.1

// overrunLogThreshold is the overrun above which a segment is flagged as
// needing extra hold time in the animation.
const overrunLogThreshold = 0.05

// Synthesizer produces spoken audio for a narration cue.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language, voice string) ([]byte, error)
	Format() string
}

// Toolkit is the slice of the media toolchain the engine drives.
type Toolkit interface {
	Duration(ctx context.Context, path string) float64
	AppendSilence(ctx context.Context, src, dst string, seconds float64) error
	WriteSilence(ctx context.Context, dst string, seconds float64) error
	ConcatFiles(ctx context.Context, inputs []string, dst string) error
	ConcatWithGaps(ctx context.Context, inputs []media.GapInput, dst string) error
}

// Engine synthesizes narration cues into clips, reconciles their measured
// durations against the planned visual slots, and assembles the final audio
// track. Reconciliation runs in two passes: clips shorter than their slot are
// padded with silence, clips that overrun keep their full length, then every
// clip is re-sequenced cumulatively so the track has no gaps and no overlap.
type Engine struct {
	synth       Synthesizer
	tools       Toolkit
	logger      *slog.Logger
	concurrency int
}

// NewEngine constructs an engine. Concurrency bounds how many cues are
// synthesized in parallel; values below one synthesize sequentially.
func NewEngine(synth Synthesizer, tools Toolkit, concurrency int, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Engine{synth: synth, tools: tools, logger: logger, concurrency: concurrency}
}

// Build synthesizes, reconciles, and assembles the audio track for the given
// cues inside workDir. It returns the assembled track path and the per-clip
// timing records used for subtitles and hold-time adjustment.
func (e *Engine) Build(ctx context.Context, workDir, language, voice string, cues []narration.Segment) (string, []AudioSegmentRecord, error) {
	valid := make([]narration.Segment, 0, len(cues))
	for _, cue := range cues {
		if strings.TrimSpace(cue.Text) == "" {
			e.logger.Warn("skipping empty narration cue",
				logging.Float64("start", cue.StartTime), logging.Float64("end", cue.EndTime))
			continue
		}
		valid = append(valid, cue)
	}
	if len(valid) == 0 {
		return "", nil, services.Wrap(services.ErrValidation, "timeline", "build", "no valid narration segments", nil)
	}
	e.logger.Info("building audio timeline",
		logging.Int("segments", len(valid)), logging.String("language", language))

	clips, err := e.synthesize(ctx, workDir, language, voice, valid)
	if err != nil {
		return "", nil, err
	}

	records := e.reconcile(ctx, workDir, valid, clips)

	audioPath := filepath.Join(workDir, "synced_audio."+e.synth.Format())
	if err := e.assemble(ctx, records, audioPath); err != nil {
		return "", nil, err
	}

	for _, rec := range records {
		if err := os.Remove(rec.Path); err != nil && !os.IsNotExist(err) {
			e.logger.Debug("could not remove segment clip", logging.String("path", rec.Path), logging.Error(err))
		}
	}
	return audioPath, records, nil
}

type clip struct {
	path     string
	duration float64
}

func (e *Engine) synthesize(ctx context.Context, workDir, language, voice string, cues []narration.Segment) ([]clip, error) {
	clips := make([]clip, len(cues))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, cue := range cues {
		g.Go(func() error {
			data, err := e.synth.Synthesize(gctx, cue.Text, language, voice)
			if err != nil {
				return services.Wrap(services.ErrProvider, "timeline", "synthesize",
					fmt.Sprintf("segment %d", i), err)
			}
			path := filepath.Join(workDir, fmt.Sprintf("segment_%d.%s", i, e.synth.Format()))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write segment %d clip: %w", i, err)
			}
			clips[i] = clip{path: path, duration: e.tools.Duration(gctx, path)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return clips, nil
}

// reconcile runs both timing passes. Pass one pads short clips up to their
// planned slot and never trims overruns. Pass two re-sequences every clip
// cumulatively from zero so playback is strictly sequential.
func (e *Engine) reconcile(ctx context.Context, workDir string, cues []narration.Segment, clips []clip) []AudioSegmentRecord {
	records := make([]AudioSegmentRecord, len(cues))
	for i, cue := range cues {
		path := clips[i].path
		actual := clips[i].duration
		if actual <= 0 {
			actual = cue.Duration()
			if actual < 1.0 {
				actual = 1.0
			}
		}

		plannedStart := cue.StartTime
		plannedEnd := cue.EndTime
		plannedDuration := plannedEnd - plannedStart

		if actual < plannedDuration-padThreshold {
			shortfall := plannedDuration - actual
			e.logger.Info("padding clip to planned slot",
				logging.Int(logging.FieldSegment, i),
				logging.Float64("planned", plannedDuration),
				logging.Float64("actual", actual),
				logging.Float64("silence", shortfall))
			paddedPath := filepath.Join(workDir, fmt.Sprintf("segment_%d_padded.%s", i, e.synth.Format()))
			if err := e.tools.AppendSilence(ctx, path, paddedPath, shortfall); err != nil {
				e.logger.Warn("clip padding failed, keeping original audio",
					logging.Int(logging.FieldSegment, i), logging.Error(err))
			} else {
				os.Remove(path)
				path = paddedPath
				actual = plannedDuration
			}
		}

		adjustedEnd := plannedEnd
		if overrun := plannedStart + actual; overrun > adjustedEnd {
			adjustedEnd = overrun
		}
		if adjustedEnd > plannedEnd+overrunLogThreshold {
			e.logger.Debug("clip overruns planned slot, animation will need hold time",
				logging.Int(logging.FieldSegment, i),
				logging.Float64("planned", plannedDuration),
				logging.Float64("actual", actual))
		}

		records[i] = AudioSegmentRecord{
			SegmentIndex:  i,
			Path:          path,
			PlannedStart:  plannedStart,
			PlannedEnd:    adjustedEnd,
			AudioDuration: actual,
			Text:          strings.TrimSpace(cue.Text),
		}
	}

	var cumulative float64
	for i := range records {
		records[i].ActualStart = cumulative
		records[i].ActualEnd = cumulative + records[i].AudioDuration
		cumulative = records[i].ActualEnd
	}
	e.logger.Info("timeline reconciled", logging.Float64("total_duration", cumulative))
	return records
}
