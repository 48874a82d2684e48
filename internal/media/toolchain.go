package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const defaultTimeout = 120 * time.Second

// Silence clips are generated with a fixed layout so concatenated tracks keep
// a uniform stream shape.
const silenceSource = "anullsrc=channel_layout=stereo:sample_rate=44100:duration=%g"

type runnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Toolchain drives the external media engine (ffmpeg) for probing, silence
// generation, padding, concatenation, and muxing.
type Toolchain struct {
	binary  string
	timeout time.Duration
	run     runnerFunc
}

// Option customizes the toolchain.
type Option func(*Toolchain)

// WithRunner replaces subprocess execution (used in tests).
func WithRunner(run func(ctx context.Context, name string, args ...string) ([]byte, error)) Option {
	return func(t *Toolchain) {
		if run != nil {
			t.run = run
		}
	}
}

// New constructs a toolchain around the given ffmpeg binary.
func New(binary string, timeoutSeconds int, opts ...Option) *Toolchain {
	timeout := defaultTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	t := &Toolchain{
		binary:  strings.TrimSpace(binary),
		timeout: timeout,
		run:     execRunner,
	}
	if t.binary == "" {
		t.binary = "ffmpeg"
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

func (t *Toolchain) exec(ctx context.Context, args ...string) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.run(callCtx, t.binary, args...)
}

// WriteSilence generates a silence clip of exactly the given duration.
func (t *Toolchain) WriteSilence(ctx context.Context, dst string, seconds float64) error {
	if seconds <= 0 {
		return fmt.Errorf("write silence: non-positive duration %g", seconds)
	}
	_, err := t.exec(ctx,
		"-f", "lavfi",
		"-i", fmt.Sprintf(silenceSource, seconds),
		"-c:a", "mp3",
		"-y", dst,
	)
	if err != nil {
		return fmt.Errorf("write silence: %w", err)
	}
	return nil
}

// AppendSilence writes src followed by a silence tail of the given duration
// to dst. Used by the reconciler to pad audio up to its visual slot.
func (t *Toolchain) AppendSilence(ctx context.Context, src, dst string, seconds float64) error {
	if seconds <= 0 {
		return fmt.Errorf("append silence: non-positive duration %g", seconds)
	}
	_, err := t.exec(ctx,
		"-i", src,
		"-f", "lavfi",
		"-i", fmt.Sprintf(silenceSource, seconds),
		"-filter_complex", "[0:a][1:a]concat=n=2:v=0:a=1[out]",
		"-map", "[out]",
		"-c:a", "mp3",
		"-y", dst,
	)
	if err != nil {
		return fmt.Errorf("append silence: %w", err)
	}
	return nil
}

// ConcatFiles splices the inputs into dst using the concat demuxer. Streams
// are copied, not re-encoded, so the splice is sample-accurate.
func (t *Toolchain) ConcatFiles(ctx context.Context, inputs []string, dst string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("concat: no inputs")
	}
	listPath := dst + ".list.txt"
	var list strings.Builder
	for _, input := range inputs {
		abs, err := filepath.Abs(input)
		if err != nil {
			return fmt.Errorf("concat: resolve %s: %w", input, err)
		}
		fmt.Fprintf(&list, "file '%s'\n", abs)
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("concat: write list file: %w", err)
	}
	defer os.Remove(listPath)

	_, err := t.exec(ctx,
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y", dst,
	)
	if err != nil {
		return fmt.Errorf("concat: %w", err)
	}
	return nil
}

// GapInput is one clip in a filter-graph concatenation, optionally preceded by
// a silence gap.
type GapInput struct {
	Path       string
	GapSeconds float64
}

// ConcatWithGaps builds dst from the inputs in order, generating each positive
// gap inline through the filter graph. Fallback strategy for when demuxer
// concatenation fails.
func (t *Toolchain) ConcatWithGaps(ctx context.Context, inputs []GapInput, dst string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("concat with gaps: no inputs")
	}
	args := make([]string, 0, len(inputs)*2+8)
	var filters []string
	for i, input := range inputs {
		args = append(args, "-i", input.Path)
		if input.GapSeconds > 0 {
			filters = append(filters,
				fmt.Sprintf(silenceSource+"[gap%d]", input.GapSeconds, i),
				fmt.Sprintf("[gap%d][%d:a]concat=n=2:v=0:a=1[padded%d]", i, i, i),
			)
		} else {
			filters = append(filters, fmt.Sprintf("[%d:a]anull[padded%d]", i, i))
		}
	}
	var tail strings.Builder
	for i := range inputs {
		fmt.Fprintf(&tail, "[padded%d]", i)
	}
	fmt.Fprintf(&tail, "concat=n=%d:v=0:a=1[out]", len(inputs))
	filters = append(filters, tail.String())

	args = append(args,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", "[out]",
		"-c:a", "mp3",
		"-y", dst,
	)
	if _, err := t.exec(ctx, args...); err != nil {
		return fmt.Errorf("concat with gaps: %w", err)
	}
	return nil
}

// AdjustDuration pads src with trailing silence or trims it so dst lasts
// exactly target seconds. Only the legacy simple sync path trims audio.
func (t *Toolchain) AdjustDuration(ctx context.Context, src, dst string, target float64) error {
	if target <= 0 {
		return fmt.Errorf("adjust duration: non-positive target %g", target)
	}
	current := t.Duration(ctx, src)
	var args []string
	if current < target {
		args = []string{
			"-i", src,
			"-filter_complex", fmt.Sprintf("[0:a]apad=whole_dur=%g[out]", target),
			"-map", "[out]",
			"-c:a", "mp3",
			"-y", dst,
		}
	} else {
		args = []string{
			"-i", src,
			"-t", fmt.Sprintf("%g", target),
			"-c:a", "mp3",
			"-y", dst,
		}
	}
	if _, err := t.exec(ctx, args...); err != nil {
		return fmt.Errorf("adjust duration: %w", err)
	}
	return nil
}

// burnStyle matches the subtitle rendering the service has always produced.
const burnStyle = "FontSize=20,FontName=Arial,PrimaryColour=&Hffffff,OutlineColour=&H000000,Outline=2"

// BurnSubtitles renders a subtitle file into the video frames, leaving any
// audio stream untouched.
func (t *Toolchain) BurnSubtitles(ctx context.Context, video, subtitlePath, dst string) error {
	_, err := t.exec(ctx,
		"-i", video,
		"-vf", fmt.Sprintf("subtitles=%s:force_style='%s'", subtitlePath, burnStyle),
		"-c:a", "copy",
		"-y", dst,
	)
	if err != nil {
		return fmt.Errorf("burn subtitles: %w", err)
	}
	return nil
}

// Mux combines a silent video track and an audio track into dst.
func (t *Toolchain) Mux(ctx context.Context, video, audio, dst string) error {
	_, err := t.exec(ctx,
		"-i", video,
		"-i", audio,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "copy",
		"-c:a", "aac",
		"-y", dst,
	)
	if err != nil {
		return fmt.Errorf("mux: %w", err)
	}
	return nil
}
