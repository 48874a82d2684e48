package render

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"arivid/internal/logging"
	"arivid/internal/services"
)

const defaultTimeout = 10 * time.Minute

type runnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Renderer executes generated animation scripts through the external engine.
// The engine is opaque: it either produces a media file under the job's media
// directory or fails with diagnostic output, which callers feed back into the
// script repair loop.
type Renderer struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
	run     runnerFunc
}

// Option customizes the renderer.
type Option func(*Renderer)

// WithRunner replaces subprocess execution (used in tests).
func WithRunner(run func(ctx context.Context, name string, args ...string) ([]byte, error)) Option {
	return func(r *Renderer) {
		if run != nil {
			r.run = run
		}
	}
}

// New constructs a renderer around the given engine binary.
func New(binary string, timeoutSeconds int, logger *slog.Logger, opts ...Option) *Renderer {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := defaultTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	r := &Renderer{
		binary:  strings.TrimSpace(binary),
		timeout: timeout,
		logger:  logger,
		run:     execRunner,
	}
	if r.binary == "" {
		r.binary = "manim"
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Render runs the engine on scriptPath at the given quality tier and returns
// the path of the produced media file. mediaDir must be namespaced per job.
// On failure the returned error carries the engine's diagnostic output so the
// repair loop can hand it to the reasoning service.
func (r *Renderer) Render(ctx context.Context, scriptPath, mediaDir, outputName, quality string) (string, error) {
	preset := PresetFor(quality)
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.logger.Info("rendering animation",
		logging.String("script", scriptPath),
		logging.String("quality", preset.Key),
		logging.String("resolution", preset.Resolution))

	output, err := r.run(callCtx, r.binary,
		"render",
		"-q"+preset.Key,
		"--media_dir", mediaDir,
		"--output_file", outputName+".mp4",
		scriptPath,
	)
	if err != nil {
		diagnostic := strings.TrimSpace(string(output))
		if diagnostic == "" {
			diagnostic = err.Error()
		}
		return "", services.Wrap(services.ErrExternalTool, "render", "execute", diagnostic, err)
	}

	videoPath, err := findOutput(mediaDir, outputName+".mp4")
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "render", "locate output", err.Error(), nil)
	}
	return videoPath, nil
}

// findOutput locates the produced file under mediaDir. The engine nests its
// output by script name and resolution, so the tree is walked instead of
// assuming a layout.
func findOutput(mediaDir, name string) (string, error) {
	var found string
	err := filepath.WalkDir(mediaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk %s: %w", mediaDir, err)
	}
	if found == "" {
		return "", fmt.Errorf("no %s under %s", name, mediaDir)
	}
	return found, nil
}
