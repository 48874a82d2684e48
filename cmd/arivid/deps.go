package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"arivid/internal/artifacts"
	"arivid/internal/config"
	"arivid/internal/media"
	"arivid/internal/narration"
	"arivid/internal/queue"
	"arivid/internal/render"
	"arivid/internal/script"
	"arivid/internal/scriptpatch"
	"arivid/internal/services/llm"
	"arivid/internal/services/tts"
	"arivid/internal/timeline"
	"arivid/internal/timing"
	"arivid/internal/workflow"
)

// runtime bundles the live collaborators a command needs to drive jobs.
type runtime struct {
	store   *queue.SQLiteStore
	files   *artifacts.Store
	manager *workflow.Manager
}

func (r *runtime) Close() {
	if r.store != nil {
		r.store.Close()
	}
}

// buildRuntime wires the full pipeline: providers, toolchain, stores, and the
// job supervisor.
func buildRuntime(cfg *config.Config, logger *slog.Logger) (*runtime, error) {
	store, err := queue.Open(filepath.Join(cfg.Paths.LogDir, "jobs.db"))
	if err != nil {
		return nil, fmt.Errorf("open status store: %w", err)
	}

	files, err := artifacts.New(cfg.Paths.StorageDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open artifact store: %w", err)
	}

	llmClient := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		MaxTokens:      cfg.LLM.MaxTokens,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	ttsClient := tts.NewClient(tts.Config{
		APIKey:         cfg.TTS.APIKey,
		BaseURL:        cfg.TTS.BaseURL,
		Model:          cfg.TTS.Model,
		Voice:          cfg.TTS.Voice,
		Speed:          cfg.TTS.Speed,
		Format:         cfg.TTS.Format,
		TimeoutSeconds: cfg.TTS.TimeoutSeconds,
	})
	toolchain := media.New(cfg.Media.FFmpegBinary, cfg.Media.TimeoutSeconds)

	manager := workflow.NewManager(cfg, store, files, workflow.Services{
		Script:    script.NewGenerator(llmClient, cfg.Pipeline.ScriptAttempts, logger),
		Render:    render.New(cfg.Render.Binary, cfg.Render.TimeoutSeconds, logger),
		Timing:    timing.NewExtractor(llmClient, logger),
		Narration: narration.NewComposer(llmClient, logger),
		Audio:     timeline.NewEngine(ttsClient, toolchain, cfg.Pipeline.SegmentConcurrency, logger),
		Speech:    ttsClient,
		Media:     toolchain,
		Validator: scriptpatch.NewValidator(scriptpatch.WithPython(cfg.Render.PythonBinary)),
	}, logger)

	return &runtime{store: store, files: files, manager: manager}, nil
}
