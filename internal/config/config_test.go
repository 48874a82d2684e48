package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"arivid/internal/config"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, path, err := config.Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if path != "" && !fileExists(path) {
		t.Fatalf("reported config path %s does not exist", path)
	}
	if cfg.Render.Quality != "m" {
		t.Fatalf("expected default quality m, got %q", cfg.Render.Quality)
	}
	if cfg.TTS.Speed != 0.85 {
		t.Fatalf("expected default tts speed 0.85, got %v", cfg.TTS.Speed)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	if _, _, err := config.Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[paths]
storage_dir = "` + filepath.Join(dir, "store") + `"
work_dir = "` + filepath.Join(dir, "work") + `"

[render]
quality = "h"

[pipeline]
sync_method = "simple"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != path {
		t.Fatalf("expected loaded path %s, got %s", path, loaded)
	}
	if cfg.Render.Quality != "h" {
		t.Fatalf("expected quality h, got %q", cfg.Render.Quality)
	}
	if cfg.Pipeline.SyncMethod != "simple" {
		t.Fatalf("expected sync_method simple, got %q", cfg.Pipeline.SyncMethod)
	}
	// Untouched sections keep defaults.
	if cfg.TTS.Voice != "alloy" {
		t.Fatalf("expected default voice, got %q", cfg.TTS.Voice)
	}
}

func TestValidateRejectsBadQuality(t *testing.T) {
	cfg := config.Default()
	cfg.Render.Quality = "ultra"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown quality")
	}
}

func TestValidateRejectsBadSyncMethod(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.SyncMethod = "overlay"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown sync method")
	}
}

func TestEnsureDirectoriesAndJobWorkDir(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StorageDir = filepath.Join(dir, "store")
	cfg.Paths.WorkDir = filepath.Join(dir, "work")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, d := range []string{cfg.Paths.StorageDir, cfg.Paths.WorkDir, cfg.Paths.LogDir} {
		if !fileExists(d) {
			t.Fatalf("expected directory %s to exist", d)
		}
	}

	jobDir := cfg.JobWorkDir("job-123")
	if !strings.HasPrefix(jobDir, cfg.Paths.WorkDir) {
		t.Fatalf("job work dir %s not under work dir", jobDir)
	}
	if filepath.Base(jobDir) != "job-123" {
		t.Fatalf("job work dir %s not namespaced by job id", jobDir)
	}
}

func TestSampleConfigParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected WriteSample to refuse overwrite")
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
