package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StorageDir string `toml:"storage_dir"`
	WorkDir    string `toml:"work_dir"`
	LogDir     string `toml:"log_dir"`
}

// LLM contains connection settings for the script/timing/narration model.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	MaxTokens      int    `toml:"max_tokens"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TTS contains connection settings for the speech synthesis provider.
type TTS struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	Voice          string  `toml:"voice"`
	Speed          float64 `toml:"speed"`
	Format         string  `toml:"format"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Media contains configuration for the ffmpeg toolchain.
type Media struct {
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Render contains configuration for the animation render engine.
type Render struct {
	Binary         string `toml:"binary"`
	Quality        string `toml:"quality"`
	PythonBinary   string `toml:"python_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Pipeline contains per-job processing behavior.
type Pipeline struct {
	IncludeAudio       bool   `toml:"include_audio"`
	SyncMethod         string `toml:"sync_method"`
	TwoPassSync        bool   `toml:"two_pass_sync"`
	SubtitleFormat     string `toml:"subtitle_format"`
	SegmentConcurrency int    `toml:"segment_concurrency"`
	ScriptAttempts     int    `toml:"script_attempts"`
}

// Workflow contains daemon timing and retention settings.
type Workflow struct {
	RetentionDays        int `toml:"retention_days"`
	SweepIntervalSeconds int `toml:"sweep_interval_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the root configuration for the arivid daemon and CLI.
type Config struct {
	Paths    Paths    `toml:"paths"`
	LLM      LLM      `toml:"llm"`
	TTS      TTS      `toml:"tts"`
	Media    Media    `toml:"media"`
	Render   Render   `toml:"render"`
	Pipeline Pipeline `toml:"pipeline"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the path probed when no explicit config is given.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "arivid.toml")
	}
	return filepath.Join(home, ".config", "arivid", "config.toml")
}

// Load reads configuration from path, falling back to the default location and
// then to built-in defaults when no file exists. It returns the effective
// config, the path that was read (empty when defaults were used), and an error
// for unreadable or invalid files.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	resolved := strings.TrimSpace(path)
	explicit := resolved != ""
	if !explicit {
		resolved = DefaultConfigPath()
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, "", err
			}
			return cfg, "", nil
		}
		return nil, "", fmt.Errorf("read config %s: %w", resolved, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("parse config %s: %w", resolved, err)
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, resolved, nil
}

func (c *Config) applyEnvOverrides() {
	if key := strings.TrimSpace(os.Getenv("ARIVID_LLM_API_KEY")); key != "" {
		c.LLM.APIKey = key
	}
	if key := strings.TrimSpace(os.Getenv("ARIVID_TTS_API_KEY")); key != "" {
		c.TTS.APIKey = key
	}
	if dir := strings.TrimSpace(os.Getenv("ARIVID_STORAGE_DIR")); dir != "" {
		c.Paths.StorageDir = dir
	}
}

// EnsureDirectories creates the storage, work, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StorageDir, c.Paths.WorkDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// JobWorkDir returns the temp-file namespace for a single job. Paths are
// namespaced per job id so concurrent jobs never collide.
func (c *Config) JobWorkDir(jobID string) string {
	return filepath.Join(c.Paths.WorkDir, jobID)
}

// SampleConfig returns the annotated sample configuration file.
func SampleConfig() string {
	return sampleConfig
}

// WriteSample writes the sample config to path, refusing to overwrite.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
