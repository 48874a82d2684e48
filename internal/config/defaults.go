package config

import (
	"os"
	"path/filepath"
)

// Default returns the built-in configuration defaults.
func Default() *Config {
	base := defaultBaseDir()
	return &Config{
		Paths: Paths{
			StorageDir: filepath.Join(base, "media", "videos"),
			WorkDir:    filepath.Join(base, "work"),
			LogDir:     filepath.Join(base, "logs"),
		},
		LLM: LLM{
			BaseURL:        "https://api.anthropic.com/v1/messages",
			Model:          "claude-sonnet-4-5",
			MaxTokens:      4000,
			TimeoutSeconds: 120,
		},
		TTS: TTS{
			BaseURL:        "https://api.openai.com/v1/audio/speech",
			Model:          "tts-1",
			Voice:          "alloy",
			Speed:          0.85,
			Format:         "mp3",
			TimeoutSeconds: 60,
		},
		Media: Media{
			FFmpegBinary:   "ffmpeg",
			TimeoutSeconds: 120,
		},
		Render: Render{
			Binary:         "manim",
			Quality:        "m",
			PythonBinary:   "python3",
			TimeoutSeconds: 600,
		},
		Pipeline: Pipeline{
			IncludeAudio:       true,
			SyncMethod:         "timing_analysis",
			TwoPassSync:        false,
			SubtitleFormat:     "srt",
			SegmentConcurrency: 4,
			ScriptAttempts:     3,
		},
		Workflow: Workflow{
			RetentionDays:        7,
			SweepIntervalSeconds: 3600,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}

func defaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "arivid")
	}
	return filepath.Join(home, ".local", "share", "arivid")
}
