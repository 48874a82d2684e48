package config

import (
	"fmt"
	"strings"
)

var validQualities = map[string]struct{}{
	"l": {}, "m": {}, "h": {}, "p": {}, "k": {},
}

var validSyncMethods = map[string]struct{}{
	"timing_analysis": {}, "simple": {},
}

var validSubtitleFormats = map[string]struct{}{
	"srt": {}, "vtt": {},
}

// Validate checks configuration values that would otherwise fail deep inside
// a running job.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.StorageDir) == "" {
		return fmt.Errorf("config: paths.storage_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return fmt.Errorf("config: paths.work_dir must not be empty")
	}
	if quality := strings.TrimSpace(c.Render.Quality); quality != "" {
		if _, ok := validQualities[quality]; !ok {
			return fmt.Errorf("config: render.quality %q not one of l, m, h, p, k", quality)
		}
	}
	if method := strings.TrimSpace(c.Pipeline.SyncMethod); method != "" {
		if _, ok := validSyncMethods[method]; !ok {
			return fmt.Errorf("config: pipeline.sync_method %q not one of timing_analysis, simple", method)
		}
	}
	if format := strings.TrimSpace(c.Pipeline.SubtitleFormat); format != "" {
		if _, ok := validSubtitleFormats[format]; !ok {
			return fmt.Errorf("config: pipeline.subtitle_format %q not one of srt, vtt", format)
		}
	}
	if c.TTS.Speed != 0 && (c.TTS.Speed < 0.25 || c.TTS.Speed > 4.0) {
		return fmt.Errorf("config: tts.speed %.2f outside provider range 0.25-4.0", c.TTS.Speed)
	}
	if c.Pipeline.SegmentConcurrency < 0 {
		return fmt.Errorf("config: pipeline.segment_concurrency must not be negative")
	}
	if c.Workflow.RetentionDays < 0 {
		return fmt.Errorf("config: workflow.retention_days must not be negative")
	}
	return nil
}
