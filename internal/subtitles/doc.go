// Package subtitles renders narration cues as SRT or WebVTT files, either
// from reconciled audio timing or by chunking a block of narration evenly
// across the video.
package subtitles
