// Package media wraps the external media engine (ffmpeg) behind typed
// operations: duration probing, silence generation, padding, lossless
// concatenation, and audio/video muxing. All invocations run under a
// configurable timeout; the duration probe degrades to an advisory fallback
// instead of failing.
package media
