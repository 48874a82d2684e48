// Package artifacts stores finished videos and caption tracks on disk,
// keyed by job id, and streams them with byte-range support.
package artifacts
