// Package timeline reconciles planned animation timing against measured
// narration durations and assembles the resulting audio track. Short clips
// are padded with silence up to their visual slot, overrunning clips are
// never trimmed, and the final track is strictly sequential.
package timeline
