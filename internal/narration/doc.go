// Package narration generates spoken narration cues for rendered animations,
// either aligned to a per-segment timing plan or as one block of text sized
// to the full video duration.
package narration
