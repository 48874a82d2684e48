// Package tts wraps the speech synthesis provider and owns voice selection.
package tts
