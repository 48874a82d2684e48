// Package llm wraps the messages API that powers script generation, timing
// extraction, and narration composition. Responses are free text that usually
// contains JSON; DecodeJSON recovers the payload from fenced or prose-wrapped
// replies.
package llm
