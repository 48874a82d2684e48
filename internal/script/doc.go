// Package script generates animation scripts from natural-language prompts,
// refining structurally unsound drafts and repairing scripts that failed to
// render.
package script
