// Package scriptpatch modifies generated animation scripts after audio
// reconciliation, injecting hold calls so the visuals never finish before
// their narration. It also validates that patched scripts remain
// syntactically sound before a second render pass.
package scriptpatch
