// Package queue persists video generation job status. The SQLite backend is
// the default; an in-memory backend exists for tests and ephemeral
// deployments. Updates use set-if-provided semantics keyed by job id so
// concurrent writers never clobber fields they did not touch.
package queue
