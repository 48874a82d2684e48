// Package workflow supervises video generation jobs end to end: script
// generation, rendering with one repair retry, audio synthesis and
// synchronization, and final muxing. Each job runs as an independent
// background task; status transitions persist through the queue store.
package workflow
