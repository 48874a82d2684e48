// Package render drives the external animation engine that turns generated
// scripts into video files.
package render
