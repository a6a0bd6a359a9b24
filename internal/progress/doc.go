// Package progress renders per-zoom download progress.
//
// The scheduler calls ZoomStarted before submitting a zoom, TileDone from the
// worker goroutines as each tile finishes, and ZoomFinished once the zoom has
// drained. Reporters must therefore accept concurrent TileDone calls.
package progress
