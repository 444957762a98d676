// Package logtail reads the tail of tick's log file for the diagnostics view.
//
// Read keeps a ring buffer of the last maxLines lines, so memory stays
// bounded no matter how large the file grows. Classify tags each line with
// a severity the view uses for coloring.
package logtail
