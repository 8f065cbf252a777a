// Package output renders the result of a redline run for display or
// machine consumption.
//
// Two formats are supported:
//   - text: human-readable terminal output with colored warnings (default)
//   - json: the full structured document
//
// A [Document] gathers the admission outcome, the gate decision and, when
// the provider was called, the analysis report. Use [GetWriter] to obtain a
// [Writer] for a format string, or [WriteDocument] to handle destination
// selection as well.
package output
