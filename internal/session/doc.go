// Package session ties the pipeline together for one user. A Session owns
// its staged file set, admits new batches against it, and runs analyze
// attempts one at a time through the transmission gate and the analyzer.
//
// Store keeps sessions for the HTTP server and expires idle ones.
package session
