// Package cache provides a file-based cache for raw LLM analysis responses.
//
// Entries are keyed by a BLAKE3 digest of the provider name, model and the
// exact payload that passed the transmission gate, so only content that was
// already cleared for sending is ever written. Each entry stores the raw
// response with a creation timestamp and a TTL in seconds; expired entries
// are skipped on read.
//
// The default directory is $XDG_CACHE_HOME/redline or the OS equivalent.
package cache
