// Package logging builds the zap logger shared by the CLI and the HTTP
// server.
//
// Console output uses zap's development encoder on stderr so it never mixes
// with command output on stdout. When a file is configured, JSON lines are
// also written there through a lumberjack rotator.
package logging
