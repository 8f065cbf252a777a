// Package gate decides what, if anything, leaves the machine. It always runs
// the redaction engine over the staged files and then either hands off the
// redacted copies, the originals, or nothing at all.
package gate
