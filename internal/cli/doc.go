// Package cli wires together the Cobra command tree for the redline binary.
//
// It defines the root command and all subcommands (analyze, scan, serve,
// config, cache, models, hook, version), binds flags, reads configuration,
// builds the staging pipeline, and returns deterministic exit codes so a
// blocked transmission can fail a CI job or a pre-commit hook.
package cli
