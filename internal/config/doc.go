// Package config loads and merges redline configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (REDLINE_PROVIDER, REDLINE_MAX_FILES, REDLINE_REDACT, etc.)
//  3. Config file ($XDG_CONFIG_HOME/redline/config.json, or .yaml/.yml)
//  4. Built-in defaults
//
// Provider API keys are read from the environment; [LoadDotEnv] can populate
// it from a .env file first. Use [Load] to obtain a merged [Config], [Init]
// to write a default config file, and [Set] to update a single key in it.
package config
