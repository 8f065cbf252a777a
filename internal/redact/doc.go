// Package redact removes secrets from staged file content before it is sent
// to any analysis provider.
//
// Detection uses an ordered catalog of named regex heuristics: PEM private
// key blocks, cloud access key IDs and secret keys, provider API keys
// (Anthropic, OpenAI, Google), GitHub and Slack tokens, Stripe live keys,
// JWT and bearer tokens, and a generic quoted secret assignment that runs
// last. Every match is replaced with a typed placeholder such as
// [REDACTED:AWS_ACCESS_KEY_ID].
//
// Placeholders never match any catalog pattern, so scanning already
// redacted output finds nothing and an overlap between a specific pattern
// and the generic one is only counted once.
package redact
