// Redline is a local-first CLI that keeps secrets out of LLM code analysis.
//
// It stages a batch of source files under an admission policy, scans what
// survives for secret-like strings, redacts them, and only then hands the
// files to an LLM provider. Exit codes are deterministic so a blocked
// transmission can fail CI or a pre-commit hook.
//
// Usage:
//
//	redline analyze ./src             # stage, redact and analyze a directory
//	redline analyze - < main.go       # analyze a snippet from stdin
//	redline scan . --git              # dry run over tracked files, nothing sent
//	redline scan . --write /tmp/out   # write the redacted copies
//	redline serve                     # HTTP staging API on 127.0.0.1:8787
//	redline hook install              # block commits that contain secrets
package main
