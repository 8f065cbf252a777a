// Package source turns a directory or a git work tree into admission
// candidates. Files are listed eagerly but read lazily, so content is only
// loaded for candidates that pass the admission checks.
package source
