package admission

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidPolicy is wrapped by every error returned from [New].
var ErrInvalidPolicy = errors.New("invalid admission policy")

// Policy configures admission limits and filters.
type Policy struct {
	MaxFileCount      int      `json:"maxFileCount" yaml:"maxFileCount" validate:"gt=0"`
	MaxFileSizeBytes  int64    `json:"maxFileSizeBytes" yaml:"maxFileSizeBytes" validate:"gt=0"`
	MaxTotalSizeBytes int64    `json:"maxTotalSizeBytes" yaml:"maxTotalSizeBytes" validate:"gt=0,gtefield=MaxFileSizeBytes"`
	IgnoredSegments   []string `json:"ignoredSegments" yaml:"ignoredSegments" validate:"dive,required"`
	SensitivePatterns []string `json:"sensitivePatterns" yaml:"sensitivePatterns" validate:"dive,required"`
	AllowSensitive    bool     `json:"allowSensitive" yaml:"allowSensitive"`
	// Workers is the number of files decoded in parallel. Values below 2
	// decode sequentially.
	Workers int `json:"workers" yaml:"workers" validate:"gte=0,lte=64"`
}

const (
	DefaultMaxFileCount      = 300
	DefaultMaxFileSizeBytes  = 1 << 20
	DefaultMaxTotalSizeBytes = 6 << 20
	DefaultWorkers           = 4
)

// DefaultIgnoredSegments are dependency, build output and version control
// directories.
var DefaultIgnoredSegments = []string{
	"node_modules", ".git", ".svn", ".hg",
	"dist", "build", "out", "target", "coverage",
	".next", ".nuxt", ".cache", "vendor",
	"__pycache__", ".venv", "venv",
	".idea", ".vscode",
}

// DefaultSensitivePatterns are file name globs for environment files, keys,
// certificates and credential stores. A pattern containing a slash is
// matched against the whole path.
var DefaultSensitivePatterns = []string{
	".env", ".env.*", "*.env",
	"*.pem", "*.key", "*.p12", "*.pfx", "*.crt", "*.cer", "*.der",
	"*.jks", "*.keystore", "*.kdbx",
	"id_rsa*", "id_dsa*", "id_ecdsa*", "id_ed25519*",
	"*credential*", "*secret*",
	".npmrc", ".pypirc", ".netrc", ".htpasswd",
}

// DefaultPolicy returns the built-in limits and filters.
func DefaultPolicy() Policy {
	return Policy{
		MaxFileCount:      DefaultMaxFileCount,
		MaxFileSizeBytes:  DefaultMaxFileSizeBytes,
		MaxTotalSizeBytes: DefaultMaxTotalSizeBytes,
		IgnoredSegments:   append([]string(nil), DefaultIgnoredSegments...),
		SensitivePatterns: append([]string(nil), DefaultSensitivePatterns...),
		Workers:           DefaultWorkers,
	}
}

var validate = validator.New()

// Validate checks limits and pattern syntax.
func (p Policy) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	for _, pat := range p.SensitivePatterns {
		if _, err := path.Match(strings.ToLower(pat), ""); err != nil {
			return fmt.Errorf("%w: sensitive pattern %q: %v", ErrInvalidPolicy, pat, err)
		}
	}
	return nil
}

// segmentMatcher reports whether a path contains an ignored segment as a
// full component: "/seg/", "\seg\" or a leading "seg/".
type segmentMatcher []string

func newSegmentMatcher(segments []string) segmentMatcher {
	m := make(segmentMatcher, 0, len(segments))
	for _, s := range segments {
		m = append(m, strings.ToLower(s))
	}
	return m
}

func (m segmentMatcher) match(p string) bool {
	lower := strings.ToLower(p)
	for _, seg := range m {
		if strings.Contains(lower, "/"+seg+"/") ||
			strings.Contains(lower, `\`+seg+`\`) ||
			strings.HasPrefix(lower, seg+"/") {
			return true
		}
	}
	return false
}

// globMatcher matches sensitive name patterns case-insensitively.
type globMatcher []string

func newGlobMatcher(patterns []string) globMatcher {
	m := make(globMatcher, 0, len(patterns))
	for _, p := range patterns {
		m = append(m, strings.ToLower(p))
	}
	return m
}

func (m globMatcher) match(p string) bool {
	full := strings.ToLower(strings.ReplaceAll(p, `\`, "/"))
	base := path.Base(full)
	for _, pattern := range m {
		if !strings.Contains(pattern, "/") {
			if ok, _ := path.Match(pattern, base); ok {
				return true
			}
			continue
		}
		if ok, _ := path.Match(pattern, full); ok {
			return true
		}
		// "**/name" also matches name at any depth
		if clean := strings.TrimPrefix(pattern, "**/"); clean != pattern {
			if ok, _ := path.Match(clean, base); ok {
				return true
			}
			if ok, _ := path.Match(clean, full); ok {
				return true
			}
		}
	}
	return false
}
