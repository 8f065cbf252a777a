package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/dshills/redline/internal/admission"
	"github.com/dshills/redline/internal/analysis"
	"github.com/dshills/redline/internal/cache"
	"github.com/dshills/redline/internal/config"
	"github.com/dshills/redline/internal/gate"
	"github.com/dshills/redline/internal/logging"
	"github.com/dshills/redline/internal/providers"
	"github.com/dshills/redline/internal/session"
	"github.com/dshills/redline/internal/source"
)

var warnColor = color.New(color.FgYellow, color.Bold)

func warnf(format string, args ...interface{}) {
	warnColor.Fprintf(os.Stderr, "WARNING: "+format+"\n", args...)
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}
	return logger, nil
}

func modelFor(cfg config.Config) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	return providers.DefaultModel(cfg.Provider)
}

// newAnalyzerFunc defers provider construction to each analyze attempt so
// a missing credential surfaces as a blocked outcome rather than a startup
// failure.
func newAnalyzerFunc(cfg config.Config, logger *zap.Logger) func() (session.Analyzer, error) {
	return func() (session.Analyzer, error) {
		model := modelFor(cfg)
		p, err := providers.New(cfg.Provider, model, providers.Options{Logger: logger})
		if err != nil {
			return nil, err
		}
		c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
		if err != nil {
			return nil, fmt.Errorf("opening cache: %w", err)
		}
		return analysis.New(p, analysis.Options{
			Model:       model,
			MaxFindings: cfg.MaxFindings,
			Cache:       c,
			Logger:      logger,
		}), nil
	}
}

func newDeps(cfg config.Config, logger *zap.Logger) (session.Deps, error) {
	ctrl, err := admission.New(cfg.Admission, logger)
	if err != nil {
		return session.Deps{}, err
	}
	return session.Deps{
		Admission:   ctrl,
		Gate:        gate.New(nil, logger),
		NewAnalyzer: newAnalyzerFunc(cfg, logger),
		Logger:      logger,
	}, nil
}

// collect turns the command target into candidates. "-" reads one file
// from stdin named by --stdin-name.
func collect(target string, cfg config.Config) ([]admission.RawFile, error) {
	if target == "-" {
		f, err := source.Reader(flagStdinName, os.Stdin)
		if err != nil {
			return nil, err
		}
		return []admission.RawFile{f}, nil
	}

	opts := source.Options{
		Include: cfg.Include,
		Exclude: cfg.Exclude,
		Git:     flagGit,
	}
	if flagPaths != "" {
		opts.Include = splitComma(flagPaths)
	}
	if flagExclude != "" {
		opts.Exclude = append(opts.Exclude, splitComma(flagExclude)...)
	}
	return source.Collect(target, opts)
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
