package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/redline/internal/config"
	"github.com/dshills/redline/internal/gate"
	"github.com/dshills/redline/internal/output"
	"github.com/dshills/redline/internal/providers"
	"github.com/dshills/redline/internal/redact"
	"github.com/dshills/redline/internal/session"
	"github.com/dshills/redline/internal/source"
)

// Shared staging flags
var (
	flagPaths           string
	flagExclude         string
	flagGit             bool
	flagStdinName       string
	flagProvider        string
	flagModel           string
	flagFormat          string
	flagOut             string
	flagMaxFindings     int
	flagMaxFiles        int
	flagMaxFileSize     string
	flagMaxTotalSize    string
	flagAllowSensitive  bool
	flagNoRedact        bool
	flagAllowUnredacted bool
)

// Scan-only flags
var flagWrite string

func addStagingFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagPaths, "paths", "", "Include file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().BoolVar(&flagGit, "git", false, "Select files with git ls-files instead of walking the directory")
	cmd.Flags().StringVar(&flagStdinName, "stdin-name", "stdin", "File name to use when the target is -")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().IntVar(&flagMaxFiles, "max-files", 0, "Maximum number of staged files")
	cmd.Flags().StringVar(&flagMaxFileSize, "max-file-size", "", "Maximum size of one file (e.g. 1MB)")
	cmd.Flags().StringVar(&flagMaxTotalSize, "max-total-size", "", "Maximum size of all staged files (e.g. 6MB)")
	cmd.Flags().BoolVar(&flagAllowSensitive, "allow-sensitive", false, "Stage files that look like keys or credential stores")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (sending is blocked if secrets are found)")
	cmd.Flags().BoolVar(&flagAllowUnredacted, "allow-unredacted", false, "With --no-redact, send files even when secrets are found")
}

func addProviderFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider (anthropic, openai, ollama, lmstudio)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().IntVar(&flagMaxFindings, "max-findings", 0, "Maximum number of findings")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagMaxFindings > 0 {
		m["maxFindings"] = strconv.Itoa(flagMaxFindings)
	}
	if flagMaxFiles > 0 {
		m["maxFiles"] = strconv.Itoa(flagMaxFiles)
	}
	if flagMaxFileSize != "" {
		m["maxFileSize"] = flagMaxFileSize
	}
	if flagMaxTotalSize != "" {
		m["maxTotalSize"] = flagMaxTotalSize
	}
	if flagAllowSensitive {
		m["allowSensitive"] = "true"
	}
	if flagNoRedact {
		m["redactSecrets"] = "false"
	}
	if flagAllowUnredacted {
		m["allowUnredacted"] = "true"
	}
	return m
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <path>",
	Short: "Stage files, redact secrets and send them for analysis",
	Long: "Stage a file or directory (or - for stdin), redact secrets, and send the result to the " +
		"configured LLM provider. Exits 1 when the transmission is blocked.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		runAnalyze(ctx, args[0], cfg)
		return nil
	},
}

func runAnalyze(ctx context.Context, target string, cfg config.Config) {
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return
	}
	defer logger.Sync()

	deps, err := newDeps(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return
	}

	candidates, err := collect(target, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	if !cfg.Privacy.RedactSecrets {
		warnf("secret redaction is disabled")
	}

	sess := session.New(deps)
	admitted := sess.Stage(candidates)
	res, err := sess.Analyze(ctx, session.Options{
		Redact:          cfg.Privacy.RedactSecrets,
		AllowUnredacted: cfg.Privacy.AllowUnredacted,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if providers.IsAuthError(err) {
			exitCode = ExitAuthError
		} else {
			exitCode = ExitRuntimeError
		}
		return
	}
	if res.Outcome.Override {
		warnf("%d secrets in %d files were sent unredacted",
			res.Outcome.Summary.TotalMatches, res.Outcome.Summary.FilesWithMatches)
	}

	doc := &output.Document{
		Tool:      "redline",
		Version:   version,
		Admission: output.NewAdmission(admitted),
		Gate:      res.Outcome,
		Report:    res.Report,
	}
	finish(doc, cfg)
}

var scanCmd = &cobra.Command{
	Use:   "scan <path>",
	Short: "Run admission and redaction without sending anything",
	Long: "Stage a file or directory (or - for stdin) and report what would be sent. " +
		"Nothing leaves the machine. Exits 1 when the transmission would be blocked.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		runScan(args[0], cfg)
		return nil
	},
}

func runScan(target string, cfg config.Config) {
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return
	}
	defer logger.Sync()

	deps, err := newDeps(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return
	}

	candidates, err := collect(target, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	sess := session.New(deps)
	admitted := sess.Stage(candidates)

	var outcome gate.Outcome
	if files := sess.Files(); len(files) == 0 {
		outcome = gate.Block(gate.ReasonNoFiles, redact.Summary{Patterns: []string{}})
	} else {
		outcome = deps.Gate.Prepare(files, cfg.Privacy.RedactSecrets, cfg.Privacy.AllowUnredacted)
	}

	if flagWrite != "" && !outcome.Blocked {
		if err := source.Write(flagWrite, outcome.Files); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing files: %v\n", err)
			exitCode = ExitRuntimeError
			return
		}
		fmt.Fprintf(os.Stderr, "Wrote %d files to %s\n", len(outcome.Files), flagWrite)
	}

	doc := &output.Document{
		Tool:      "redline",
		Version:   version,
		DryRun:    true,
		Admission: output.NewAdmission(admitted),
		Gate:      outcome,
	}
	finish(doc, cfg)
}

func finish(doc *output.Document, cfg config.Config) {
	if err := output.WriteDocument(doc, cfg.Format, flagOut, !color.NoColor); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	if doc.Gate.Blocked {
		exitCode = ExitBlocked
	}
}

func init() {
	for _, cmd := range []*cobra.Command{analyzeCmd, scanCmd} {
		addStagingFlags(cmd)
	}
	addProviderFlags(analyzeCmd)
	scanCmd.Flags().StringVar(&flagWrite, "write", "", "Write the files that would be sent into this directory")
}
