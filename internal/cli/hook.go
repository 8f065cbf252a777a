package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/redline/internal/source"
)

const (
	hookMarkerStart = "# >>> redline pre-commit hook >>>"
	hookMarkerEnd   = "# <<< redline pre-commit hook <<<"
)

var (
	hookAllowSensitive bool
	hookPaths          string
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage git pre-commit hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install a pre-commit hook that blocks commits containing secrets",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		section := generateHookScript(hookPaths, hookAllowSensitive)

		existing, err := os.ReadFile(hookPath)
		if err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error reading hook file: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		var content string
		if os.IsNotExist(err) || len(existing) == 0 {
			content = "#!/bin/sh\n" + section
		} else {
			content = replaceHookSection(string(existing), section)
		}

		if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating hooks directory: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing hook file: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		fmt.Fprintf(os.Stdout, "Installed redline pre-commit hook at %s\n", hookPath)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove redline pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		existing, err := os.ReadFile(hookPath)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintln(os.Stdout, "No pre-commit hook found.")
				return nil
			}
			fmt.Fprintf(os.Stderr, "Error reading hook file: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		content := removeHookSection(string(existing))

		// Only the shebang left: delete the file.
		trimmed := strings.TrimSpace(content)
		if trimmed == "" || trimmed == "#!/bin/sh" || trimmed == "#!/bin/bash" {
			if err := os.Remove(hookPath); err != nil {
				fmt.Fprintf(os.Stderr, "Error removing hook file: %v\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
			fmt.Fprintf(os.Stdout, "Removed redline pre-commit hook at %s\n", hookPath)
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing hook file: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		fmt.Fprintf(os.Stdout, "Removed redline section from %s\n", hookPath)
		return nil
	},
}

func getHookPath() (string, error) {
	gitDir, err := source.GitDir(".")
	if err != nil {
		return "", fmt.Errorf("not a git repository (git rev-parse --git-dir failed)")
	}
	return filepath.Join(gitDir, "hooks", "pre-commit"), nil
}

// generateHookScript runs a scan with redaction off, so any secret blocks
// the transmission and the scan exits 1.
func generateHookScript(paths string, allowSensitive bool) string {
	args := "scan . --git --no-redact --format text"
	if paths != "" {
		args += " --paths '" + paths + "'"
	}
	if allowSensitive {
		args += " --allow-sensitive"
	}

	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	b.WriteString("redline " + args + "\n")
	b.WriteString("REDLINE_EXIT=$?\n")
	b.WriteString("if [ $REDLINE_EXIT -eq 1 ]; then\n")
	b.WriteString("  echo \"redline: secrets detected, commit blocked\"\n")
	b.WriteString("  exit 1\n")
	b.WriteString("elif [ $REDLINE_EXIT -ge 2 ]; then\n")
	b.WriteString("  echo \"redline: scan failed (exit $REDLINE_EXIT), allowing commit\"\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

func replaceHookSection(existing, section string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(hookMarkerEnd):]
	after = strings.TrimPrefix(after, "\n")
	return before + section + after
}

func removeHookSection(existing string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		return existing
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(hookMarkerEnd):]
	after = strings.TrimPrefix(after, "\n")

	return before + after
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookInstallCmd.Flags().StringVar(&hookPaths, "paths", "", "Only scan paths matching these globs (comma-separated)")
	hookInstallCmd.Flags().BoolVar(&hookAllowSensitive, "allow-sensitive", false, "Scan key and credential files instead of skipping them")
}
