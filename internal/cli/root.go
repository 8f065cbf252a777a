package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/redline/internal/config"
)

const version = "0.1.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitBlocked      = 1
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

var flagEnvFile string

var rootCmd = &cobra.Command{
	Use:   "redline",
	Short: "Redact secrets before source files reach an LLM",
	Long: "Redline stages source files under an admission policy, scans them for secrets, " +
		"redacts what it finds, and only then sends them to an LLM provider for analysis.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv(flagEnvFile)
	},
}

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}

	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print redline version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "redline version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "Load provider keys from this dotenv file if it exists")
}
