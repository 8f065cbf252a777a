package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/redline/internal/config"
	"github.com/dshills/redline/internal/providers"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List providers and check that one is reachable",
}

// modelInfo describes a provider for listing. CredentialEnv is empty for
// providers that run locally without a key.
type modelInfo struct {
	Provider      string
	CredentialEnv string
	Models        []string
}

var knownModels = []modelInfo{
	{
		Provider:      "anthropic",
		CredentialEnv: "ANTHROPIC_API_KEY",
		Models:        []string{"claude-sonnet-4-20250514", "claude-opus-4-20250514", "claude-3-5-haiku-latest"},
	},
	{
		Provider:      "openai",
		CredentialEnv: "OPENAI_API_KEY",
		Models:        []string{"gpt-4o", "gpt-4o-mini", "gpt-4.1", "gpt-4.1-mini", "o3-mini"},
	},
	{
		Provider: "ollama",
		Models:   []string{"llama3", "llama3.1", "codellama", "qwen2.5-coder", "deepseek-coder-v2"},
	},
}

// credentialState reports whether a key is present without revealing it.
func credentialState(info modelInfo) string {
	switch {
	case info.CredentialEnv == "":
		return "local, no key needed"
	case os.Getenv(info.CredentialEnv) != "":
		return info.CredentialEnv + " set"
	default:
		return info.CredentialEnv + " missing"
	}
}

func writeModelList(w io.Writer, current string) {
	for _, info := range knownModels {
		marker := " "
		if info.Provider == current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s [%s]\n", marker, info.Provider, credentialState(info))
		def := providers.DefaultModel(info.Provider)
		for _, m := range info.Models {
			suffix := ""
			if m == def {
				suffix = " (default)"
			}
			fmt.Fprintf(w, "    %s%s\n", m, suffix)
		}
	}
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers, their models and whether a credential is set",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}
		writeModelList(cmd.OutOrStdout(), cfg.Provider)
		return nil
	},
}

// pingProvider sends a fixed prompt that carries no staged content, so a
// health check can never leak files.
func pingProvider(ctx context.Context, p providers.Provider) (time.Duration, error) {
	start := time.Now()
	_, err := p.Analyze(ctx, providers.Request{
		SystemPrompt: "Respond with exactly: ok",
		UserPrompt:   "ping",
		MaxTokens:    10,
	})
	return time.Since(start), err
}

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the configured provider accepts the credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		model := modelFor(cfg)
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Provider %s, model %s\n", cfg.Provider, model)

		p, err := providers.New(cfg.Provider, model, providers.Options{MaxRetries: 1})
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			exitCode = ExitAuthError
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		elapsed, err := pingProvider(ctx, p)
		switch {
		case providers.IsAuthError(err):
			fmt.Fprintf(os.Stderr, "FAIL: credential rejected: %v\n", err)
			exitCode = ExitAuthError
		case err != nil:
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			exitCode = ExitRuntimeError
		default:
			fmt.Fprintf(w, "OK: answered in %s\n", elapsed.Round(time.Millisecond))
		}
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)
	modelsDoctorCmd.Flags().StringVar(&flagProvider, "provider", "", "Provider to check")
	modelsDoctorCmd.Flags().StringVar(&flagModel, "model", "", "Model to check")
}
