package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/redline/internal/config"
	"github.com/dshills/redline/internal/server"
	"github.com/dshills/redline/internal/session"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the staging API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides := map[string]string{"addr": flagAddr}
		if flagProvider != "" {
			overrides["provider"] = flagProvider
		}
		if flagModel != "" {
			overrides["model"] = flagModel
		}
		cfg, err := config.Load(overrides)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := runServe(ctx, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
		}
		return nil
	},
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	deps, err := newDeps(cfg, logger)
	if err != nil {
		return err
	}
	idle := time.Duration(cfg.Server.SessionIdleSeconds) * time.Second
	srv := server.New(session.NewStore(deps, idle), server.Options{
		Defaults: session.Options{
			Redact:          cfg.Privacy.RedactSecrets,
			AllowUnredacted: cfg.Privacy.AllowUnredacted,
		},
		Version: version,
		Logger:  logger,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(cfg.Server.Addr) }()
	fmt.Fprintf(os.Stderr, "redline listening on http://%s\n", cfg.Server.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider (anthropic, openai, ollama, lmstudio)")
	serveCmd.Flags().StringVar(&flagModel, "model", "", "Model name")
}
