package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/redline/internal/config"
)

var (
	flagConfigForce  bool
	flagConfigYAML   bool
	flagConfigFormat string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage redline configuration",
	Long: `Settings are layered: built-in defaults, then the config file, then
REDLINE_* environment variables, then command-line flags. The admission
limits and redaction switches are regular keys, so policy can change
without a rebuild.`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file redline reads",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		state := "exists"
		if _, err := os.Stat(path); err != nil {
			state = "not created yet"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", path, state)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to a new file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		if flagConfigYAML && os.Getenv("REDLINE_CONFIG") == "" {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			path = filepath.Join(dir, "config.yaml")
		}

		if err := config.Init(path, flagConfigForce); err != nil {
			if _, statErr := os.Stat(path); statErr == nil && !flagConfigForce {
				fmt.Fprintf(os.Stderr, "Config file already exists at %s (use --force to overwrite)\n", path)
				return nil
			}
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one key in the config file",
	Long:  "Change one key in the config file. The result is validated before it is saved.\n\nKeys: " + strings.Join(config.Keys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		key, value := args[0], args[1]
		if err := config.Set(path, key, value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (saved to %s)\n", key, value, path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration after every layer is applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		switch flagConfigFormat {
		case "", "json":
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		case "yaml", "yml":
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		default:
			return fmt.Errorf("unknown format %q (use json or yaml)", flagConfigFormat)
		}
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
	configInitCmd.Flags().BoolVar(&flagConfigForce, "force", false, "Overwrite an existing config file")
	configInitCmd.Flags().BoolVar(&flagConfigYAML, "yaml", false, "Write config.yaml instead of config.json")
	configShowCmd.Flags().StringVar(&flagConfigFormat, "format", "json", "Output format (json, yaml)")
}
