package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/redline/internal/cache"
	"github.com/dshills/redline/internal/config"
	"github.com/dshills/redline/internal/output"
)

var (
	flagCacheExpired bool
	flagCacheJSON    bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or empty the local response cache",
	Long: `Provider responses are cached on disk, keyed by a digest of the provider,
the model and the exact payload that passed the transmission gate. The
cache holds responses only; staged file content is never written there.`,
}

// openCache opens the configured cache. Clearing passes force so entries
// written while caching was enabled can still be removed after it is off.
func openCache(force bool) (*cache.Cache, config.Config, error) {
	cfg, err := config.Load(nil)
	if err != nil {
		return nil, cfg, err
	}
	c, err := cache.New(force || cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		return nil, cfg, fmt.Errorf("opening cache: %w", err)
	}
	return c, cfg, nil
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached responses (all, or only expired ones with --expired)",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := openCache(true)
		if err != nil {
			return err
		}

		remove, what := c.Clear, "cached"
		if flagCacheExpired {
			remove, what = c.Prune, "expired"
		}
		n, err := remove()
		if err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}

		noun := "entries"
		if n == 1 {
			noun = "entry"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d %s %s from %s\n", n, what, noun, c.Dir())
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show where the cache lives and how much it holds",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cfg, err := openCache(false)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if !c.Enabled() {
			fmt.Fprintln(w, "Response caching is off (redline config set cacheEnabled true).")
			return nil
		}

		stats, err := c.GetStats()
		if err != nil {
			return fmt.Errorf("reading cache stats: %w", err)
		}
		if flagCacheJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		ttl := "never"
		if cfg.Cache.TTLSeconds > 0 {
			ttl = (time.Duration(cfg.Cache.TTLSeconds) * time.Second).String()
		}
		fmt.Fprintf(w, "Directory: %s\n", stats.Dir)
		fmt.Fprintf(w, "Entries:   %d (%d expired)\n", stats.Entries, stats.Expired)
		fmt.Fprintf(w, "Size:      %s\n", output.HumanBytes(stats.TotalBytes))
		fmt.Fprintf(w, "Expiry:    %s\n", ttl)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheClearCmd.Flags().BoolVar(&flagCacheExpired, "expired", false, "Only remove expired or unreadable entries")
	cacheShowCmd.Flags().BoolVar(&flagCacheJSON, "json", false, "Print statistics as JSON")
}
