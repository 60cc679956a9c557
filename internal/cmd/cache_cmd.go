package cmd

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beyond-api/beyond-cli/internal/cache"
	"github.com/beyond-api/beyond-cli/internal/config"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		Aliases: []string{"ch"},
		Short:   "Manage the response cache",
		Long:    "Inspect or clear the cache used by 'beyond get'. Entries live in files or in Redis when redis_url is set.",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "clear",
			Short: "Remove all cached responses",
			Args:  cobra.NoArgs,
			RunE:  RunE(runCacheClear),
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show where cached responses are stored",
			Args:  cobra.NoArgs,
			RunE:  RunE(runCachePath),
		},
	)
	return cmd
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := cache.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.ClearAll(cmdContext(cmd)); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	_, location := cacheLocation(cfg)
	printMessage(cmd, "Cache cleared: %s\n", location)
	return nil
}

func runCachePath(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	backend, location := cacheLocation(cfg)
	if location == "" {
		return fmt.Errorf("could not determine cache directory")
	}
	if !isJSON(cmd) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), location)
		return nil
	}
	return printResult(cmd, map[string]any{
		"backend":  backend,
		"location": location,
		"ttl":      cfg.CacheTTL.Std().String(),
		"disabled": os.Getenv("BEYOND_NO_CACHE") != "",
	})
}

// cacheLocation names the backend and where its entries live: the Redis URL
// with the password redacted, or the cache directory. The location is empty
// when no cache directory can be found.
func cacheLocation(cfg config.Config) (backend, location string) {
	raw := strings.TrimSpace(cfg.RedisURL)
	if raw == "" {
		dir, err := cache.DefaultDir()
		if err != nil {
			return "file", ""
		}
		return "file", dir
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "redis", "redis"
	}
	return "redis", u.Redacted()
}
