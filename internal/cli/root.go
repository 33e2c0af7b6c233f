package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/blz-dev/blz/internal/blzconfig"
	"github.com/blz-dev/blz/internal/fetcher"
	"github.com/blz-dev/blz/internal/lifecycle"
	"github.com/blz-dev/blz/internal/shardcache"
	"github.com/blz-dev/blz/internal/store"
)

var (
	configPathFlag string
	dataRootFlag   string
	verbose        bool

	cfg        blzconfig.Config
	manager    *store.Manager
	controller *lifecycle.Controller
	shards     *shardcache.Cache
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "blz",
	Short: "A local-first full-text search cache for llms.txt documentation",
	Long: `blz fetches, parses, and indexes llms.txt-style documentation bundles on
disk, so an agent or script can search a library's docs without a network
round trip on every query.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "help", "completion", "version":
			return nil
		}

		path := configPathFlag
		if path == "" {
			if p, err := blzconfig.DefaultConfigPath(); err == nil {
				path = p
			}
		}
		loaded, err := blzconfig.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if dataRootFlag != "" {
			cfg.DataRoot = dataRootFlag
		}

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelInfo
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		manager = store.NewManager(cfg.DataRoot, cfg.ArchiveRetention)
		controller = lifecycle.New(manager, fetcher.Config{
			MaxBytes:      cfg.MaxResponseBytes,
			Timeout:       time.Duration(cfg.FetchTimeoutSeconds) * time.Second,
			RedirectLimit: cfg.RedirectLimit,
			UserAgent:     "blz/1 (+https://github.com/blz-dev/blz)",
		})
		shards, err = shardcache.New(manager, 32, controller)
		if err != nil {
			return fmt.Errorf("failed to initialize shard cache: %w", err)
		}
		return nil
	},
}

// Execute runs the CLI and returns the error cobra produced, if any.
// Callers should translate it to a process exit code with ExitCode.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output structured JSON instead of text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "raise log verbosity to info")
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "path to config.toml (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&dataRootFlag, "data-root", "", "override the data directory for sources")
}
