package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chenaaron3/shortsgen/internal/cache"
	"github.com/chenaaron3/shortsgen/internal/config"
	"github.com/chenaaron3/shortsgen/internal/system"
)

var (
	configPath string
	verbose    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "shortsgen",
	Short: "Generate short vertical videos from raw text",
	Long: `Shortsgen turns a piece of source text into a rendered vertical video:
an LLM writes and chunks the script, each scene gets a generated illustration
and narration, whisper produces word-level captions, and a deterministic
compositor renders the result through ffmpeg.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
		system.InitResourceLimits()
	},
	SilenceUsage: true,
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelError
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// loadConfig reads the config file named by --config plus environment secrets.
func loadConfig() (*config.Config, cache.Layout, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, cache.Layout{}, err
	}
	layout := cache.Layout{CacheDir: cfg.Paths.CacheDir, PublicDir: cfg.Paths.PublicDir}
	return cfg, layout, nil
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "shortsgen.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
}
