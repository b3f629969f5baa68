package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chenaaron3/shortsgen/internal/pipeline"
)

var (
	maxScenes  int
	skipRender bool
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline <content-file>",
	Short: "Run the full pipeline: script, assets, manifest, render",
	Long: `Run every stage for one piece of source text. Stages are cached by
content hash under the cache directory, so re-running after a failure or an
edit to a later stage's config only redoes the missing work.`,
	Args: cobra.ExactArgs(1),
	RunE: runPipeline,
}

func init() {
	pipelineCmd.Flags().IntVar(&maxScenes, "max-scenes", 0, "limit scene count for quick iterations (0 = all)")
	pipelineCmd.Flags().BoolVar(&skipRender, "skip-render", false, "stop after writing the manifest")
	rootCmd.AddCommand(pipelineCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read content file: %w", err)
	}
	if len(content) == 0 {
		return fmt.Errorf("content file %s is empty", args[0])
	}

	cfg, layout, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	key, err := pipeline.Run(ctx, cfg, layout, string(content), pipeline.Options{
		MaxScenes:  maxScenes,
		SkipRender: skipRender,
	})
	if err != nil {
		return err
	}
	slog.Info("pipeline complete", "key", key)
	return nil
}
