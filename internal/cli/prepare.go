package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chenaaron3/shortsgen/internal/pipeline"
)

var prepareMaxScenes int

var prepareCmd = &cobra.Command{
	Use:   "prepare <cache-key>",
	Short: "Build manifest.json from cached pipeline artifacts",
	Long: `Assemble the render manifest for a cache key whose generation stages have
already run: copy scene assets into the public directory, measure voice clips,
transcribe captions, and write manifest.json plus the index entry.`,
	Args: cobra.ExactArgs(1),
	RunE: runPrepare,
}

func init() {
	prepareCmd.Flags().IntVar(&prepareMaxScenes, "max-scenes", 0, "prepare only the first N scenes (0 = all)")
	rootCmd.AddCommand(prepareCmd)
}

func runPrepare(cmd *cobra.Command, args []string) error {
	cfg, layout, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, err = pipeline.Prepare(ctx, cfg, layout, args[0], prepareMaxScenes)
	return err
}
