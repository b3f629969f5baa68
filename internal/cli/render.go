package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chenaaron3/shortsgen/internal/manifest"
	"github.com/chenaaron3/shortsgen/internal/pipeline"
)

var (
	renderOutput  string
	renderWorkers int
	renderStyle   string
	renderMusic   string
)

var renderCmd = &cobra.Command{
	Use:   "render <cache-key>",
	Short: "Render a prepared manifest to an mp4",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output mp4 path (default: cache/<key>/video.mp4)")
	renderCmd.Flags().IntVarP(&renderWorkers, "workers", "j", 0, "rasterizer workers (0 = auto)")
	renderCmd.Flags().StringVar(&renderStyle, "style", "", "caption style: pop or highlight")
	renderCmd.Flags().StringVar(&renderMusic, "music", "", "background music file")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	key := args[0]
	cfg, layout, err := loadConfig()
	if err != nil {
		return err
	}
	if renderWorkers > 0 {
		cfg.Render.Workers = renderWorkers
	}
	if renderStyle != "" {
		cfg.Captions.Style = renderStyle
	}
	if renderMusic != "" {
		cfg.Audio.MusicPath = renderMusic
	}

	m, err := manifest.Load(layout.ManifestPath(key))
	if err != nil {
		return err
	}

	outPath := renderOutput
	if outPath == "" {
		outPath = layout.Path(key, "video.mp4")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return pipeline.Render(ctx, cfg, layout, m, outPath)
}
