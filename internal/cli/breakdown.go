package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chenaaron3/shortsgen/internal/cache"
	"github.com/chenaaron3/shortsgen/internal/pipeline"
)

var (
	maxNuggets     int
	breakdownOnly  bool
	sourceMax      int
	sourceNoRender bool
)

var breakdownCmd = &cobra.Command{
	Use:   "breakdown <source-file>",
	Short: "Split long source material into nuggets and make one video each",
	Long: `Break a long source document (a book chapter, an essay, a transcript)
into atomic idea nuggets, then run the full pipeline once per nugget. The
breakdown is cached by source hash under cache/_breakdowns/, and a videos.md
index next to it links every generated video.`,
	Args: cobra.ExactArgs(1),
	RunE: runBreakdown,
}

func init() {
	breakdownCmd.Flags().IntVar(&maxNuggets, "max-nuggets", 0, "only process the first N nuggets (0 = config default)")
	breakdownCmd.Flags().BoolVar(&breakdownOnly, "breakdown-only", false, "print the nugget list and stop before the pipeline")
	breakdownCmd.Flags().IntVar(&sourceMax, "max-scenes", 0, "limit scene count per nugget (0 = all)")
	breakdownCmd.Flags().BoolVar(&sourceNoRender, "skip-render", false, "stop each nugget after writing its manifest")
	rootCmd.AddCommand(breakdownCmd)
}

func runBreakdown(cmd *cobra.Command, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read source file: %w", err)
	}
	if len(source) == 0 {
		return fmt.Errorf("source file %s is empty", args[0])
	}

	cfg, layout, err := loadConfig()
	if err != nil {
		return err
	}
	limit := maxNuggets
	if limit == 0 {
		limit = cfg.Breakdown.MaxNuggets
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if breakdownOnly {
		if cfg.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is not set")
		}
		openai := pipeline.NewOpenAIClient(cfg.OpenAIKey, slog.Default())
		bd, err := pipeline.BreakdownSource(ctx, openai, cfg, layout, cache.Key(string(source)), string(source), limit)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(bd, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	keys, err := pipeline.RunSource(ctx, cfg, layout, string(source), filepath.Base(args[0]), limit, pipeline.Options{
		MaxScenes:  sourceMax,
		SkipRender: sourceNoRender,
	})
	if err != nil {
		return err
	}
	slog.Info("source pipeline complete", "videos", len(keys))
	return nil
}
