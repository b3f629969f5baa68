package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chenaaron3/shortsgen/internal/manifest"
	"github.com/chenaaron3/shortsgen/internal/pipeline"
	"github.com/chenaaron3/shortsgen/internal/storyboard"
)

var storyboardOutput string

var storyboardCmd = &cobra.Command{
	Use:   "storyboard <cache-key>",
	Short: "Write a reviewable YAML storyboard for a prepared manifest",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoryboard,
}

func init() {
	storyboardCmd.Flags().StringVarP(&storyboardOutput, "output", "o", "", "output path (default: cache/<key>/storyboard.yaml)")
	rootCmd.AddCommand(storyboardCmd)
}

func runStoryboard(cmd *cobra.Command, args []string) error {
	key := args[0]
	cfg, layout, err := loadConfig()
	if err != nil {
		return err
	}

	m, err := manifest.Load(layout.ManifestPath(key))
	if err != nil {
		return err
	}

	title := ""
	if chunks, err := pipeline.LoadChunks(layout.Path(key, "chunks.json")); err == nil {
		title = chunks.Title
	}

	outPath := storyboardOutput
	if outPath == "" {
		outPath = layout.Path(key, "storyboard.yaml")
	}

	sb := storyboard.Build(m, title, cfg.Captions.CombineThresholdMs)
	if err := storyboard.Write(sb, outPath); err != nil {
		return err
	}
	fmt.Println(outPath)
	return nil
}
