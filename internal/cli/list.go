package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chenaaron3/shortsgen/internal/manifest"
	"github.com/chenaaron3/shortsgen/internal/pipeline"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List prepared videos",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	_, layout, err := loadConfig()
	if err != nil {
		return err
	}

	idx, err := manifest.LoadIndex(layout.IndexPath())
	if err != nil {
		return err
	}
	if len(idx.CacheKeys) == 0 {
		fmt.Println("no prepared videos")
		return nil
	}

	for _, key := range idx.CacheKeys {
		m, err := manifest.Load(layout.ManifestPath(key))
		if err != nil {
			fmt.Printf("%s  (unreadable: %v)\n", key, err)
			continue
		}

		title := ""
		if chunks, err := pipeline.LoadChunks(layout.Path(key, "chunks.json")); err == nil {
			title = chunks.Title
		}
		seconds := float64(m.DurationInFrames) / float64(m.FPS)
		fmt.Printf("%s  %2d scenes  %5.1fs  %s\n", key, len(m.Scenes), seconds, title)
	}
	return nil
}
