package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chenaaron3/shortsgen/internal/pipeline"
	"github.com/chenaaron3/shortsgen/internal/upload"
)

var (
	uploadFile string
	uploadTags []string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <cache-key>",
	Short: "Upload a rendered video to YouTube",
	Long: `Upload the rendered video for a cache key as a YouTube Short. Title and
description come from the cached chunks.json; visibility and category from
the config.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadFile, "file", "", "video file (default: cache/<key>/video.mp4)")
	uploadCmd.Flags().StringSliceVar(&uploadTags, "tag", nil, "video tags (repeatable)")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	key := args[0]
	cfg, layout, err := loadConfig()
	if err != nil {
		return err
	}

	videoFile := uploadFile
	if videoFile == "" {
		videoFile = layout.Path(key, "video.mp4")
	}
	if _, err := os.Stat(videoFile); err != nil {
		return fmt.Errorf("no video at %s: run `shortsgen render %s` first", videoFile, key)
	}

	chunks, err := pipeline.LoadChunks(layout.Path(key, "chunks.json"))
	if err != nil {
		return fmt.Errorf("upload needs chunks metadata: %w", err)
	}

	title := chunks.Title
	if !strings.Contains(title, "#Shorts") {
		title += " #Shorts"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, url, err := upload.New(cfg).Upload(ctx, videoFile, upload.Metadata{
		Title:       title,
		Description: chunks.Description,
		Tags:        uploadTags,
	})
	if err != nil {
		return err
	}
	fmt.Println(url)
	return nil
}
