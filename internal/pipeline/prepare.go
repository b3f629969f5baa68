package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/chenaaron3/shortsgen/internal/cache"
	"github.com/chenaaron3/shortsgen/internal/config"
	"github.com/chenaaron3/shortsgen/internal/manifest"
	"github.com/chenaaron3/shortsgen/internal/system"
)

// Prepare assembles a renderable manifest from the cached pipeline artifacts:
// it copies scene assets into public/shortgen/{key}/, measures each voice
// clip, transcribes captions, and writes manifest.json plus the index entry.
// Asset paths in the manifest are relative to the key's public directory.
// maxScenes > 0 prepares only the first scenes, matching a capped run.
func Prepare(ctx context.Context, cfg *config.Config, layout cache.Layout, key string, maxScenes int) (*manifest.Manifest, error) {
	chunks, err := LoadChunks(layout.Path(key, "chunks.json"))
	if err != nil {
		return nil, fmt.Errorf("prepare: %w (run the generation stages first)", err)
	}
	chunks = capScenes(chunks, maxScenes)
	if len(chunks.Scenes) == 0 {
		return nil, fmt.Errorf("prepare: chunks for %s contain no scenes", key)
	}

	publicDir := layout.PublicPath(key)
	for _, sub := range []string{"images", "voice"} {
		if err := cache.EnsureDir(filepath.Join(publicDir, sub)); err != nil {
			return nil, err
		}
	}

	scenes := make([]manifest.Scene, len(chunks.Scenes))
	clips := make([]string, len(chunks.Scenes))
	durations := make([]float64, len(chunks.Scenes))
	for i, scene := range chunks.Scenes {
		srcImage := imagePath(layout, key, i)
		srcVoice := voicePath(layout, key, i)
		if !cache.Exists(srcImage) || !cache.Exists(srcVoice) {
			return nil, fmt.Errorf("prepare: scene %d is missing generated assets", i)
		}

		imageRel := filepath.Join("images", fmt.Sprintf("scene_%d.png", i))
		voiceRel := filepath.Join("voice", fmt.Sprintf("scene_%d.mp3", i))
		if err := copyFile(srcImage, filepath.Join(publicDir, imageRel)); err != nil {
			return nil, fmt.Errorf("prepare: scene %d image: %w", i, err)
		}
		if err := copyFile(srcVoice, filepath.Join(publicDir, voiceRel)); err != nil {
			return nil, fmt.Errorf("prepare: scene %d voice: %w", i, err)
		}

		dur, err := system.GetAudioDuration(srcVoice)
		if err != nil {
			return nil, fmt.Errorf("prepare: scene %d duration: %w", i, err)
		}
		clips[i] = srcVoice
		durations[i] = dur
		scenes[i] = manifest.Scene{
			Text:              scene.Text,
			ImagePath:         imageRel,
			VoicePath:         voiceRel,
			DurationInSeconds: dur,
		}
	}

	captions, err := TranscribeScenes(ctx, cfg, layout, key, chunks, clips, durations)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}

	totalFrames := 0
	for _, dur := range durations {
		frames := int(math.Ceil(dur * float64(cfg.Video.FPS)))
		if frames < 1 {
			frames = 1
		}
		totalFrames += frames
	}

	m := &manifest.Manifest{
		CacheKey:         key,
		FPS:              cfg.Video.FPS,
		Width:            cfg.Video.Width,
		Height:           cfg.Video.Height,
		DurationInFrames: totalFrames,
		Scenes:           scenes,
		Captions:         captions,
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("prepare: built invalid manifest: %w", err)
	}
	if err := manifest.Write(m, layout.ManifestPath(key)); err != nil {
		return nil, fmt.Errorf("prepare: writing manifest: %w", err)
	}

	if err := registerKey(layout, key); err != nil {
		return nil, err
	}

	slog.Info("manifest prepared",
		"key", key,
		"scenes", len(scenes),
		"captions", len(captions),
		"frames", totalFrames)
	return m, nil
}

// registerKey adds key to index.json if not already present.
func registerKey(layout cache.Layout, key string) error {
	idx, err := manifest.LoadIndex(layout.IndexPath())
	if err != nil {
		return err
	}
	if slices.Contains(idx.CacheKeys, key) {
		return nil
	}
	idx.CacheKeys = append(idx.CacheKeys, key)
	return manifest.WriteIndex(idx, layout.IndexPath())
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
