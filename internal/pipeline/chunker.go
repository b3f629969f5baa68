package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chenaaron3/shortsgen/internal/cache"
	"github.com/chenaaron3/shortsgen/internal/config"
)

const chunkerSystemPrompt = `You split a spoken short-video script into scenes.

Respond with a JSON object of this exact shape:
{
  "title": "video title under 100 characters",
  "description": "one paragraph video description",
  "scenes": [
    {"text": "the exact words spoken in this scene",
     "imagery": "a vivid visual prompt for this scene's illustration",
     "section": "Hook"}
  ]
}

Rules:
- Each scene covers one idea and at most two sentences of the script.
- The scene texts, concatenated in order, must reproduce the script verbatim.
- section is one of "Hook", "Body", "Close".
- imagery describes a single concrete picture, no text or lettering in it.`

// ChunkScript splits a script into scenes with imagery prompts and upload
// metadata, cached as chunks.json. maxScenes > 0 truncates for quick runs.
func ChunkScript(ctx context.Context, client *OpenAIClient, cfg *config.Config, layout cache.Layout, key, script string, maxScenes int) (*Chunks, error) {
	chunksPath := layout.Path(key, "chunks.json")
	if cache.Exists(chunksPath) {
		chunks, err := LoadChunks(chunksPath)
		if err != nil {
			return nil, err
		}
		slog.Info("using cached chunks", "key", key, "scenes", len(chunks.Scenes))
		return capScenes(chunks, maxScenes), nil
	}

	slog.Info("chunking script", "key", key, "model", cfg.Script.Model)
	raw, err := client.Chat(ctx, cfg.Script.Model, cfg.Script.Temperature, chunkerSystemPrompt, script, true)
	if err != nil {
		return nil, fmt.Errorf("chunking script: %w", err)
	}

	var chunks Chunks
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &chunks); err != nil {
		return nil, fmt.Errorf("decoding chunks: %w", err)
	}
	if len(chunks.Scenes) == 0 {
		return nil, fmt.Errorf("chunker produced no scenes")
	}
	for i, s := range chunks.Scenes {
		if strings.TrimSpace(s.Text) == "" {
			return nil, fmt.Errorf("chunker produced empty text for scene %d", i)
		}
	}

	if err := WriteChunks(chunksPath, &chunks); err != nil {
		return nil, err
	}
	return capScenes(&chunks, maxScenes), nil
}

// LoadChunks reads a cached chunks.json.
func LoadChunks(path string) (*Chunks, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	var chunks Chunks
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("parsing chunks %s: %w", path, err)
	}
	return &chunks, nil
}

// WriteChunks persists chunks.json.
func WriteChunks(path string, chunks *Chunks) error {
	if err := cache.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding chunks: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing chunks: %w", err)
	}
	return nil
}

func capScenes(chunks *Chunks, maxScenes int) *Chunks {
	if maxScenes > 0 && len(chunks.Scenes) > maxScenes {
		slog.Info("limiting scenes", "from", len(chunks.Scenes), "to", maxScenes)
		capped := *chunks
		capped.Scenes = chunks.Scenes[:maxScenes]
		return &capped
	}
	return chunks
}

// stripCodeFence removes a ```json ... ``` wrapper some models emit even in
// JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
