package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/chenaaron3/shortsgen/internal/cache"
	"github.com/chenaaron3/shortsgen/internal/config"
)

const scriptSystemPrompt = `You are a scriptwriter for short vertical videos.
Turn the provided source material into a spoken script under 60 seconds long.

Structure:
- Hook: one or two punchy lines that earn attention in the first 3 seconds.
- Body: the core ideas, concrete and conversational, no filler.
- Close: a single line takeaway or call to action.

Rules:
- Write only words to be spoken aloud. No stage directions, no headings,
  no markdown, no emoji.
- Short sentences. Plain words. Active voice.`

// GenerateScript turns raw source content into a spoken script, cached at
// cache/{key}/script.md. A cached script is returned without calling the API.
func GenerateScript(ctx context.Context, client *OpenAIClient, cfg *config.Config, layout cache.Layout, key, content string) (string, error) {
	scriptPath := layout.Path(key, "script.md")
	if cache.Exists(scriptPath) {
		data, err := os.ReadFile(scriptPath)
		if err != nil {
			return "", fmt.Errorf("reading cached script: %w", err)
		}
		slog.Info("using cached script", "key", key)
		return string(data), nil
	}

	slog.Info("generating script", "key", key, "model", cfg.Script.Model)
	script, err := client.Chat(ctx, cfg.Script.Model, cfg.Script.Temperature, scriptSystemPrompt, content, false)
	if err != nil {
		return "", fmt.Errorf("generating script: %w", err)
	}
	if script == "" {
		return "", fmt.Errorf("script generation returned empty text")
	}

	if err := cache.EnsureDir(layout.Path(key)); err != nil {
		return "", err
	}
	if err := os.WriteFile(scriptPath, []byte(script), 0644); err != nil {
		return "", fmt.Errorf("caching script: %w", err)
	}
	return script, nil
}
