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

const breakdownSystemPrompt = `You break long source material (a book chapter,
an essay, a podcast transcript) into atomic idea nuggets. Each nugget is one
self-contained idea that could carry a short video on its own.

Respond with a JSON object of this exact shape:
{
  "nuggets": [
    {"id": "a-short-kebab-case-slug",
     "title": "the idea in under 60 characters",
     "summary": "the idea restated in 2-4 sentences, with enough context to write a script from"}
  ]
}

Rules:
- Each nugget stands alone; a reader needs nothing else from the source.
- Summaries keep the source's concrete details, names, and numbers.
- Order nuggets from most to least compelling.`

// Nugget is one atomic idea extracted from long source material. CacheKey is
// the pipeline cache key its video lands under, derived from the summary.
type Nugget struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	CacheKey string `json:"cacheKey"`
}

// Breakdown is the cached result of splitting one source document, stored at
// cache/_breakdowns/{sourceKey}/breakdown.json.
type Breakdown struct {
	Nuggets []Nugget `json:"nuggets"`
}

// BreakdownSource splits long source content into idea nuggets, one video
// worth each. The result is cached by source hash; maxNuggets > 0 is passed
// to the model so it only spends tokens on the best ideas.
func BreakdownSource(ctx context.Context, client *OpenAIClient, cfg *config.Config, layout cache.Layout, sourceKey, source string, maxNuggets int) (*Breakdown, error) {
	path := layout.BreakdownPath(sourceKey, "breakdown.json")
	if cache.Exists(path) {
		bd, err := LoadBreakdown(path)
		if err != nil {
			return nil, err
		}
		slog.Info("using cached breakdown", "source_key", sourceKey, "nuggets", len(bd.Nuggets))
		return capNuggets(bd, maxNuggets), nil
	}

	user := "Break down this source into atomic idea nuggets."
	if maxNuggets > 0 {
		user += fmt.Sprintf("\n\nOutput at most %d nugget(s). Prioritize the most important or representative ideas.", maxNuggets)
	}
	user += "\n\n" + source

	slog.Info("breaking down source", "source_key", sourceKey, "model", cfg.Breakdown.Model)
	raw, err := client.Chat(ctx, cfg.Breakdown.Model, cfg.Breakdown.Temperature, breakdownSystemPrompt, user, true)
	if err != nil {
		return nil, fmt.Errorf("breaking down source: %w", err)
	}

	var bd Breakdown
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &bd); err != nil {
		return nil, fmt.Errorf("decoding breakdown: %w", err)
	}
	if len(bd.Nuggets) == 0 {
		return nil, fmt.Errorf("breakdown produced no nuggets")
	}
	for i := range bd.Nuggets {
		if strings.TrimSpace(bd.Nuggets[i].Summary) == "" {
			return nil, fmt.Errorf("breakdown produced empty summary for nugget %d", i)
		}
		// Each nugget's summary is the downstream pipeline's raw content,
		// so its cache key is fixed here once, before any video exists.
		bd.Nuggets[i].CacheKey = cache.Key(bd.Nuggets[i].Summary)
	}

	if err := cache.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(&bd, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding breakdown: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("writing breakdown: %w", err)
	}
	return capNuggets(&bd, maxNuggets), nil
}

// LoadBreakdown reads a cached breakdown.json.
func LoadBreakdown(path string) (*Breakdown, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading breakdown: %w", err)
	}
	var bd Breakdown
	if err := json.Unmarshal(data, &bd); err != nil {
		return nil, fmt.Errorf("parsing breakdown %s: %w", path, err)
	}
	return &bd, nil
}

func capNuggets(bd *Breakdown, maxNuggets int) *Breakdown {
	if maxNuggets > 0 && len(bd.Nuggets) > maxNuggets {
		slog.Info("limiting nuggets", "from", len(bd.Nuggets), "to", maxNuggets)
		capped := *bd
		capped.Nuggets = bd.Nuggets[:maxNuggets]
		return &capped
	}
	return bd
}

// RunSource orchestrates breakdown then one full pipeline run per nugget.
// A failed nugget does not stop the rest; all failures are reported at the
// end. Returns the cache keys of the nuggets that finished.
func RunSource(ctx context.Context, cfg *config.Config, layout cache.Layout, source, sourceName string, maxNuggets int, opts Options) ([]string, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	sourceKey := cache.Key(source)
	slog.Info("source pipeline started", "source", sourceName, "source_key", sourceKey)

	openai := NewOpenAIClient(cfg.OpenAIKey, slog.Default())
	bd, err := BreakdownSource(ctx, openai, cfg, layout, sourceKey, source, maxNuggets)
	if err != nil {
		return nil, err
	}

	if err := writeVideoIndex(layout, sourceKey, sourceName, bd); err != nil {
		return nil, err
	}

	var done []string
	var failed []string
	for i, n := range bd.Nuggets {
		slog.Info("nugget", "n", fmt.Sprintf("%d/%d", i+1, len(bd.Nuggets)), "id", n.ID, "title", n.Title)
		if _, err := Run(ctx, cfg, layout, n.Summary, opts); err != nil {
			if ctx.Err() != nil {
				return done, ctx.Err()
			}
			slog.Error("nugget failed", "id", n.ID, "error", err)
			failed = append(failed, n.ID)
			continue
		}
		done = append(done, n.CacheKey)
		// Refresh the index so finished videos are linked as they land.
		if err := writeVideoIndex(layout, sourceKey, sourceName, bd); err != nil {
			return done, err
		}
	}

	if len(failed) > 0 {
		return done, fmt.Errorf("%d nugget(s) failed: %s", len(failed), strings.Join(failed, ", "))
	}
	return done, nil
}

// writeVideoIndex writes videos.md next to breakdown.json, linking each
// nugget to its rendered video and flagging the ones not rendered yet.
func writeVideoIndex(layout cache.Layout, sourceKey, sourceName string, bd *Breakdown) error {
	var b strings.Builder
	b.WriteString("# Generated Videos\n\n")
	if sourceName != "" {
		fmt.Fprintf(&b, "*Source: %s*\n\n", sourceName)
	}
	for i, n := range bd.Nuggets {
		rel := filepath.ToSlash(filepath.Join("..", "..", n.CacheKey, "video.mp4"))
		flag := ""
		if !cache.Exists(layout.Path(n.CacheKey, "video.mp4")) {
			flag = " *(missing)*"
		}
		fmt.Fprintf(&b, "%d. [%s](%s)%s\n", i+1, n.Title, rel, flag)
	}

	path := layout.BreakdownPath(sourceKey, "videos.md")
	if err := cache.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing video index: %w", err)
	}
	return nil
}
