package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/chenaaron3/shortsgen/internal/cache"
	"github.com/chenaaron3/shortsgen/internal/compositor"
	"github.com/chenaaron3/shortsgen/internal/config"
	"github.com/chenaaron3/shortsgen/internal/manifest"
	"github.com/chenaaron3/shortsgen/internal/renderer"
)

// Options tunes a full pipeline run.
type Options struct {
	MaxScenes  int  // > 0 limits scenes for quick iterations
	SkipRender bool // stop after prepare
}

// RunState is the per-run record written to cache/{key}/run.json. It marks
// the stages that completed so an interrupted run is easy to diagnose; the
// stages themselves are idempotent and resume from cached artifacts.
type RunState struct {
	RunID     string    `json:"runId"`
	CacheKey  string    `json:"cacheKey"`
	StartedAt time.Time `json:"startedAt"`
	Stages    []string  `json:"stages"`
	Error     string    `json:"error,omitempty"`
}

func (s *RunState) mark(layout cache.Layout, stage string) {
	s.Stages = append(s.Stages, stage)
	s.save(layout)
}

func (s *RunState) fail(layout cache.Layout, err error) {
	s.Error = err.Error()
	s.save(layout)
}

func (s *RunState) save(layout cache.Layout) {
	data, merr := json.MarshalIndent(s, "", "  ")
	if merr != nil {
		return
	}
	if werr := os.WriteFile(layout.Path(s.CacheKey, "run.json"), data, 0644); werr != nil {
		slog.Debug("could not save run state", "error", werr)
	}
}

// Run executes the full pipeline for one piece of source content: script,
// scene chunking, image and voice generation in parallel, manifest prepare,
// and render. Every stage is cached under cache/{key}/, so re-running after
// a failure only redoes the missing work.
func Run(ctx context.Context, cfg *config.Config, layout cache.Layout, content string, opts Options) (string, error) {
	if cfg.OpenAIKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY is not set")
	}
	if cfg.ElevenLabsKey == "" {
		return "", fmt.Errorf("ELEVENLABS_API_KEY is not set")
	}

	key := cache.Key(content)
	if err := cache.EnsureDir(layout.Path(key)); err != nil {
		return "", err
	}

	state := &RunState{
		RunID:     uuid.NewString(),
		CacheKey:  key,
		StartedAt: time.Now().UTC(),
	}
	state.save(layout)
	slog.Info("pipeline run started", "run_id", state.RunID, "key", key)

	openai := NewOpenAIClient(cfg.OpenAIKey, slog.Default())
	voice := NewVoiceClient(cfg.ElevenLabsKey, cfg.Voice.RateLimitPerMin, cfg.Voice.MaxRetries)

	script, err := GenerateScript(ctx, openai, cfg, layout, key, content)
	if err != nil {
		state.fail(layout, err)
		return key, err
	}
	state.mark(layout, "script")

	chunks, err := ChunkScript(ctx, openai, cfg, layout, key, script, opts.MaxScenes)
	if err != nil {
		state.fail(layout, err)
		return key, err
	}
	state.mark(layout, "chunks")

	// Images and voice hit different APIs; run the stages side by side.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return GenerateImages(gctx, openai, cfg, layout, key, chunks) })
	g.Go(func() error { return GenerateVoice(gctx, voice, cfg, layout, key, chunks) })
	if err := g.Wait(); err != nil {
		state.fail(layout, err)
		return key, err
	}
	state.mark(layout, "assets")

	m, err := Prepare(ctx, cfg, layout, key, opts.MaxScenes)
	if err != nil {
		state.fail(layout, err)
		return key, err
	}
	state.mark(layout, "prepare")

	if opts.SkipRender {
		slog.Info("render skipped", "key", key)
		return key, nil
	}

	outPath := layout.Path(key, "video.mp4")
	if err := Render(ctx, cfg, layout, m, outPath); err != nil {
		state.fail(layout, err)
		return key, err
	}
	state.mark(layout, "render")
	slog.Info("pipeline run finished", "run_id", state.RunID, "output", outPath)
	return key, nil
}

// Render composes and encodes one prepared manifest to outPath.
func Render(ctx context.Context, cfg *config.Config, layout cache.Layout, m *manifest.Manifest, outPath string) error {
	style, err := compositor.ParseStyle(cfg.Captions.Style)
	if err != nil {
		return err
	}
	comp, err := compositor.New(m, compositor.Options{
		FadeFrames:         cfg.Render.FadeFrames,
		CombineThresholdMs: cfg.Captions.CombineThresholdMs,
		Style:              style,
		BedGain:            cfg.Audio.BedGain,
		BedFadeSec:         cfg.Audio.BedFadeSec,
	})
	if err != nil {
		return err
	}

	r := renderer.New(m, comp, renderer.Options{
		AssetRoot:    layout.PublicPath(m.CacheKey),
		OutputPath:   outPath,
		Workers:      cfg.Render.Workers,
		Quality:      cfg.Render.Quality,
		FontSize:     cfg.Captions.FontSize,
		MarginBottom: cfg.Captions.MarginBottom,
		MusicPath:    cfg.Audio.MusicPath,
		BedGain:      cfg.Audio.BedGain,
		BedFadeSec:   cfg.Audio.BedFadeSec,
		EndCardURL:   cfg.Render.EndCardURL,
	})
	return r.Render(ctx)
}
