package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/chenaaron3/shortsgen/internal/cache"
	"github.com/chenaaron3/shortsgen/internal/config"
	"github.com/chenaaron3/shortsgen/internal/manifest"
)

// whisperResult mirrors the JSON the whisper CLI writes with word timestamps
// enabled. Only the fields we read are declared.
type whisperResult struct {
	Segments []struct {
		Words []struct {
			Word        string  `json:"word"`
			Start       float64 `json:"start"`
			End         float64 `json:"end"`
			Probability float64 `json:"probability"`
		} `json:"words"`
	} `json:"segments"`
}

// WhisperAvailable reports whether the whisper CLI is on PATH.
func WhisperAvailable() bool {
	_, err := exec.LookPath("whisper")
	return err == nil
}

// TranscribeScenes produces the composition-wide caption track. Each scene's
// voice clip is transcribed independently and its word times shifted by the
// cumulative duration of the clips before it, so caption times line up with
// the scene timeline. Scenes whose transcription fails, and all scenes when
// whisper is disabled or absent, fall back to a single caption spanning the
// clip with the scene's written text.
//
// clips[i] is scene i's voice file; durations[i] its measured length in
// seconds.
func TranscribeScenes(ctx context.Context, cfg *config.Config, layout cache.Layout, key string, chunks *Chunks, clips []string, durations []float64) ([]manifest.Caption, error) {
	useWhisper := cfg.Captions.UseWhisper && WhisperAvailable()
	if cfg.Captions.UseWhisper && !useWhisper {
		slog.Warn("whisper CLI not found, falling back to scene-level captions")
	}

	transcriptDir := layout.Path(key, "transcripts")
	if useWhisper {
		if err := cache.EnsureDir(transcriptDir); err != nil {
			return nil, err
		}
	}

	var captions []manifest.Caption
	offsetMs := 0.0
	for i, scene := range chunks.Scenes {
		clipMs := durations[i] * 1000

		var words []manifest.Caption
		if useWhisper {
			var err error
			words, err = transcribeClip(ctx, cfg.Captions.WhisperModel, transcriptDir, clips[i], offsetMs, clipMs)
			if err != nil {
				slog.Warn("transcription failed, using scene text", "scene", i, "error", err)
				words = nil
			}
		}
		if len(words) == 0 {
			words = []manifest.Caption{{
				Text:    scene.Text,
				StartMs: int(math.Round(offsetMs)),
				EndMs:   int(math.Round(offsetMs + clipMs)),
			}}
		}
		captions = append(captions, words...)
		offsetMs += clipMs
	}
	return captions, nil
}

// transcribeClip runs whisper on one clip and returns its words shifted to
// composition time. The JSON output is cached next to the clip so re-runs
// skip the transcription.
func transcribeClip(ctx context.Context, model, transcriptDir, clipPath string, offsetMs, clipMs float64) ([]manifest.Caption, error) {
	base := strings.TrimSuffix(filepath.Base(clipPath), filepath.Ext(clipPath))
	jsonPath := filepath.Join(transcriptDir, base+".json")

	if !cache.Exists(jsonPath) {
		cmd := exec.CommandContext(ctx, "whisper", clipPath,
			"--model", model,
			"--language", "en",
			"--output_format", "json",
			"--output_dir", transcriptDir,
			"--word_timestamps", "True",
			"--verbose", "False")
		if out, err := cmd.CombinedOutput(); err != nil {
			return nil, fmt.Errorf("whisper: %w: %s", err, truncate(out, 300))
		}
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}
	var result whisperResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parsing transcript %s: %w", jsonPath, err)
	}

	var words []manifest.Caption
	for _, seg := range result.Segments {
		for _, w := range seg.Words {
			if strings.TrimSpace(w.Word) == "" {
				continue
			}
			startMs := offsetMs + w.Start*1000
			endMs := offsetMs + w.End*1000
			// Whisper occasionally overshoots the clip end; clamp so the
			// next scene's words never interleave with this one's.
			if endMs > offsetMs+clipMs {
				endMs = offsetMs + clipMs
			}
			if startMs > endMs {
				startMs = endMs
			}
			ts := int(math.Round(startMs))
			conf := w.Probability
			words = append(words, manifest.Caption{
				Text:        w.Word,
				StartMs:     int(math.Round(startMs)),
				EndMs:       int(math.Round(endMs)),
				TimestampMs: &ts,
				Confidence:  &conf,
			})
		}
	}
	return words, nil
}
