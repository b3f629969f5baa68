package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/chenaaron3/shortsgen/internal/cache"
	"github.com/chenaaron3/shortsgen/internal/config"
)

const elevenLabsBaseURL = "https://api.elevenlabs.io/v1"

// VoiceClient talks to the ElevenLabs text-to-speech API. Calls are paced by
// a shared rate limiter and retried with exponential backoff on rate limits
// and transient server errors.
type VoiceClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

func NewVoiceClient(apiKey string, ratePerMin, maxRetries int) *VoiceClient {
	if ratePerMin <= 0 {
		ratePerMin = 30
	}
	return &VoiceClient{
		apiKey:     apiKey,
		baseURL:    elevenLabsBaseURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		limiter:    rate.NewLimiter(rate.Limit(float64(ratePerMin)/60.0), 1),
		maxRetries: maxRetries,
	}
}

type ttsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize converts text to speech and returns the encoded audio bytes.
func (c *VoiceClient) Synthesize(ctx context.Context, voiceID, modelID, outputFormat, text string) ([]byte, error) {
	body, err := json.Marshal(ttsRequest{Text: text, ModelID: modelID})
	if err != nil {
		return nil, fmt.Errorf("marshaling tts request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s",
		c.baseURL, url.PathEscape(voiceID), url.QueryEscape(outputFormat))

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<uint(attempt-1)) * time.Second
			slog.Warn("retrying tts request", "attempt", attempt, "delay", delay, "error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("building tts request: %w", err)
		}
		req.Header.Set("xi-api-key", c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading tts response: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return data, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, truncate(data, 200))
			continue
		default:
			return nil, fmt.Errorf("tts status %d: %s", resp.StatusCode, truncate(data, 500))
		}
	}
	return nil, fmt.Errorf("tts failed after %d retries: %w", c.maxRetries, lastErr)
}

// GenerateVoice synthesizes one narration clip per scene into
// cache/{key}/voice/scene_{i}.mp3. Existing clips are reused.
func GenerateVoice(ctx context.Context, client *VoiceClient, cfg *config.Config, layout cache.Layout, key string, chunks *Chunks) error {
	if err := cache.EnsureDir(layout.Path(key, "voice")); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Voice.Concurrency)

	for i, scene := range chunks.Scenes {
		outPath := voicePath(layout, key, i)
		if cache.Exists(outPath) {
			slog.Debug("voice cached", "scene", i)
			continue
		}

		g.Go(func() error {
			slog.Info("synthesizing voice", "scene", i, "chars", len(scene.Text))
			audio, err := client.Synthesize(ctx, cfg.Voice.VoiceID, cfg.Voice.ModelID, cfg.Voice.OutputFormat, scene.Text)
			if err != nil {
				return fmt.Errorf("scene %d voice: %w", i, err)
			}
			if err := os.WriteFile(outPath, audio, 0644); err != nil {
				return fmt.Errorf("writing scene %d voice: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}
