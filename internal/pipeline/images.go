package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/chenaaron3/shortsgen/internal/cache"
	"github.com/chenaaron3/shortsgen/internal/config"
)

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *apiError `json:"error"`
}

// GenerateImages produces one illustration per scene via the image edits
// endpoint, using the mascot as the base image so every scene features the
// same character. Results land at cache/{key}/images/scene_{i}.png; existing
// images are reused.
func GenerateImages(ctx context.Context, client *OpenAIClient, cfg *config.Config, layout cache.Layout, key string, chunks *Chunks) error {
	mascot, err := os.ReadFile(cfg.Images.MascotPath)
	if err != nil {
		return fmt.Errorf("reading mascot %s: %w", cfg.Images.MascotPath, err)
	}
	if err := cache.EnsureDir(layout.Path(key, "images")); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Images.Concurrency)

	for i, scene := range chunks.Scenes {
		outPath := imagePath(layout, key, i)
		if cache.Exists(outPath) {
			slog.Debug("image cached", "scene", i)
			continue
		}

		g.Go(func() error {
			slog.Info("generating image", "scene", i, "model", cfg.Images.Model)
			png, err := client.EditImage(ctx, cfg.Images.Model, cfg.Images.Size, mascot, scene.Imagery)
			if err != nil {
				return fmt.Errorf("scene %d image: %w", i, err)
			}
			if err := os.WriteFile(outPath, png, 0644); err != nil {
				return fmt.Errorf("writing scene %d image: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// EditImage calls the images/edits endpoint with a base image and prompt and
// returns the decoded PNG bytes.
func (c *OpenAIClient) EditImage(ctx context.Context, model, size string, baseImage []byte, prompt string) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", "mascot.png")
	if err != nil {
		return nil, fmt.Errorf("building image request: %w", err)
	}
	if _, err := part.Write(baseImage); err != nil {
		return nil, fmt.Errorf("building image request: %w", err)
	}
	for field, value := range map[string]string{
		"model":  model,
		"prompt": prompt,
		"size":   size,
		"n":      "1",
	} {
		if err := w.WriteField(field, value); err != nil {
			return nil, fmt.Errorf("building image request: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("building image request: %w", err)
	}

	raw, err := c.do(ctx, "POST", "/images/edits", w.FormDataContentType(), func() (io.Reader, error) {
		return bytes.NewReader(buf.Bytes()), nil
	})
	if err != nil {
		return nil, err
	}

	var resp imageResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding image response: %w", err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("image edit returned no data")
	}
	png, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decoding image payload: %w", err)
	}
	return png, nil
}
