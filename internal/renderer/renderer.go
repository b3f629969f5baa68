package renderer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"

	"github.com/chenaaron3/shortsgen/internal/compositor"
	"github.com/chenaaron3/shortsgen/internal/manifest"
	"github.com/chenaaron3/shortsgen/internal/system"
)

// Options configures one render.
type Options struct {
	AssetRoot    string // directory the manifest's relative asset paths resolve against
	OutputPath   string
	Workers      int    // 0 = auto-size from CPU and memory
	Encoder      string // "" = pick the best available
	Quality      int
	FontSize     int
	MarginBottom int
	MusicPath    string // optional background bed
	BedGain      float64
	BedFadeSec   float64
	EndCardURL   string // optional QR end card
}

// Renderer drives a composition through ffmpeg: frames are rasterized by a
// worker pool (frames are independent, so any order works), re-sequenced, and
// streamed as raw RGBA into a single encoder process that also muxes the
// voice track and the optional music bed.
type Renderer struct {
	comp *compositor.Compositor
	m    *manifest.Manifest
	opts Options
}

// New prepares a renderer for one manifest/compositor pair.
func New(m *manifest.Manifest, comp *compositor.Compositor, opts Options) *Renderer {
	return &Renderer{comp: comp, m: m, opts: opts}
}

// Render produces the final video file. The voice clips are concatenated
// first (stream copy), then the frame loop and the encoder run concurrently.
func (r *Renderer) Render(ctx context.Context) error {
	if !system.FFmpegAvailable() {
		return fmt.Errorf("ffmpeg not found on PATH; install it to render")
	}

	start := time.Now()
	total := r.comp.DurationInFrames()
	if total <= 0 {
		return fmt.Errorf("composition has no frames to render")
	}
	if r.comp.Empty() {
		return fmt.Errorf("composition has no scenes; nothing to render")
	}

	ras, err := newRasterizer(r.comp, r.m.Width, r.m.Height, r.opts.AssetRoot, r.opts.FontSize, r.opts.MarginBottom)
	if err != nil {
		return err
	}
	if r.opts.EndCardURL != "" {
		if err := r.attachEndCard(ras); err != nil {
			return fmt.Errorf("end card: %w", err)
		}
	}

	tempDir, err := os.MkdirTemp("", "shortsgen_")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tempDir)

	voicePath, err := r.concatVoice(ctx, tempDir)
	if err != nil {
		return fmt.Errorf("concatenate voice: %w", err)
	}

	workers := r.opts.Workers
	if workers <= 0 {
		workers = system.RenderWorkers(r.m.Width * r.m.Height * 4)
	}
	if workers > total {
		workers = total
	}

	encoder := r.opts.Encoder
	if encoder == "" {
		encoder = system.GetBestH264Encoder()
	}

	slog.Info("rendering",
		"frames", total,
		"resolution", fmt.Sprintf("%dx%d", r.m.Width, r.m.Height),
		"fps", r.m.FPS,
		"workers", workers,
		"encoder", encoder)

	cmd := r.buildFFmpegCmd(ctx, encoder, voicePath)
	var ffmpegLog bytes.Buffer
	cmd.Stdout = &ffmpegLog
	cmd.Stderr = &ffmpegLog

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	streamErr := r.streamFrames(ctx, ras, stdin, workers, total)
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		if streamErr != nil {
			return streamErr
		}
		return fmt.Errorf("ffmpeg: %w\n%s", err, ffmpegLog.String())
	}
	if streamErr != nil {
		return streamErr
	}

	slog.Info("render complete",
		"output", r.opts.OutputPath,
		"elapsed", time.Since(start).Round(time.Millisecond),
		"effective_fps", fmt.Sprintf("%.1f", float64(total)/time.Since(start).Seconds()))
	return nil
}

type frameResult struct {
	index int
	buf   *image.RGBA
}

// streamFrames rasterizes frames in parallel and writes them to w in frame
// order. Workers pull indices from a channel; a reorder map holds frames that
// finished ahead of the write cursor.
func (r *Renderer) streamFrames(ctx context.Context, ras *rasterizer, w io.Writer, workers, total int) error {
	jobs := make(chan int, workers)
	results := make(chan frameResult, workers*2)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		// Faces hold mutable glyph caches, so each worker gets its own pair.
		faces, err := ras.newFaces()
		if err != nil {
			close(jobs)
			wg.Wait()
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				buf := system.GetFrame(image.Rect(0, 0, r.m.Width, r.m.Height))
				ras.drawFrame(buf, f, faces)
				results <- frameResult{index: f, buf: buf}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for f := 0; f < total; f++ {
			select {
			case jobs <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	pending := make(map[int]*image.RGBA)
	next := 0
	var writeErr error
	for res := range results {
		pending[res.index] = res.buf
		for buf, ok := pending[next]; ok; buf, ok = pending[next] {
			if writeErr == nil {
				_, writeErr = w.Write(buf.Pix)
			}
			system.PutFrame(buf)
			delete(pending, next)
			next++
		}
	}
	for _, buf := range pending {
		system.PutFrame(buf)
	}

	if writeErr != nil {
		return fmt.Errorf("write frame %d: %w", next, writeErr)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if next != total {
		return fmt.Errorf("rendered %d of %d frames", next, total)
	}
	return nil
}

// buildFFmpegCmd assembles the single encode invocation: raw RGBA frames on
// stdin, the concatenated voice as the second input, and optionally the music
// bed faded and mixed under it. The bed's afade/volume filter mirrors the
// compositor's gain curve.
func (r *Renderer) buildFFmpegCmd(ctx context.Context, encoder, voicePath string) *exec.Cmd {
	durationSec := float64(r.comp.DurationInFrames()) / float64(r.m.FPS)

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", r.m.Width, r.m.Height),
		"-framerate", fmt.Sprintf("%d", r.m.FPS),
		"-i", "-",
		"-i", voicePath,
	}

	if r.opts.MusicPath != "" {
		fade := r.opts.BedFadeSec
		fadeOutStart := durationSec - fade
		if fadeOutStart < 0 {
			fadeOutStart = 0
		}
		filter := fmt.Sprintf(
			"[2:a]afade=t=in:st=0:d=%.3f,afade=t=out:st=%.3f:d=%.3f,volume=%.3f[bed];[1:a][bed]amix=inputs=2:duration=first:normalize=0[aout]",
			fade, fadeOutStart, fade, r.opts.BedGain)
		args = append(args,
			"-stream_loop", "-1",
			"-i", r.opts.MusicPath,
			"-filter_complex", filter,
			"-map", "0:v", "-map", "[aout]",
		)
	} else {
		args = append(args, "-map", "0:v", "-map", "1:a")
	}

	args = append(args,
		"-t", fmt.Sprintf("%.3f", durationSec),
		"-r", fmt.Sprintf("%d", r.m.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", encoder,
	)

	switch encoder {
	case "h264_videotoolbox":
		args = append(args, "-b:v", fmt.Sprintf("%dk", r.opts.Quality*100))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", r.opts.Quality))
	default:
		args = append(args, "-crf", fmt.Sprintf("%d", r.opts.Quality), "-preset", "medium")
	}

	args = append(args, "-c:a", "aac", "-shortest", r.opts.OutputPath)
	return exec.CommandContext(ctx, "ffmpeg", args...)
}

// concatVoice joins the scenes' voice clips in playback order with the concat
// demuxer (stream copy, no re-encode).
func (r *Renderer) concatVoice(ctx context.Context, tempDir string) (string, error) {
	var lines []string
	for _, iv := range r.comp.Intervals() {
		abs, err := filepath.Abs(filepath.Join(r.opts.AssetRoot, iv.Scene.VoicePath))
		if err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("file '%s'", abs))
	}

	listPath := filepath.Join(tempDir, "voice_list.txt")
	if err := os.WriteFile(listPath, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return "", err
	}

	outPath := filepath.Join(tempDir, "voice_full.mp3")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w\n%s", err, out.String())
	}
	return outPath, nil
}

// attachEndCard renders the QR code once and hands it to the rasterizer to
// overlay during the last two seconds.
func (r *Renderer) attachEndCard(ras *rasterizer) error {
	q, err := qrcode.New(r.opts.EndCardURL, qrcode.Medium)
	if err != nil {
		return err
	}

	size := r.m.Width / 5
	src := q.Image(size)
	rgba := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.Copy(rgba, image.Point{}, src, src.Bounds(), draw.Src, nil)

	ras.endCard = rgba
	ras.endCardFrames = 2 * r.m.FPS
	return nil
}
