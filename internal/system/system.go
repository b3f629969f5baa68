package system

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/mem"
)

// InitResourceLimits raises the open-file limit so parallel frame workers and
// ffmpeg pipes do not exhaust descriptors on macOS/Linux defaults.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		slog.Debug("could not read file limit", "err", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		slog.Debug("could not raise file limit", "err", err)
	}
}

// FFmpegAvailable reports whether the ffmpeg binary is on PATH.
func FFmpegAvailable() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// GetAudioDuration returns a media file's duration in seconds via ffprobe.
func GetAudioDuration(path string) (float64, error) {
	cmd := exec.Command("ffprobe", "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var duration float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &duration); err != nil {
		return 0, fmt.Errorf("parse ffprobe output for %s: %w", path, err)
	}
	return duration, nil
}

// GetBestH264Encoder picks a hardware encoder when ffmpeg exposes one,
// falling back to libx264.
func GetBestH264Encoder() string {
	encoders := []string{"h264_videotoolbox", "h264_nvenc"}

	cmd := exec.Command("ffmpeg", "-encoders")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "libx264"
	}
	for _, enc := range encoders {
		if strings.Contains(string(out), enc) {
			return enc
		}
	}
	return "libx264"
}

// RenderWorkers sizes the frame rasterization pool: one worker per CPU,
// reduced when available memory cannot hold that many in-flight RGBA frame
// buffers.
func RenderWorkers(frameBytes int) int {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}

	vm, err := mem.VirtualMemory()
	if err != nil || frameBytes <= 0 {
		return workers
	}

	// Budget half of available memory, four buffers per worker in flight.
	budget := vm.Available / 2
	perWorker := uint64(frameBytes) * 4
	if perWorker == 0 {
		return workers
	}
	if maxByMem := int(budget / perWorker); maxByMem < workers {
		workers = maxByMem
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
