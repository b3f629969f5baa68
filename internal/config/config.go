package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Video     VideoConfig     `yaml:"video"`
	Captions  CaptionsConfig  `yaml:"captions"`
	Script    ScriptConfig    `yaml:"script"`
	Breakdown BreakdownConfig `yaml:"breakdown"`
	Images    ImagesConfig    `yaml:"images"`
	Voice     VoiceConfig     `yaml:"voice"`
	Audio     AudioConfig     `yaml:"audio"`
	Render    RenderConfig    `yaml:"render"`
	Upload    UploadConfig    `yaml:"upload"`
	Paths     PathsConfig     `yaml:"paths"`

	// Secrets come from the environment, never from the YAML file.
	OpenAIKey     string `yaml:"-"`
	ElevenLabsKey string `yaml:"-"`
}

type VideoConfig struct {
	FPS    int `yaml:"fps"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type CaptionsConfig struct {
	Style              string `yaml:"style"` // "pop" or "highlight"
	CombineThresholdMs int    `yaml:"combine_threshold_ms"`
	WhisperModel       string `yaml:"whisper_model"`
	UseWhisper         bool   `yaml:"use_whisper"`
	FontSize           int    `yaml:"font_size"`
	MarginBottom       int    `yaml:"margin_bottom"`
}

type ScriptConfig struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

type BreakdownConfig struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxNuggets  int     `yaml:"max_nuggets"`
}

type ImagesConfig struct {
	Model         string `yaml:"model"`
	Size          string `yaml:"size"`
	MascotPath    string `yaml:"mascot_path"`
	Concurrency   int    `yaml:"concurrency"`
	MaxRetries    int    `yaml:"max_retries"`
	RetryDelaySec int    `yaml:"retry_delay_sec"`
}

type VoiceConfig struct {
	VoiceID         string `yaml:"voice_id"`
	ModelID         string `yaml:"model_id"`
	OutputFormat    string `yaml:"output_format"`
	Concurrency     int    `yaml:"concurrency"`
	MaxRetries      int    `yaml:"max_retries"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
}

type AudioConfig struct {
	MusicPath  string  `yaml:"music_path"`
	BedGain    float64 `yaml:"bed_gain"`
	BedFadeSec float64 `yaml:"bed_fade_sec"`
}

type RenderConfig struct {
	FadeFrames int    `yaml:"fade_frames"`
	Workers    int    `yaml:"workers"`
	Quality    int    `yaml:"quality"`
	EndCardURL string `yaml:"end_card_url"`
}

type UploadConfig struct {
	CategoryID      string `yaml:"category_id"`
	Visibility      string `yaml:"visibility"`
	ClientSecret    string `yaml:"client_secret"`
	TokenFile       string `yaml:"token_file"`
	MadeForKids     bool   `yaml:"made_for_kids"`
	DefaultLanguage string `yaml:"default_language"`
}

type PathsConfig struct {
	CacheDir  string `yaml:"cache_dir"`
	PublicDir string `yaml:"public_dir"`
}

// Default returns a Config with the built-in defaults for vertical shorts.
func Default() *Config {
	return &Config{
		Video: VideoConfig{
			FPS:    30,
			Width:  540,
			Height: 960,
		},
		Captions: CaptionsConfig{
			Style:              "highlight",
			CombineThresholdMs: 800,
			WhisperModel:       "base.en",
			UseWhisper:         true,
			FontSize:           42,
			MarginBottom:       180,
		},
		Script: ScriptConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
		},
		Breakdown: BreakdownConfig{
			Model:       "gpt-4o",
			Temperature: 0.5,
			MaxNuggets:  20,
		},
		Images: ImagesConfig{
			Model:         "gpt-image-1-mini",
			Size:          "1024x1536",
			MascotPath:    "assets/mascot_glasses.png",
			Concurrency:   4,
			MaxRetries:    10,
			RetryDelaySec: 5,
		},
		Voice: VoiceConfig{
			VoiceID:         "JBFqnCBsd6RMkjVDRZzb",
			ModelID:         "eleven_multilingual_v2",
			OutputFormat:    "mp3_44100_128",
			Concurrency:     1,
			MaxRetries:      3,
			RateLimitPerMin: 30,
		},
		Audio: AudioConfig{
			BedGain:    0.08,
			BedFadeSec: 1.5,
		},
		Render: RenderConfig{
			FadeFrames: 15,
			Workers:    0, // 0 = auto-size from the machine
			Quality:    23,
		},
		Upload: UploadConfig{
			CategoryID:      "27",
			Visibility:      "unlisted",
			ClientSecret:    "client_secret.json",
			TokenFile:       "youtube_token.json",
			DefaultLanguage: "en",
		},
		Paths: PathsConfig{
			CacheDir:  "cache",
			PublicDir: "public",
		},
	}
}

// Load reads the YAML config at path, applies it over the defaults, and pulls
// secrets from the environment (loading .env first if present). A missing
// config file is not an error; defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// .env is for local dev; CI injects real env vars.
	_ = godotenv.Load()
	cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.ElevenLabsKey = os.Getenv("ELEVENLABS_API_KEY"); cfg.ElevenLabsKey == "" {
		cfg.ElevenLabsKey = os.Getenv("XI_API_KEY")
	}

	return cfg, nil
}
