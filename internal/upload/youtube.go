package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/chenaaron3/shortsgen/internal/config"
)

// Metadata is everything the upload needs beyond the video file itself. Title
// and description normally come from the cached chunks.json.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
}

// Uploader pushes finished videos to YouTube via the Data API v3.
type Uploader struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Uploader {
	return &Uploader{cfg: cfg}
}

// Upload sends videoFile to YouTube and returns the video ID and watch URL.
func (u *Uploader) Upload(ctx context.Context, videoFile string, meta Metadata) (string, string, error) {
	client, err := u.oauthClient(ctx)
	if err != nil {
		return "", "", fmt.Errorf("youtube auth: %w", err)
	}
	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", "", fmt.Errorf("youtube service: %w", err)
	}

	f, err := os.Open(videoFile)
	if err != nil {
		return "", "", fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil {
		slog.Info("uploading to youtube",
			"title", meta.Title,
			"size_mb", fmt.Sprintf("%.1f", float64(fi.Size())/1024/1024))
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Tags,
			CategoryId:           u.cfg.Upload.CategoryID,
			DefaultLanguage:      u.cfg.Upload.DefaultLanguage,
			DefaultAudioLanguage: u.cfg.Upload.DefaultLanguage,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           u.cfg.Upload.Visibility,
			SelfDeclaredMadeForKids: u.cfg.Upload.MadeForKids,
		},
	}

	call := svc.Videos.Insert([]string{"snippet", "status"}, video)
	call.Media(f)
	uploaded, err := call.Do()
	if err != nil {
		return "", "", fmt.Errorf("youtube upload: %w", err)
	}

	url := "https://www.youtube.com/watch?v=" + uploaded.Id
	slog.Info("upload complete", "video_id", uploaded.Id, "url", url)
	return uploaded.Id, url, nil
}

// oauthClient builds an authenticated HTTP client. App credentials come from
// YOUTUBE_CLIENT_ID and YOUTUBE_CLIENT_SECRET, or from the downloaded
// client_secret.json; the refresh token from YOUTUBE_REFRESH_TOKEN or a
// stored token file.
func (u *Uploader) oauthClient(ctx context.Context) (*http.Client, error) {
	conf, err := u.oauthConfig()
	if err != nil {
		return nil, err
	}
	token, err := u.loadToken()
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, conf.TokenSource(ctx, token)), nil
}

func (u *Uploader) oauthConfig() (*oauth2.Config, error) {
	clientID := os.Getenv("YOUTUBE_CLIENT_ID")
	clientSecret := os.Getenv("YOUTUBE_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{youtube.YoutubeUploadScope},
		}, nil
	}

	data, err := os.ReadFile(u.cfg.Upload.ClientSecret)
	if err != nil {
		return nil, fmt.Errorf("no YOUTUBE_CLIENT_ID/SECRET and no %s: %w", u.cfg.Upload.ClientSecret, err)
	}
	conf, err := google.ConfigFromJSON(data, youtube.YoutubeUploadScope)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", u.cfg.Upload.ClientSecret, err)
	}
	return conf, nil
}

func (u *Uploader) loadToken() (*oauth2.Token, error) {
	if refresh := os.Getenv("YOUTUBE_REFRESH_TOKEN"); refresh != "" {
		return &oauth2.Token{
			RefreshToken: refresh,
			Expiry:       time.Now().Add(-time.Hour), // force refresh
		}, nil
	}

	data, err := os.ReadFile(u.cfg.Upload.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("no YOUTUBE_REFRESH_TOKEN and no token file %s: %w", u.cfg.Upload.TokenFile, err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parse token file %s: %w", u.cfg.Upload.TokenFile, err)
	}
	return &token, nil
}
