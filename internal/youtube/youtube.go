// Package youtube resolves video metadata and subtitle transcripts without an
// API key: metadata comes from the public oEmbed endpoint, transcripts from
// the timedtext caption endpoint.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
)

// VideoInfo holds the metadata used in prompts, exports and the post header.
type VideoInfo struct {
	Title    string
	Channel  string
	Duration int // seconds; 0 when the source did not report one
	URL      string
}

// DurationFormatted renders the duration as MM:SS or H:MM:SS.
func (v VideoInfo) DurationFormatted() string {
	hours := v.Duration / 3600
	minutes := (v.Duration % 3600) / 60
	seconds := v.Duration % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

var videoIDRes = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/shorts/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
}

// ExtractVideoID pulls the 11-character video ID out of the usual URL
// shapes (watch, youtu.be, shorts, embed). Empty result means no ID found.
func ExtractVideoID(rawURL string) string {
	for _, re := range videoIDRes {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}

const (
	defaultOEmbedURL    = "https://www.youtube.com/oembed"
	defaultTimedTextURL = "https://video.google.com/timedtext"
)

// Client fetches metadata and transcripts. Zero value uses the public
// endpoints; tests point the URLs at stub servers.
type Client struct {
	OEmbedURL    string
	TimedTextURL string
	HTTPClient   *http.Client
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (c *Client) oembedURL() string {
	if c.OEmbedURL != "" {
		return c.OEmbedURL
	}
	return defaultOEmbedURL
}

func (c *Client) timedTextURL() string {
	if c.TimedTextURL != "" {
		return c.TimedTextURL
	}
	return defaultTimedTextURL
}

// VideoInfo fetches title and channel via oEmbed. The endpoint does not
// report a duration, so Duration stays 0 for oEmbed-sourced info.
func (c *Client) VideoInfo(ctx context.Context, videoURL string) (*VideoInfo, error) {
	if ExtractVideoID(videoURL) == "" {
		return nil, fmt.Errorf("not a YouTube video URL: %s", videoURL)
	}

	u := c.oembedURL() + "?format=json&url=" + url.QueryEscape(videoURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch video info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch video info: status %d", resp.StatusCode)
	}

	var payload struct {
		Title      string `json:"title"`
		AuthorName string `json:"author_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode video info: %w", err)
	}

	info := &VideoInfo{Title: payload.Title, Channel: payload.AuthorName, URL: videoURL}
	if info.Title == "" {
		info.Title = "Unbekannter Titel"
	}
	if info.Channel == "" {
		info.Channel = "Unbekannter Kanal"
	}
	log.Debug().Str("title", info.Title).Str("channel", info.Channel).Msg("video info resolved")
	return info, nil
}
