package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

type timedText struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

type trackList struct {
	Tracks []struct {
		LangCode string `xml:"lang_code,attr"`
	} `xml:"track"`
}

// Transcript fetches the caption track of a video as plain text, preferring
// the given language, then English, then whatever track exists. A video
// without captions yields an empty string and no error; the caller treats a
// missing transcript as a soft condition, not a failure.
func (c *Client) Transcript(ctx context.Context, videoURL, language string) (string, error) {
	id := ExtractVideoID(videoURL)
	if id == "" {
		log.Warn().Str("url", videoURL).Msg("cannot extract video id")
		return "", nil
	}
	if language == "" {
		language = "de"
	}

	text, err := c.fetchTrack(ctx, id, language)
	if err != nil {
		return "", err
	}
	if text != "" {
		return text, nil
	}

	// Preferred language unavailable: consult the track list.
	langs, err := c.availableLanguages(ctx, id)
	if err != nil || len(langs) == 0 {
		log.Warn().Str("video", id).Msg("no caption tracks available")
		return "", err
	}
	pick := langs[0]
	for _, l := range langs {
		if l == "en" {
			pick = l
			break
		}
	}
	return c.fetchTrack(ctx, id, pick)
}

func (c *Client) fetchTrack(ctx context.Context, videoID, language string) (string, error) {
	q := url.Values{}
	q.Set("v", videoID)
	q.Set("lang", language)
	raw, err := c.timedTextGet(ctx, q)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", nil
	}

	var tt timedText
	if err := xml.Unmarshal(raw, &tt); err != nil {
		return "", fmt.Errorf("parse captions: %w", err)
	}
	parts := make([]string, 0, len(tt.Texts))
	for _, t := range tt.Texts {
		// Caption payloads arrive double-escaped ("&amp;#39;"); the XML
		// decoder resolves the first level, UnescapeString the second.
		s := strings.TrimSpace(html.UnescapeString(t.Value))
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), nil
}

func (c *Client) availableLanguages(ctx context.Context, videoID string) ([]string, error) {
	q := url.Values{}
	q.Set("v", videoID)
	q.Set("type", "list")
	raw, err := c.timedTextGet(ctx, q)
	if err != nil || len(raw) == 0 {
		return nil, err
	}

	var tl trackList
	if err := xml.Unmarshal(raw, &tl); err != nil {
		return nil, fmt.Errorf("parse track list: %w", err)
	}
	langs := make([]string, 0, len(tl.Tracks))
	for _, t := range tl.Tracks {
		if t.LangCode != "" {
			langs = append(langs, t.LangCode)
		}
	}
	return langs, nil
}

func (c *Client) timedTextGet(ctx context.Context, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.timedTextURL()+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch captions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch captions: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
