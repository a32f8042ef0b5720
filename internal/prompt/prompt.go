// Package prompt renders the SOMAS analysis prompt sent to the model, either
// referencing a YouTube video the model looks up itself or embedding a
// transcript directly.
package prompt

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/hyperifyio/somas/internal/preset"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

const (
	genericVideoTemplate      = "somas_video.tmpl"
	genericTranscriptTemplate = "somas_transcript.tmpl"
)

// Depth levels and their section verbosity.
var (
	depthDescriptions = map[int]string{
		1: "Kurzquellen-Modus (< 5 Min)",
		2: "Standard-Analyse",
		3: "Tiefenanalyse mit Details",
	}
	depthSentences = map[int]int{1: 2, 2: 3, 3: 5}
)

// TimeRange narrows the analysis to a section of the video.
type TimeRange struct {
	Start          string // "HH:MM:SS"
	End            string
	IncludeContext bool
	VideoDuration  string // e.g. "45:32", for the context sentence
}

// Config holds the analysis knobs shared by both input modes. The zero
// value renders a standard-depth German prompt.
type Config struct {
	Depth     int
	Language  string
	TimeRange *TimeRange
}

const (
	defaultDepth    = 2
	defaultLanguage = "Deutsch"
)

func (c Config) depth() int {
	if c.Depth == 0 {
		return defaultDepth
	}
	return c.Depth
}

func (c Config) language() string {
	if c.Language == "" {
		return defaultLanguage
	}
	return c.Language
}

// DepthDescription returns the label of the configured depth level.
func (c Config) DepthDescription() string {
	if d, ok := depthDescriptions[c.Depth]; ok {
		return d
	}
	return depthDescriptions[2]
}

// SentencesPerSection returns the verbosity of the configured depth level.
func (c Config) SentencesPerSection() int {
	if n, ok := depthSentences[c.Depth]; ok {
		return n
	}
	return depthSentences[2]
}

// VideoRequest describes a prompt that references the video by URL.
type VideoRequest struct {
	Title     string
	Channel   string
	URL       string
	Preset    preset.Preset
	Config    Config
	Questions string
}

// TranscriptRequest describes a prompt that embeds the transcript text.
type TranscriptRequest struct {
	Title      string
	Author     string
	URL        string
	Transcript string
	// AutoTranscript adds a disclaimer about typical speech recognition
	// errors (names, technical terms) when the text came from YouTube STT.
	AutoTranscript bool
	Preset         preset.Preset
	Config         Config
	Questions      string
}

type templateData struct {
	VideoTitle          string
	ChannelName         string
	VideoURL            string
	Depth               int
	DepthDescription    string
	SentencesPerSection int
	Language            string
	TimeRange           *TimeRange
	MaxChars            int
	Questions           string
	Transcript          string
	AutoTranscript      bool
}

// BuildVideo renders the prompt for a YouTube video reference.
func BuildVideo(req VideoRequest) (string, error) {
	name := req.Preset.TemplateName
	if name == "" {
		name = genericVideoTemplate
	}
	return render(name, templateData{
		VideoTitle:          req.Title,
		ChannelName:         req.Channel,
		VideoURL:            req.URL,
		Depth:               req.Config.depth(),
		DepthDescription:    req.Config.DepthDescription(),
		SentencesPerSection: resolveSentences(req.Preset, req.Config),
		Language:            req.Config.language(),
		TimeRange:           req.Config.TimeRange,
		MaxChars:            req.Preset.MaxChars,
		Questions:           strings.TrimSpace(req.Questions),
	})
}

// BuildTranscript renders the prompt with the transcript embedded. Presets
// with their own transcript embedding use their template; everything else
// goes through the generic transcript template.
func BuildTranscript(req TranscriptRequest) (string, error) {
	name := genericTranscriptTemplate
	if req.Preset.TranscriptAware && req.Preset.TemplateName != "" {
		name = req.Preset.TemplateName
	}
	return render(name, templateData{
		VideoTitle:          req.Title,
		ChannelName:         req.Author,
		VideoURL:            req.URL,
		Depth:               req.Config.depth(),
		DepthDescription:    req.Config.DepthDescription(),
		SentencesPerSection: resolveSentences(req.Preset, req.Config),
		Language:            req.Config.language(),
		TimeRange:           req.Config.TimeRange,
		MaxChars:            req.Preset.MaxChars,
		Questions:           strings.TrimSpace(req.Questions),
		Transcript:          req.Transcript,
		AutoTranscript:      req.AutoTranscript,
	})
}

// resolveSentences prefers the preset's verbosity when it sets one; the
// research preset leaves it at zero and the depth level decides.
func resolveSentences(p preset.Preset, c Config) int {
	if p.SentencesPerSection > 0 {
		return p.SentencesPerSection
	}
	return c.SentencesPerSection()
}

func render(name string, data templateData) (string, error) {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(sb.String()) + "\n", nil
}
