package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Input: exactly one of VideoURL or TranscriptPath.
	VideoURL       string
	TranscriptPath string
	// AutoTranscript fetches the caption track and embeds it in the prompt.
	AutoTranscript bool
	TranscriptLang string

	// Output
	OutputPath  string // Markdown export; empty derives a timestamped name
	PostPath    string // LinkedIn post text; empty prints to stdout
	SourcesPath string // detailed sources text; empty appends below the post
	PDFPath     string // optional PDF export

	// Provider / model
	Provider      string
	Model         string
	OpenRouterKey string
	PerplexityKey string
	// BaseURL overrides the provider endpoint; used with the stub server.
	BaseURL string

	// Analysis
	PresetID    string
	PresetsPath string
	Depth       int
	Language    string
	TimeStart   string
	TimeEnd     string
	Questions   string
	NoHeader    bool

	// Behavior
	DryRun   bool
	Verbose  bool
	DebugLog bool

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	NoCache          bool

	// Ratings
	RatingsDir string
	NoRatings  bool
}
