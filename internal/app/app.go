package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/somas/internal/cache"
	"github.com/hyperifyio/somas/internal/debuglog"
	"github.com/hyperifyio/somas/internal/dispatch"
	"github.com/hyperifyio/somas/internal/export"
	"github.com/hyperifyio/somas/internal/linkedin"
	"github.com/hyperifyio/somas/internal/llm"
	"github.com/hyperifyio/somas/internal/preset"
	"github.com/hyperifyio/somas/internal/prompt"
	"github.com/hyperifyio/somas/internal/ratings"
	"github.com/hyperifyio/somas/internal/transcript"
	"github.com/hyperifyio/somas/internal/youtube"
)

// AppVersion is recorded in debug logs and exports.
const AppVersion = "0.5.2"

// ErrUnusableInput is returned when neither a video URL nor a usable
// transcript document is available. Per the exit code policy this results in
// a non-zero process exit.
var ErrUnusableInput = errors.New("no usable input")

// ErrMissingAPIKey is returned when the selected provider has no key
// configured.
var ErrMissingAPIKey = errors.New("missing API key")

// ErrInvalidAPIKey is returned by CheckKey when the provider rejects the
// configured key.
var ErrInvalidAPIKey = errors.New("invalid API key")

type App struct {
	cfg       Config
	provider  llm.Provider
	presets   []preset.Preset
	preset    preset.Preset
	respCache *cache.ResponseCache
	debug     *debuglog.Logger
	session   dispatch.Session
	prefs     Preferences
	prefsDir  string
	yt        *youtube.Client
}

func New(ctx context.Context, cfg Config) (*App, error) {
	a := &App{cfg: cfg, yt: &youtube.Client{}}

	a.prefsDir = cfg.RatingsDir
	if a.prefsDir == "" {
		a.prefsDir = PreferencesDir()
	}
	a.prefs = LoadPreferences(a.prefsDir)

	presets, err := preset.Load(cfg.PresetsPath)
	if err != nil {
		return nil, fmt.Errorf("load presets: %w", err)
	}
	a.presets = presets

	id := cfg.PresetID
	if id == "" {
		id = preset.DefaultID
	}
	p, ok := preset.ByID(presets, id)
	if !ok {
		return nil, fmt.Errorf("unknown preset %q", id)
	}
	a.preset = p

	if a.provider, err = a.buildProvider(); err != nil {
		return nil, err
	}

	if cfg.CacheDir != "" && !cfg.NoCache {
		if cfg.CacheClear {
			_ = cache.ClearDir(cfg.CacheDir)
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err == nil && n > 0 {
				log.Debug().Int("removed", n).Msg("purged expired cache entries")
			}
		}
		a.respCache = &cache.ResponseCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	a.debug = &debuglog.Logger{Enabled: cfg.DebugLog}
	return a, nil
}

func (a *App) buildProvider() (llm.Provider, error) {
	id := a.cfg.Provider
	if id == "" {
		id = a.prefs.LastProvider
	}
	if id == "" {
		id = "perplexity"
	}
	switch id {
	case "openrouter":
		if a.cfg.OpenRouterKey == "" {
			return nil, fmt.Errorf("%w for openrouter (set OPENROUTER_API_KEY)", ErrMissingAPIKey)
		}
		return llm.NewOpenRouter(a.cfg.OpenRouterKey, a.cfg.BaseURL), nil
	case "perplexity":
		if a.cfg.PerplexityKey == "" {
			return nil, fmt.Errorf("%w for perplexity (set PERPLEXITY_API_KEY)", ErrMissingAPIKey)
		}
		return llm.NewPerplexity(a.cfg.PerplexityKey, a.cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", id)
	}
}

// Provider exposes the configured provider for listing modes.
func (a *App) Provider() llm.Provider { return a.provider }

// CheckKey probes the provider with the configured key. Perplexity has no
// free probe endpoint, so this is an explicit mode rather than a preflight
// on every run.
func (a *App) CheckKey(ctx context.Context) error {
	if !a.provider.ValidateKey(ctx) {
		return fmt.Errorf("%w: %s rejected the key", ErrInvalidAPIKey, a.provider.Name())
	}
	return nil
}

// Presets exposes the loaded preset table for listing modes.
func (a *App) Presets() []preset.Preset { return a.presets }

func (a *App) Close() {
	// nothing yet
}

// model resolves the model to call: flag, then last-used for this provider,
// then the provider's first catalog entry.
func (a *App) model(ctx context.Context) (string, error) {
	if a.cfg.Model != "" {
		return a.cfg.Model, nil
	}
	if m := a.prefs.LastModel(a.provider.ID()); m != "" {
		return m, nil
	}
	models, err := a.provider.Models(ctx)
	if err != nil || len(models) == 0 {
		return "", fmt.Errorf("no model configured and model list unavailable: %w", err)
	}
	return models[0].ID, nil
}

// input is the resolved analysis subject, either a video reference or an
// embedded transcript.
type input struct {
	video      *youtube.VideoInfo
	transcript string
	autoText   bool
	title      string
	channel    string
	url        string
	mode       string // "youtube", "youtube_transcript" or "transcript"
}

func (a *App) resolveInput(ctx context.Context) (*input, error) {
	switch {
	case a.cfg.VideoURL != "":
		return a.resolveVideo(ctx)
	case a.cfg.TranscriptPath != "":
		return a.resolveTranscript()
	default:
		return nil, fmt.Errorf("%w: need a video URL or a transcript file", ErrUnusableInput)
	}
}

func (a *App) resolveVideo(ctx context.Context) (*input, error) {
	if youtube.ExtractVideoID(a.cfg.VideoURL) == "" {
		return nil, fmt.Errorf("%w: not a YouTube URL: %s", ErrUnusableInput, a.cfg.VideoURL)
	}

	info, err := a.yt.VideoInfo(ctx, a.cfg.VideoURL)
	if err != nil {
		// Metadata is convenience, not a requirement; the model can look the
		// video up by URL.
		log.Warn().Err(err).Msg("video metadata unavailable, continuing with URL only")
		info = &youtube.VideoInfo{
			Title:   "Unbekannter Titel",
			Channel: "Unbekannter Kanal",
			URL:     a.cfg.VideoURL,
		}
	}

	in := &input{
		video:   info,
		title:   info.Title,
		channel: info.Channel,
		url:     info.URL,
		mode:    "youtube",
	}

	if a.cfg.AutoTranscript || a.preset.TranscriptAware {
		text, err := a.yt.Transcript(ctx, a.cfg.VideoURL, a.cfg.TranscriptLang)
		if err != nil {
			log.Warn().Err(err).Msg("transcript fetch failed, falling back to video prompt")
		} else if text != "" {
			in.transcript = text
			in.autoText = true
			in.mode = "youtube_transcript"
		} else {
			log.Warn().Msg("video has no captions, falling back to video prompt")
		}
	}
	return in, nil
}

func (a *App) resolveTranscript() (*input, error) {
	b, err := os.ReadFile(a.cfg.TranscriptPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnusableInput, err)
	}
	doc := transcript.Parse(string(b))
	if doc.Body == "" {
		return nil, fmt.Errorf("%w: transcript file %s is empty", ErrUnusableInput, a.cfg.TranscriptPath)
	}
	title := doc.Title
	if title == "" {
		base := filepath.Base(a.cfg.TranscriptPath)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	author := doc.Author
	if author == "" {
		author = "Unbekannt"
	}
	log.Info().Str("title", title).Int("words", doc.WordCount()).Msg("manual transcript loaded")
	return &input{
		transcript: doc.Body,
		title:      title,
		channel:    author,
		url:        doc.URL,
		mode:       "transcript",
	}, nil
}

func (a *App) buildPrompt(in *input) (string, error) {
	cfg := prompt.Config{Depth: a.cfg.Depth, Language: a.cfg.Language}
	if a.cfg.TimeStart != "" || a.cfg.TimeEnd != "" {
		tr := &prompt.TimeRange{Start: a.cfg.TimeStart, End: a.cfg.TimeEnd, IncludeContext: true}
		if in.video != nil && in.video.Duration > 0 {
			tr.VideoDuration = in.video.DurationFormatted()
		}
		cfg.TimeRange = tr
	}

	var text string
	var err error
	if in.transcript != "" {
		text, err = prompt.BuildTranscript(prompt.TranscriptRequest{
			Title:          in.title,
			Author:         in.channel,
			URL:            in.url,
			Transcript:     in.transcript,
			AutoTranscript: in.autoText,
			Preset:         a.preset,
			Config:         cfg,
			Questions:      a.cfg.Questions,
		})
	} else {
		text, err = prompt.BuildVideo(prompt.VideoRequest{
			Title:     in.title,
			Channel:   in.channel,
			URL:       in.url,
			Preset:    a.preset,
			Config:    cfg,
			Questions: a.cfg.Questions,
		})
	}
	if err != nil {
		return "", err
	}
	if sp := strings.TrimSpace(a.preset.SystemPrompt); sp != "" {
		text = sp + "\n\n" + text
	}
	return text, nil
}

func (a *App) Run(ctx context.Context) error {
	in, err := a.resolveInput(ctx)
	if err != nil {
		return err
	}

	promptText, err := a.buildPrompt(in)
	if err != nil {
		return fmt.Errorf("build prompt: %w", err)
	}

	if a.cfg.DryRun {
		fmt.Println(promptText)
		return nil
	}

	model, err := a.model(ctx)
	if err != nil {
		return err
	}

	resp, elapsed, err := a.complete(ctx, promptText, model, in)
	if err != nil {
		return fmt.Errorf("provider call: %w", err)
	}

	if unresolved := llm.UnresolvedMarkers(resp.Content, resp.Citations); len(unresolved) > 0 {
		log.Warn().Ints("markers", unresolved).Msg("citation markers without matching sources")
	}

	opts := linkedin.Options{
		ModelName:    resp.Model,
		ProviderName: resp.Provider,
		Citations:    resp.Citations,
	}
	if !a.cfg.NoHeader {
		opts.Title = in.title
		opts.Channel = in.channel
	}
	post, detailedSources := linkedin.Format(resp.Content, opts)

	if err := a.writeOutputs(in, resp, post, detailedSources); err != nil {
		return err
	}

	a.recordAnalysis(in, resp, model, elapsed)

	a.prefs.RememberSelection(a.provider.ID(), model)
	if err := SavePreferences(a.prefsDir, a.prefs); err != nil {
		log.Warn().Err(err).Msg("cannot save preferences")
	}
	return nil
}

// complete answers from the cache when possible, otherwise dispatches the
// provider call and stores the result.
func (a *App) complete(ctx context.Context, promptText, model string, in *input) (*llm.Response, time.Duration, error) {
	key := cache.KeyFrom(a.provider.ID(), model, promptText)
	if a.respCache != nil {
		if resp, ok, err := a.respCache.Get(ctx, key); err == nil && ok {
			log.Info().Str("model", model).Msg("response served from cache")
			return resp, 0, nil
		}
	}

	meta := debuglog.Meta{
		AppVersion: AppVersion,
		Preset:     a.preset.Name,
		VideoURL:   in.url,
		VideoTitle: in.title,
		InputMode:  in.mode,
	}
	logDir, err := a.debug.LogRequest(a.provider.ID(), model, a.endpoint(), promptText, meta)
	if err != nil {
		log.Warn().Err(err).Msg("cannot write debug request log")
	}

	start := time.Now()
	handle, err := a.session.Dispatch(ctx, a.provider, promptText, model)
	if err != nil {
		return nil, 0, err
	}
	res := <-handle.Done()
	elapsed := time.Since(start)

	rec := debuglog.ResponseRecord{
		DurationSeconds: elapsed.Seconds(),
		ModelUsed:       model,
	}
	if res.Err != nil {
		rec.Error = true
		rec.ErrorMessage = res.Err.Error()
		_ = a.debug.LogResponse(logDir, rec)
		return nil, elapsed, res.Err
	}
	rec.StatusCode = 200
	rec.ModelUsed = res.Response.Model
	rec.TokensTotal = res.Response.TokensUsed
	rec.Content = res.Response.Content
	rec.Citations = res.Response.Citations
	_ = a.debug.LogResponse(logDir, rec)

	if a.respCache != nil {
		if err := a.respCache.Save(ctx, key, res.Response); err != nil {
			log.Warn().Err(err).Msg("cannot cache response")
		}
	}
	return res.Response, elapsed, nil
}

func (a *App) endpoint() string {
	if a.cfg.BaseURL != "" {
		return a.cfg.BaseURL
	}
	switch a.provider.ID() {
	case "openrouter":
		return "https://openrouter.ai/api/v1"
	case "perplexity":
		return "https://api.perplexity.ai"
	}
	return ""
}

func (a *App) writeOutputs(in *input, resp *llm.Response, post, detailedSources string) error {
	doc := export.Analysis{
		Text:     resp.Content,
		Video:    in.video,
		Model:    resp.Model,
		Provider: resp.Provider,
		Sources:  resp.Citations,
	}

	mdPath, err := export.WriteMarkdown(doc, a.cfg.OutputPath)
	if err != nil {
		return err
	}
	log.Info().Str("path", mdPath).Msg("markdown export written")

	if a.cfg.PDFPath != "" {
		if err := export.WritePDF(doc, a.cfg.PDFPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("path", a.cfg.PDFPath).Msg("pdf export written")
	}

	if a.cfg.PostPath == "" {
		fmt.Println(post)
		if detailedSources != "" {
			fmt.Println()
			fmt.Println(detailedSources)
		}
		return nil
	}
	if err := os.WriteFile(a.cfg.PostPath, []byte(post+"\n"), 0o644); err != nil {
		return fmt.Errorf("write post: %w", err)
	}
	log.Info().Str("path", a.cfg.PostPath).Msg("post written")

	if detailedSources != "" {
		sourcesPath := a.cfg.SourcesPath
		if sourcesPath == "" {
			ext := filepath.Ext(a.cfg.PostPath)
			sourcesPath = strings.TrimSuffix(a.cfg.PostPath, ext) + "_quellen" + ext
		}
		if err := os.WriteFile(sourcesPath, []byte(detailedSources+"\n"), 0o644); err != nil {
			return fmt.Errorf("write sources: %w", err)
		}
		log.Info().Str("path", sourcesPath).Msg("detailed sources written")
	}
	return nil
}

func (a *App) recordAnalysis(in *input, resp *llm.Response, model string, elapsed time.Duration) {
	if a.cfg.NoRatings {
		return
	}
	store, err := ratings.Open(a.prefsDir)
	if err != nil {
		log.Warn().Err(err).Msg("cannot open ratings store")
		return
	}
	defer store.Close()

	rec := ratings.AnalysisRecord{
		ProviderID:     a.provider.ID(),
		ModelID:        model,
		ModelName:      resp.Model,
		VideoURL:       in.url,
		VideoTitle:     in.title,
		ChannelName:    in.channel,
		PresetName:     a.preset.Name,
		PresetMaxChars: a.preset.MaxChars,
		ResultChars:    len([]rune(resp.Content)),
		ResponseTime:   elapsed.Seconds(),
		TokensUsed:     resp.TokensUsed,
		InputMode:      in.mode,
		HadTranscript:  in.transcript != "",
		HadTimeRange:   a.cfg.TimeStart != "" || a.cfg.TimeEnd != "",
		HadQuestions:   strings.TrimSpace(a.cfg.Questions) != "",
	}
	if in.video != nil {
		rec.VideoDuration = in.video.Duration
	}
	id, err := store.SaveAnalysis(rec)
	if err != nil {
		log.Warn().Err(err).Msg("cannot record analysis")
		return
	}
	log.Info().Int64("analysis_id", id).Msg("analysis recorded; rate it with -rate.analysis")
}
