package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/somas/internal/app"
	"github.com/hyperifyio/somas/internal/llm"
	"github.com/hyperifyio/somas/internal/preset"
	"github.com/hyperifyio/somas/internal/ratings"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		videoURL       string
		transcriptPath string
		autoTranscript bool
		transcriptLang string

		outputPath  string
		postPath    string
		sourcesPath string
		pdfPath     string

		provider string
		model    string
		baseURL  string

		presetID    string
		presetsFile string
		depth       int
		language    string
		timeStart   string
		timeEnd     string
		questions   string
		noHeader    bool

		dryRun   bool
		verbose  bool
		debugLog bool

		cacheDir    string
		cacheMaxAge time.Duration
		cacheClear  bool
		cacheStrict bool
		noCache     bool

		ratingsDir string
		noRatings  bool

		configPath string
		envFile    string

		listModels  bool
		listPresets bool
		checkKey    bool

		rateAnalysis int64
		rateScore    int
		rateChannel  string
		rateFactual  int
		rateArgument int
		rateBias     string
		rateBiasStr  int
		rateTags     string
		rateNotes    string
	)

	flag.StringVar(&videoURL, "video", "", "YouTube video URL to analyze")
	flag.StringVar(&transcriptPath, "transcript", "", "Path to a manual transcript file (alternative to -video)")
	flag.BoolVar(&autoTranscript, "auto-transcript", false, "Fetch the caption track and embed it in the prompt")
	flag.StringVar(&transcriptLang, "transcript.lang", "de", "Preferred caption language")
	flag.StringVar(&outputPath, "output", "", "Path for the Markdown export (default: derived from the video title)")
	flag.StringVar(&postPath, "post", "", "Path for the LinkedIn post text (default: stdout)")
	flag.StringVar(&sourcesPath, "sources", "", "Path for the detailed source listing (default: next to -post)")
	flag.StringVar(&pdfPath, "pdf", "", "Optional path for a PDF export")
	flag.StringVar(&provider, "provider", "", "LLM provider: openrouter or perplexity (default: last used)")
	flag.StringVar(&model, "model", "", "Model ID (default: last used for the provider)")
	flag.StringVar(&baseURL, "base", "", "Override the provider base URL (e.g. a local llm-stub)")
	flag.StringVar(&presetID, "preset", "", "Analysis preset: compact, standard, deep or research")
	flag.StringVar(&presetsFile, "presets.file", "", "YAML file with additional or replacement presets")
	flag.IntVar(&depth, "depth", 0, "Analysis depth 1-3 when the preset does not fix the verbosity; unset means 2")
	flag.StringVar(&language, "lang", "", "Answer language for the prompt; unset means Deutsch")
	flag.StringVar(&timeStart, "time.start", "", "Restrict analysis to a section starting at HH:MM:SS")
	flag.StringVar(&timeEnd, "time.end", "", "Section end at HH:MM:SS")
	flag.StringVar(&questions, "questions", "", "Follow-up questions to answer in the analysis")
	flag.BoolVar(&noHeader, "no-header", false, "Omit the title/channel header from the post")
	flag.BoolVar(&dryRun, "dry-run", false, "Build and print the prompt without calling the model")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.BoolVar(&debugLog, "debug-log", false, "Write request/response JSON for each API call")
	flag.StringVar(&cacheDir, "cache.dir", ".somas-cache", "Response cache directory; empty disables caching")
	flag.DurationVar(&cacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	flag.BoolVar(&cacheClear, "cache.clear", false, "Clear cache directory before run")
	flag.BoolVar(&cacheStrict, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	flag.BoolVar(&noCache, "no-cache", false, "Bypass the response cache for this run")
	flag.StringVar(&ratingsDir, "ratings.dir", "", "Directory for the ratings database and preferences (default: ~/.somas_prompt_generator)")
	flag.BoolVar(&noRatings, "no-ratings", false, "Do not record this run in the ratings store")
	flag.StringVar(&configPath, "config", "", "Path to YAML/JSON config file")
	flag.StringVar(&envFile, "env", "", "Path to an additional dotenv file")
	flag.BoolVar(&listModels, "list.models", false, "List the selected provider's models and exit")
	flag.BoolVar(&listPresets, "list.presets", false, "List available analysis presets and exit")
	flag.BoolVar(&checkKey, "check.key", false, "Probe the provider with the configured API key and exit")
	flag.Int64Var(&rateAnalysis, "rate.analysis", 0, "Analysis ID to rate (with -rate.score)")
	flag.IntVar(&rateScore, "rate.score", 0, "Model rating on the Z scale, -2 to +2")
	flag.StringVar(&rateChannel, "rate.channel", "", "Channel name to rate (with the other -rate.* flags)")
	flag.IntVar(&rateFactual, "rate.factual", 0, "Channel factual quality, -2 to +2")
	flag.IntVar(&rateArgument, "rate.argument", 0, "Channel argument quality, -2 to +2")
	flag.StringVar(&rateBias, "rate.bias", "", "Channel bias direction, e.g. 'links', 'neutral', 'rechts'")
	flag.IntVar(&rateBiasStr, "rate.bias.strength", 0, "Channel bias strength, 0 to 3")
	flag.StringVar(&rateTags, "rate.tags", "", "Comma-separated channel mode tags")
	flag.StringVar(&rateNotes, "rate.notes", "", "Free-form channel notes")
	flag.Parse()

	// Dotenv before env overlay so .env keys count as environment.
	_ = godotenv.Load()
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Warn().Err(err).Str("path", envFile).Msg("cannot load env file")
		}
	}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		VideoURL:         videoURL,
		TranscriptPath:   transcriptPath,
		AutoTranscript:   autoTranscript,
		TranscriptLang:   transcriptLang,
		OutputPath:       outputPath,
		PostPath:         postPath,
		SourcesPath:      sourcesPath,
		PDFPath:          pdfPath,
		Provider:         provider,
		Model:            model,
		BaseURL:          baseURL,
		PresetID:         presetID,
		PresetsPath:      presetsFile,
		Depth:            depth,
		Language:         language,
		TimeStart:        timeStart,
		TimeEnd:          timeEnd,
		Questions:        questions,
		NoHeader:         noHeader,
		DryRun:           dryRun,
		Verbose:          verbose,
		DebugLog:         debugLog,
		CacheDir:         cacheDir,
		CacheMaxAge:      cacheMaxAge,
		CacheClear:       cacheClear,
		CacheStrictPerms: cacheStrict,
		NoCache:          noCache,
		RatingsDir:       ratingsDir,
		NoRatings:        noRatings,
	}

	// Precedence: flags > environment > config file > defaults.
	app.ApplyEnvToConfig(&cfg)
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("cannot read config file")
			os.Exit(2)
		}
		app.ApplyFileConfig(&cfg, fc)
	}

	// Rating modes touch only the local store and need no provider.
	if rateAnalysis > 0 || rateChannel != "" {
		if err := runRating(cfg, rateAnalysis, rateScore, ratings.ChannelRating{
			ChannelName:   rateChannel,
			FactualScore:  rateFactual,
			ArgumentScore: rateArgument,
			BiasDirection: rateBias,
			BiasStrength:  rateBiasStr,
			ModeTags:      rateTags,
			Notes:         rateNotes,
		}); err != nil {
			log.Error().Err(err).Msg("rating failed")
			os.Exit(2)
		}
		return
	}

	if err := run(cfg, listModels, listPresets, checkKey); err != nil {
		log.Error().Err(err).Msg("run failed")
		// Exit code policy: 2 on unusable input, key problems or provider
		// failure; everything else is a completion with warnings.
		if errors.Is(err, app.ErrUnusableInput) || errors.Is(err, app.ErrMissingAPIKey) ||
			errors.Is(err, app.ErrInvalidAPIKey) || isProviderFailure(err) {
			os.Exit(2)
		}
		os.Exit(0)
	}
}

// isProviderFailure reports whether err comes from the provider call rather
// than local processing.
func isProviderFailure(err error) bool {
	var httpErr *llm.HTTPError
	return errors.Is(err, llm.ErrTimeout) ||
		errors.Is(err, llm.ErrConnection) ||
		errors.Is(err, llm.ErrMalformedResponse) ||
		errors.As(err, &httpErr)
}

func run(cfg app.Config, listModels, listPresets, checkKey bool) error {
	ctx := context.Background()

	if listPresets {
		// Presets need no provider; print and exit before key checks.
		return printPresets(cfg)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	if checkKey {
		if err := a.CheckKey(ctx); err != nil {
			return err
		}
		fmt.Printf("API-Key für %s ist gültig.\n", a.Provider().Name())
		return nil
	}

	if listModels {
		models, err := a.Provider().Models(ctx)
		if err != nil {
			return fmt.Errorf("list models: %w", err)
		}
		fmt.Printf("Modelle (%s):\n", a.Provider().Name())
		for _, m := range models {
			if m.Description != "" {
				fmt.Printf("  %-40s %s (%s)\n", m.ID, m.Name, m.Description)
			} else {
				fmt.Printf("  %-40s %s\n", m.ID, m.Name)
			}
		}
		return nil
	}

	return a.Run(ctx)
}

func printPresets(cfg app.Config) error {
	presets, err := preset.Load(cfg.PresetsPath)
	if err != nil {
		return err
	}
	fmt.Println("Presets:")
	for _, p := range presets {
		fmt.Printf("  %-10s %s: %s\n", p.ID, p.Name, p.Info())
	}
	return nil
}

func runRating(cfg app.Config, analysisID int64, score int, channel ratings.ChannelRating) error {
	dir := cfg.RatingsDir
	if dir == "" {
		dir = ratings.DefaultDir()
	}
	store, err := ratings.Open(dir)
	if err != nil {
		return err
	}
	defer store.Close()

	if analysisID > 0 {
		if err := store.UpdateModelRatingZ(analysisID, score); err != nil {
			return err
		}
		log.Info().Int64("analysis", analysisID).Int("score", score).Msg("model rating saved")
	}
	if channel.ChannelName != "" {
		if err := store.SaveChannelRating(channel); err != nil {
			return err
		}
		log.Info().Str("channel", channel.ChannelName).Msg("channel rating saved")
	}
	return nil
}
