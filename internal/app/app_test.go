package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func TestApplyFileConfigKeepsExplicitValues(t *testing.T) {
	var fc FileConfig
	fc.Video = "https://youtu.be/fromfile0000"
	fc.Provider.ID = "openrouter"
	fc.Provider.Model = "file-model"
	fc.Analysis.Depth = 3
	fc.Verbose = true

	cfg := Config{Provider: "perplexity"}
	ApplyFileConfig(&cfg, fc)

	if cfg.Provider != "perplexity" {
		t.Errorf("explicit provider overridden: %q", cfg.Provider)
	}
	if cfg.VideoURL != "https://youtu.be/fromfile0000" {
		t.Errorf("video not applied: %q", cfg.VideoURL)
	}
	if cfg.Model != "file-model" || cfg.Depth != 3 || !cfg.Verbose {
		t.Errorf("file values not applied: %+v", cfg)
	}
}

func TestLoadConfigFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "somas.yaml")
	data := "video: https://youtu.be/abc\nprovider:\n  id: perplexity\n  model: sonar-pro\nanalysis:\n  preset: deep\n  depth: 3\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if fc.Provider.Model != "sonar-pro" || fc.Analysis.Preset != "deep" {
		t.Fatalf("parsed: %+v", fc)
	}
}

func TestApplyEnvToConfig(t *testing.T) {
	t.Setenv("PERPLEXITY_API_KEY", "pk-test")
	t.Setenv("SOMAS_PROVIDER", "perplexity")
	t.Setenv("SOMAS_MODEL", "sonar")
	t.Setenv("SOMAS_DEBUG_LOG", "true")

	cfg := Config{Provider: "openrouter"}
	ApplyEnvToConfig(&cfg)

	if cfg.PerplexityKey != "pk-test" {
		t.Errorf("key: %q", cfg.PerplexityKey)
	}
	if cfg.Provider != "openrouter" {
		t.Errorf("explicit provider overridden by env: %q", cfg.Provider)
	}
	if cfg.Model != "sonar" {
		t.Errorf("model not filled from env: %q", cfg.Model)
	}
	if !cfg.DebugLog {
		t.Error("debug log not enabled")
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	dir := t.TempDir()

	p := LoadPreferences(dir)
	if p.LastProvider != "" {
		t.Fatalf("fresh prefs: %+v", p)
	}

	p.RememberSelection("perplexity", "sonar-pro")
	p.RememberSelection("openrouter", "anthropic/claude-sonnet-4.5")
	if err := SavePreferences(dir, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	q := LoadPreferences(dir)
	if q.LastProvider != "openrouter" {
		t.Errorf("last provider: %q", q.LastProvider)
	}
	if q.LastModel("perplexity") != "sonar-pro" {
		t.Errorf("last model: %q", q.LastModel("perplexity"))
	}
}

func TestLoadPreferencesToleratesBrokenFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, preferencesFile), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := LoadPreferences(dir)
	if p.LastProvider != "" || p.LastModels != nil {
		t.Fatalf("broken file must yield empty prefs: %+v", p)
	}
}

func writeTranscriptFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "vortrag.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveTranscriptTitleFallsBackToFilename(t *testing.T) {
	dir := t.TempDir()
	path := writeTranscriptFile(t, dir, "Nur reiner Text ohne Titelzeile.")

	a := &App{cfg: Config{TranscriptPath: path}}
	in, err := a.resolveTranscript()
	if err != nil {
		t.Fatalf("resolveTranscript: %v", err)
	}
	if in.title != "vortrag" {
		t.Errorf("title: %q", in.title)
	}
	if in.channel != "Unbekannt" {
		t.Errorf("channel: %q", in.channel)
	}
	if in.mode != "transcript" {
		t.Errorf("mode: %q", in.mode)
	}
}

func TestResolveInputRejectsEmptyConfig(t *testing.T) {
	a := &App{}
	if _, err := a.resolveInput(context.Background()); err == nil {
		t.Fatal("expected unusable-input error")
	}
}

// stubPerplexity serves the chat completions wire format with citations.
func stubPerplexity(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"content": "FRAMING\nKERNTHESE: Die These [1].\n\nELABORATION\nDetails laut [bericht](https://www.example.org/artikel)."}}],
			"usage": {"total_tokens": 222},
			"citations": ["https://www.timesofisrael.com/article"]
		}`))
	}))
}

func TestRunEndToEnd(t *testing.T) {
	var calls atomic.Int32
	srv := stubPerplexity(t, &calls)
	defer srv.Close()

	work := t.TempDir()
	state := t.TempDir()
	path := writeTranscriptFile(t, t.TempDir(), "# Testvortrag\nAutor: Testerin\n\nInhalt des Vortrags.")

	cfg := Config{
		TranscriptPath: path,
		Provider:       "perplexity",
		PerplexityKey:  "pk-test",
		BaseURL:        srv.URL,
		Model:          "sonar",
		OutputPath:     filepath.Join(work, "analyse.md"),
		PostPath:       filepath.Join(work, "post.txt"),
		RatingsDir:     state,
		CacheDir:       filepath.Join(state, "cache"),
	}
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	post, err := os.ReadFile(cfg.PostPath)
	if err != nil {
		t.Fatalf("post not written: %v", err)
	}
	if !strings.Contains(string(post), "Quellen:") {
		t.Errorf("post missing source summary:\n%s", post)
	}
	if !strings.Contains(string(post), "Testerin, YT") {
		t.Errorf("post missing channel header:\n%s", post)
	}

	md, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("markdown not written: %v", err)
	}
	if !strings.Contains(string(md), "## Quellen") {
		t.Errorf("markdown missing citations appendix:\n%s", md)
	}

	sourcesPath := filepath.Join(work, "post_quellen.txt")
	if _, err := os.Stat(sourcesPath); err != nil {
		t.Errorf("detailed sources not written: %v", err)
	}

	if _, err := os.Stat(filepath.Join(state, "ratings.db")); err != nil {
		t.Errorf("ratings database not created: %v", err)
	}

	prefs := LoadPreferences(state)
	if prefs.LastProvider != "perplexity" || prefs.LastModel("perplexity") != "sonar" {
		t.Errorf("preferences not saved: %+v", prefs)
	}

	// Second run hits the response cache, not the server.
	before := calls.Load()
	b, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if calls.Load() != before {
		t.Errorf("second run called the provider (%d -> %d calls)", before, calls.Load())
	}
}

func TestRunDryRunSkipsProvider(t *testing.T) {
	var calls atomic.Int32
	srv := stubPerplexity(t, &calls)
	defer srv.Close()

	path := writeTranscriptFile(t, t.TempDir(), "# T\n\nText.")
	cfg := Config{
		TranscriptPath: path,
		Provider:       "perplexity",
		PerplexityKey:  "pk-test",
		BaseURL:        srv.URL,
		DryRun:         true,
		RatingsDir:     t.TempDir(),
	}
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("dry run called the provider %d times", calls.Load())
	}
}

func TestCheckKey(t *testing.T) {
	var calls atomic.Int32
	srv := stubPerplexity(t, &calls)
	defer srv.Close()

	cfg := Config{
		Provider:      "perplexity",
		PerplexityKey: "pk-test",
		BaseURL:       srv.URL,
		RatingsDir:    t.TempDir(),
	}
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.CheckKey(context.Background()); err != nil {
		t.Errorf("CheckKey with accepted key: %v", err)
	}
	if calls.Load() == 0 {
		t.Error("CheckKey did not reach the provider")
	}

	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "invalid api key"}`, http.StatusUnauthorized)
	}))
	defer rejecting.Close()

	cfg.BaseURL = rejecting.URL
	b, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.CheckKey(context.Background()); !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("CheckKey with rejected key: got %v, want ErrInvalidAPIKey", err)
	}
}

func TestNewRejectsMissingKey(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "perplexity", RatingsDir: t.TempDir()})
	if err == nil {
		t.Fatal("expected missing-key error")
	}
}

func TestNewRejectsUnknownPreset(t *testing.T) {
	_, err := New(context.Background(), Config{
		Provider: "perplexity", PerplexityKey: "k",
		PresetID: "nope", RatingsDir: t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected unknown-preset error")
	}
}
