// Package debuglog records full API interactions as JSON files for later
// analysis of hallucinations, misidentifications and unexpected output.
// Each call gets its own directory under the OS temp dir with request.json,
// meta.json and response.json.
package debuglog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
)

// Logger writes call logs when enabled; the zero value is disabled.
type Logger struct {
	Enabled bool
	// BaseDir overrides the default <tmp>/somas_debug location.
	BaseDir string
	// MaxRuns bounds how many call logs are kept; 0 means the default.
	MaxRuns int
}

const defaultMaxRuns = 50

func (l *Logger) baseDir() string {
	if l.BaseDir != "" {
		return l.BaseDir
	}
	return filepath.Join(os.TempDir(), "somas_debug")
}

// Meta carries run context written next to the request.
type Meta struct {
	AppVersion string `json:"app_version"`
	Preset     string `json:"preset,omitempty"`
	VideoURL   string `json:"video_url,omitempty"`
	VideoTitle string `json:"video_title,omitempty"`
	InputMode  string `json:"input_mode,omitempty"`
}

type requestRecord struct {
	Timestamp         string `json:"timestamp"`
	Provider          string `json:"provider"`
	Model             string `json:"model"`
	Endpoint          string `json:"endpoint"`
	PromptLengthChars int    `json:"prompt_length_chars"`
	Prompt            string `json:"prompt"`
}

// ResponseRecord captures what came back, including errors.
type ResponseRecord struct {
	TimestampReceived  string   `json:"timestamp_received"`
	DurationSeconds    float64  `json:"duration_seconds"`
	StatusCode         int      `json:"status_code"`
	ModelUsed          string   `json:"model_used"`
	TokensTotal        int      `json:"tokens_total"`
	ContentLengthChars int      `json:"content_length_chars"`
	Error              bool     `json:"error"`
	ErrorMessage       string   `json:"error_message,omitempty"`
	Citations          []string `json:"citations,omitempty"`
	Content            string   `json:"content"`
}

var unsafePathRe = regexp.MustCompile(`[<>:"/\\|?*]`)

// LogRequest writes request.json and meta.json for an outgoing call and
// returns the log directory. Disabled loggers return "" and do nothing.
func (l *Logger) LogRequest(provider, model, endpoint, prompt string, meta Meta) (string, error) {
	if l == nil || !l.Enabled {
		return "", nil
	}

	now := time.Now()
	dirName := fmt.Sprintf("%s_%s_%s",
		now.Format("2006-01-02_15-04-05"),
		provider,
		unsafePathRe.ReplaceAllString(model, "_"),
	)
	dir := filepath.Join(l.baseDir(), dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create debug log directory: %w", err)
	}

	req := requestRecord{
		Timestamp:         now.Format(time.RFC3339),
		Provider:          provider,
		Model:             model,
		Endpoint:          endpoint,
		PromptLengthChars: len([]rune(prompt)),
		Prompt:            prompt,
	}
	if err := writeJSON(filepath.Join(dir, "request.json"), req); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, "meta.json"), meta); err != nil {
		return "", err
	}

	l.prune()

	log.Info().Str("dir", dir).Msg("debug log: request saved")
	return dir, nil
}

func (l *Logger) maxRuns() int {
	if l.MaxRuns > 0 {
		return l.MaxRuns
	}
	return defaultMaxRuns
}

// prune drops the oldest call logs once the bound is exceeded. Directory
// names start with the creation timestamp and ReadDir sorts by name, so
// the listing is already in age order.
func (l *Logger) prune() {
	base := l.baseDir()
	entries, err := os.ReadDir(base)
	if err != nil {
		return
	}
	dirs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	if len(dirs) <= l.maxRuns() {
		return
	}
	for _, name := range dirs[:len(dirs)-l.maxRuns()] {
		if err := os.RemoveAll(filepath.Join(base, name)); err != nil {
			log.Warn().Err(err).Str("dir", name).Msg("cannot prune debug log")
		}
	}
}

// LogResponse writes response.json into the directory LogRequest returned.
func (l *Logger) LogResponse(dir string, rec ResponseRecord) error {
	if l == nil || !l.Enabled || dir == "" {
		return nil
	}
	if rec.TimestampReceived == "" {
		rec.TimestampReceived = time.Now().Format(time.RFC3339)
	}
	rec.ContentLengthChars = len([]rune(rec.Content))
	if err := writeJSON(filepath.Join(dir, "response.json"), rec); err != nil {
		return err
	}
	log.Info().
		Int("chars", rec.ContentLengthChars).
		Float64("seconds", rec.DurationSeconds).
		Msg("debug log: response saved")
	return nil
}

// Count returns the number of stored call logs.
func (l *Logger) Count() int {
	entries, err := os.ReadDir(l.baseDir())
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			n++
		}
	}
	return n
}

// Clear removes all call logs and returns how many were deleted.
func (l *Logger) Clear() int {
	base := l.baseDir()
	entries, err := os.ReadDir(base)
	if err != nil {
		return 0
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := os.RemoveAll(filepath.Join(base, e.Name())); err != nil {
			log.Warn().Err(err).Str("dir", e.Name()).Msg("cannot remove debug log")
			continue
		}
		count++
	}
	log.Info().Int("count", count).Msg("debug logs cleared")
	return count
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
