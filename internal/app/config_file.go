package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Nested sections
// map naturally to flags and environment variables.
type FileConfig struct {
	Video      string `yaml:"video" json:"video"`
	Transcript string `yaml:"transcript" json:"transcript"`

	Output struct {
		Markdown string `yaml:"markdown" json:"markdown"`
		Post     string `yaml:"post" json:"post"`
		Sources  string `yaml:"sources" json:"sources"`
		PDF      string `yaml:"pdf" json:"pdf"`
	} `yaml:"output" json:"output"`

	Provider struct {
		ID      string `yaml:"id" json:"id"`
		Model   string `yaml:"model" json:"model"`
		BaseURL string `yaml:"base" json:"base"`
	} `yaml:"provider" json:"provider"`

	Analysis struct {
		Preset      string `yaml:"preset" json:"preset"`
		PresetsFile string `yaml:"presetsFile" json:"presetsFile"`
		Depth       int    `yaml:"depth" json:"depth"`
		Language    string `yaml:"language" json:"language"`
	} `yaml:"analysis" json:"analysis"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	RatingsDir string `yaml:"ratingsDir" json:"ratingsDir"`
	DebugLog   bool   `yaml:"debugLog" json:"debugLog"`
	Verbose    bool   `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are currently unset/zero in cfg. Flags should already have been parsed; this
// lets file config supply defaults while preserving explicit flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setStr := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
		}
	}
	setStr(&cfg.VideoURL, fc.Video)
	setStr(&cfg.TranscriptPath, fc.Transcript)
	setStr(&cfg.OutputPath, fc.Output.Markdown)
	setStr(&cfg.PostPath, fc.Output.Post)
	setStr(&cfg.SourcesPath, fc.Output.Sources)
	setStr(&cfg.PDFPath, fc.Output.PDF)
	setStr(&cfg.Provider, fc.Provider.ID)
	setStr(&cfg.Model, fc.Provider.Model)
	setStr(&cfg.BaseURL, fc.Provider.BaseURL)
	setStr(&cfg.PresetID, fc.Analysis.Preset)
	setStr(&cfg.PresetsPath, fc.Analysis.PresetsFile)
	setStr(&cfg.Language, fc.Analysis.Language)
	setStr(&cfg.CacheDir, fc.Cache.Dir)
	setStr(&cfg.RatingsDir, fc.RatingsDir)
	if cfg.Depth == 0 && fc.Analysis.Depth != 0 {
		cfg.Depth = fc.Analysis.Depth
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge != 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	cfg.CacheClear = cfg.CacheClear || fc.Cache.Clear
	cfg.CacheStrictPerms = cfg.CacheStrictPerms || fc.Cache.StrictPerms
	cfg.DebugLog = cfg.DebugLog || fc.DebugLog
	cfg.Verbose = cfg.Verbose || fc.Verbose
}

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values (flags) take precedence over env; env in turn beats
// file config because main applies this before ApplyFileConfig.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	setStr := func(dst *string, envKey string) {
		if *dst == "" {
			*dst = os.Getenv(envKey)
		}
	}
	setStr(&cfg.OpenRouterKey, "OPENROUTER_API_KEY")
	setStr(&cfg.PerplexityKey, "PERPLEXITY_API_KEY")
	setStr(&cfg.Provider, "SOMAS_PROVIDER")
	setStr(&cfg.Model, "SOMAS_MODEL")
	setStr(&cfg.BaseURL, "SOMAS_BASE_URL")
	setStr(&cfg.PresetID, "SOMAS_PRESET")
	setStr(&cfg.Language, "SOMAS_LANGUAGE")
	setStr(&cfg.CacheDir, "SOMAS_CACHE_DIR")
	setStr(&cfg.RatingsDir, "SOMAS_RATINGS_DIR")
	if cfg.CacheMaxAge == 0 {
		if s := os.Getenv("SOMAS_CACHE_MAX_AGE"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.CacheMaxAge = d
			}
		}
	}
	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		switch strings.ToLower(strings.TrimSpace(os.Getenv(envKey))) {
		case "1", "true", "yes", "on":
			*dst = true
		}
	}
	setBool(&cfg.DebugLog, "SOMAS_DEBUG_LOG")
	setBool(&cfg.Verbose, "SOMAS_VERBOSE")
	setBool(&cfg.NoCache, "SOMAS_NO_CACHE")
}
