// Package preset defines the selectable analysis prompt profiles: how long
// the answer may be, how many sentences each schema section gets, and which
// prompt template renders the request.
package preset

import (
	"fmt"
	"strings"
)

// Preset is one prompt profile.
type Preset struct {
	ID                  string   `yaml:"id"`
	Name                string   `yaml:"name"`
	Description         string   `yaml:"description"`
	MaxChars            int      `yaml:"max_chars"`
	SentencesPerSection int      `yaml:"sentences_per_section"`
	ReadingTimeSeconds  int      `yaml:"reading_time_seconds"`
	SystemPrompt        string   `yaml:"system_prompt"`
	TemplateName        string   `yaml:"template"`
	RecommendedModels   []string `yaml:"recommended_models"`
	ShowModelHint       bool     `yaml:"show_model_hint"`
	ModelHintMessage    string   `yaml:"model_hint_message"`
	// TranscriptAware presets ship their own transcript embedding in the
	// template; others use the generic transcript template.
	TranscriptAware bool `yaml:"transcript_aware"`
	// RequiresWebSearch marks presets that only work with a model that can
	// search the web on its own (the research preset on Perplexity Sonar).
	RequiresWebSearch bool `yaml:"requires_web_search"`
}

// IsUnlimited reports whether the preset has no character budget.
func (p Preset) IsUnlimited() bool { return p.MaxChars == 0 }

// HasModelRecommendation reports whether recommended models are listed.
func (p Preset) HasModelRecommendation() bool { return len(p.RecommendedModels) > 0 }

// ReadingTimeDisplay renders the reading time for listings, e.g. "~45 Sek."
// or "~3 Min.".
func (p Preset) ReadingTimeDisplay() string {
	switch {
	case p.ReadingTimeSeconds == 0:
		return "variabel"
	case p.ReadingTimeSeconds < 60:
		return fmt.Sprintf("~%d Sek.", p.ReadingTimeSeconds)
	default:
		return fmt.Sprintf("~%d Min.", p.ReadingTimeSeconds/60)
	}
}

// MaxCharsDisplay renders the character budget with German thousands
// separators, e.g. "max. 2.600", or "unbegrenzt".
func (p Preset) MaxCharsDisplay() string {
	if p.IsUnlimited() {
		return "unbegrenzt"
	}
	return "max. " + groupDigits(p.MaxChars)
}

// Info renders a short multi-line description for preset listings.
func (p Preset) Info() string {
	parts := []string{p.Description}
	if p.IsUnlimited() {
		parts = append(parts, "Keine Zeichenbegrenzung")
	} else {
		parts = append(parts, p.MaxCharsDisplay()+" Zeichen")
	}
	parts = append(parts, "Lesezeit: "+p.ReadingTimeDisplay())
	if p.HasModelRecommendation() {
		short := make([]string, 0, 3)
		for _, m := range p.RecommendedModels {
			if len(short) == 3 {
				break
			}
			if i := strings.LastIndexByte(m, '/'); i >= 0 {
				m = m[i+1:]
			}
			short = append(short, m)
		}
		parts = append(parts, "Empfohlen: "+strings.Join(short, ", "))
	}
	return strings.Join(parts, "\n")
}

func groupDigits(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var sb strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		sb.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(s[i : i+3])
	}
	return sb.String()
}
