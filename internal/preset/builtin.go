package preset

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// DefaultID is used when no preset is selected.
const DefaultID = "standard"

const analystSystemPrompt = "Du bist ein präziser Medienanalyst. Folge dem SOMAS-Schema exakt und halte die vorgegebene Zeichenbegrenzung ein."

// builtin returns the shipped preset table in display order.
func builtin() []Preset {
	return []Preset{
		{
			ID:                  "compact",
			Name:                "Kompakt",
			Description:         "Kurzanalyse für schnelles Teilen",
			MaxChars:            1300,
			SentencesPerSection: 2,
			ReadingTimeSeconds:  40,
			SystemPrompt:        analystSystemPrompt,
			TemplateName:        "somas_video.tmpl",
		},
		{
			ID:                  "standard",
			Name:                "Standard",
			Description:         "Ausgewogene SOMAS-Analyse",
			MaxChars:            2600,
			SentencesPerSection: 3,
			ReadingTimeSeconds:  90,
			SystemPrompt:        analystSystemPrompt,
			TemplateName:        "somas_video.tmpl",
		},
		{
			ID:                  "deep",
			Name:                "Tiefenanalyse",
			Description:         "Ausführliche Analyse ohne Zeichenbegrenzung",
			MaxChars:            0,
			SentencesPerSection: 5,
			ReadingTimeSeconds:  0,
			SystemPrompt:        analystSystemPrompt,
			TemplateName:        "somas_video.tmpl",
		},
		{
			ID:                  "research",
			Name:                "Research",
			Description:         "Analyse mit eigenständiger Web-Recherche und Quellenangaben",
			MaxChars:            0,
			SentencesPerSection: 0,
			ReadingTimeSeconds:  0,
			SystemPrompt:        "Du bist ein recherchierender Medienanalyst. Belege Aussagen mit nummerierten Quellen [N] und folge dem SOMAS-Schema.",
			TemplateName:        "somas_video.tmpl",
			RecommendedModels:   []string{"sonar-pro", "sonar-reasoning", "perplexity/sonar-pro"},
			ShowModelHint:       true,
			ModelHintMessage:    "Dieses Preset braucht ein Modell mit Web-Suche (z.B. Perplexity Sonar).",
			RequiresWebSearch:   true,
		},
	}
}

// Load returns the preset table. When overlayPath names a YAML file, presets
// defined there replace or extend the built-in ones by ID.
func Load(overlayPath string) ([]Preset, error) {
	presets := builtin()
	if overlayPath == "" {
		return presets, nil
	}

	raw, err := os.ReadFile(overlayPath)
	if err != nil {
		return nil, fmt.Errorf("read preset overlay: %w", err)
	}
	var overlay struct {
		Presets []Preset `yaml:"presets"`
	}
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return nil, fmt.Errorf("parse preset overlay: %w", err)
	}

	for _, p := range overlay.Presets {
		if p.ID == "" {
			return nil, fmt.Errorf("preset overlay entry without id")
		}
		replaced := false
		for i := range presets {
			if presets[i].ID == p.ID {
				presets[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			presets = append(presets, p)
		}
	}
	return presets, nil
}

// ByID finds a preset by its identifier.
func ByID(presets []Preset, id string) (Preset, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// ByName finds a preset by its display name.
func ByName(presets []Preset, name string) (Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}
