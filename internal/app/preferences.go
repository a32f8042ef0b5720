package app

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/somas/internal/ratings"
)

const preferencesFile = "user_preferences.json"

// Preferences holds non-sensitive user state that survives across runs:
// the provider picked last and the last model per provider.
type Preferences struct {
	LastProvider string            `json:"last_provider,omitempty"`
	LastModels   map[string]string `json:"last_models,omitempty"`
}

// LoadPreferences reads the preferences file from dir. A missing or broken
// file yields empty preferences, never an error.
func LoadPreferences(dir string) Preferences {
	var p Preferences
	b, err := os.ReadFile(filepath.Join(dir, preferencesFile))
	if err != nil {
		return p
	}
	if err := json.Unmarshal(b, &p); err != nil {
		log.Warn().Err(err).Msg("cannot parse preferences, starting fresh")
		return Preferences{}
	}
	return p
}

// SavePreferences writes the preferences file to dir.
func SavePreferences(dir string, p Preferences) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, preferencesFile), b, 0o644)
}

// LastModel returns the model last used with providerID, if any.
func (p Preferences) LastModel(providerID string) string {
	return p.LastModels[providerID]
}

// RememberSelection records the provider/model pair of a successful run.
func (p *Preferences) RememberSelection(providerID, model string) {
	p.LastProvider = providerID
	if p.LastModels == nil {
		p.LastModels = map[string]string{}
	}
	p.LastModels[providerID] = model
}

// PreferencesDir is where preferences live by default, next to the ratings
// database.
func PreferencesDir() string {
	return ratings.DefaultDir()
}
