// Package ratings persists analysis runs and their quality ratings in a
// local SQLite database, so model and channel performance can be compared
// across runs.
package ratings

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// DefaultDir returns the per-user data directory for the ratings database.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".somas_prompt_generator"
	}
	return filepath.Join(home, ".somas_prompt_generator")
}

const currentSchemaVersion = 2

// Schema version 1: initial analyses table.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS analyses (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp       TEXT NOT NULL DEFAULT (datetime('now')),

	provider_id     TEXT NOT NULL,
	model_id        TEXT NOT NULL,
	model_name      TEXT NOT NULL,

	video_url       TEXT,
	video_title     TEXT,
	channel_name    TEXT,
	video_duration  INTEGER DEFAULT 0,

	preset_name     TEXT NOT NULL,
	preset_max_chars INTEGER DEFAULT 0,

	result_chars    INTEGER NOT NULL,
	response_time   REAL NOT NULL,
	tokens_used     INTEGER DEFAULT 0,
	price_input     REAL DEFAULT 0,
	price_output    REAL DEFAULT 0,

	limit_ratio     REAL,
	is_over_limit   BOOLEAN DEFAULT 0,

	quality_score   INTEGER,

	channel_informative   INTEGER,
	channel_balanced      INTEGER,
	channel_sourced       INTEGER,
	channel_entertaining  INTEGER,

	input_mode      TEXT DEFAULT 'youtube',
	had_transcript  BOOLEAN DEFAULT 0,
	had_time_range  BOOLEAN DEFAULT 0,
	had_questions   BOOLEAN DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_model ON analyses(model_id);
CREATE INDEX IF NOT EXISTS idx_channel ON analyses(channel_name);
CREATE INDEX IF NOT EXISTS idx_preset ON analyses(preset_name);
CREATE INDEX IF NOT EXISTS idx_timestamp ON analyses(timestamp);
`

// Schema version 2: channels table plus the model_rating_z column
// (Z scale, -2 to +2) on analyses.
const migrationV2 = `
CREATE TABLE IF NOT EXISTS channels (
	channel_name    TEXT PRIMARY KEY,
	factual_score   INTEGER DEFAULT 0,
	argument_score  INTEGER DEFAULT 0,
	bias_direction  TEXT DEFAULT '',
	bias_strength   INTEGER DEFAULT 0,
	mode_tags       TEXT DEFAULT '',
	notes           TEXT DEFAULT '',
	updated_at      TEXT DEFAULT (datetime('now'))
);
`

// AnalysisRecord is one finished analysis run as it goes into the store.
// Ratings are attached later via UpdateModelRatingZ and UpdateRatings.
type AnalysisRecord struct {
	ProviderID string
	ModelID    string
	ModelName  string

	VideoURL      string
	VideoTitle    string
	ChannelName   string
	VideoDuration int

	PresetName     string
	PresetMaxChars int

	ResultChars  int
	ResponseTime float64
	TokensUsed   int
	PriceInput   float64
	PriceOutput  float64

	InputMode     string
	HadTranscript bool
	HadTimeRange  bool
	HadQuestions  bool
}

// ChannelRating is a per-channel quality assessment, keyed by channel name.
// Scores use the Z scale (-2 to +2), bias strength 0 to 3.
type ChannelRating struct {
	ChannelName   string
	FactualScore  int
	ArgumentScore int
	BiasDirection string
	BiasStrength  int
	ModeTags      string
	Notes         string
	UpdatedAt     string
}

// Store wraps the SQLite ratings database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the ratings database in dir and runs any pending
// schema migrations.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ratings directory: %w", err)
	}
	dbPath := filepath.Join(dir, "ratings.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open ratings database: %w", err)
	}
	s := &Store{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ratings database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate() error {
	version, err := s.schemaVersion()
	if err != nil {
		return err
	}
	if version < 1 {
		log.Info().Msg("creating initial ratings schema (version 1)")
		if _, err := s.db.Exec(schemaV1); err != nil {
			return err
		}
		if err := s.setSchemaVersion(1); err != nil {
			return err
		}
		version = 1
	}
	if version < 2 {
		log.Info().Msg("migrating ratings schema to version 2")
		if _, err := s.db.Exec(migrationV2); err != nil {
			return err
		}
		if _, err := s.db.Exec("ALTER TABLE analyses ADD COLUMN model_rating_z INTEGER"); err != nil {
			// A database that was half-migrated already has the column.
			if !strings.Contains(strings.ToLower(err.Error()), "duplicate column") {
				return err
			}
		}
		if err := s.setSchemaVersion(2); err != nil {
			return err
		}
	}
	return nil
}

// schemaVersion reads the recorded schema version. A database that predates
// version tracking but already has the analyses table counts as version 1.
func (s *Store) schemaVersion() (int, error) {
	exists, err := s.tableExists("schema_version")
	if err != nil {
		return 0, err
	}
	if !exists {
		legacy, err := s.tableExists("analyses")
		if err != nil {
			return 0, err
		}
		if legacy {
			return 1, nil
		}
		return 0, nil
	}
	var version sql.NullInt64
	if err := s.db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

func (s *Store) tableExists(name string) (bool, error) {
	var found string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) setSchemaVersion(version int) error {
	if _, err := s.db.Exec("CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return err
	}
	_, err := s.db.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", version)
	return err
}

// SaveAnalysis inserts a run and returns its row ID. The limit ratio and
// over-limit flag are derived from the preset's character limit; presets
// without a limit leave them NULL and false.
func (s *Store) SaveAnalysis(r AnalysisRecord) (int64, error) {
	var limitRatio sql.NullFloat64
	overLimit := false
	if r.PresetMaxChars > 0 {
		limitRatio = sql.NullFloat64{Float64: float64(r.ResultChars) / float64(r.PresetMaxChars), Valid: true}
		overLimit = r.ResultChars > r.PresetMaxChars
	}

	inputMode := r.InputMode
	if inputMode == "" {
		inputMode = "youtube"
	}

	res, err := s.db.Exec(`INSERT INTO analyses (
		provider_id, model_id, model_name,
		video_url, video_title, channel_name, video_duration,
		preset_name, preset_max_chars,
		result_chars, response_time, tokens_used,
		price_input, price_output,
		limit_ratio, is_over_limit,
		input_mode, had_transcript, had_time_range, had_questions
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ProviderID, r.ModelID, r.ModelName,
		r.VideoURL, r.VideoTitle, r.ChannelName, r.VideoDuration,
		r.PresetName, r.PresetMaxChars,
		r.ResultChars, r.ResponseTime, r.TokensUsed,
		r.PriceInput, r.PriceOutput,
		limitRatio, overLimit,
		inputMode, r.HadTranscript, r.HadTimeRange, r.HadQuestions,
	)
	if err != nil {
		return 0, fmt.Errorf("save analysis: %w", err)
	}
	return res.LastInsertId()
}

// UpdateModelRatingZ sets the model rating on the Z scale, -2 (very bad) to
// +2 (very good).
func (s *Store) UpdateModelRatingZ(analysisID int64, zScore int) error {
	if zScore < -2 || zScore > 2 {
		return fmt.Errorf("z-score must be -2 to +2, was %d", zScore)
	}
	_, err := s.db.Exec("UPDATE analyses SET model_rating_z = ? WHERE id = ?", zScore, analysisID)
	return err
}

// LegacyRatings carries the pre-redesign rating dimensions. Zero means
// unrated and is stored as NULL: quality is 1-5 stars, the channel
// dimensions are +1 (good) or -1 (bad).
type LegacyRatings struct {
	QualityScore        int
	ChannelInformative  int
	ChannelBalanced     int
	ChannelSourced      int
	ChannelEntertaining int
}

// UpdateRatings sets all legacy rating dimensions of an analysis in one call.
func (s *Store) UpdateRatings(analysisID int64, r LegacyRatings) error {
	_, err := s.db.Exec(`UPDATE analyses SET
		quality_score = ?,
		channel_informative = ?,
		channel_balanced = ?,
		channel_sourced = ?,
		channel_entertaining = ?
	WHERE id = ?`,
		nullIfZero(r.QualityScore),
		nullIfZero(r.ChannelInformative),
		nullIfZero(r.ChannelBalanced),
		nullIfZero(r.ChannelSourced),
		nullIfZero(r.ChannelEntertaining),
		analysisID,
	)
	return err
}

func nullIfZero(v int) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(v), Valid: true}
}

// SaveChannelRating inserts or replaces the rating for a channel.
func (s *Store) SaveChannelRating(r ChannelRating) error {
	if r.ChannelName == "" {
		return fmt.Errorf("channel name must not be empty")
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO channels (
		channel_name, factual_score, argument_score,
		bias_direction, bias_strength, mode_tags, notes,
		updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, datetime('now'))`,
		r.ChannelName, r.FactualScore, r.ArgumentScore,
		r.BiasDirection, r.BiasStrength, r.ModeTags, r.Notes,
	)
	return err
}

// ChannelRating returns the stored rating for channelName, or nil when the
// channel has not been rated yet.
func (s *Store) ChannelRating(channelName string) (*ChannelRating, error) {
	row := s.db.QueryRow(`SELECT channel_name, factual_score, argument_score,
		bias_direction, bias_strength, mode_tags, notes, updated_at
		FROM channels WHERE channel_name = ?`, channelName)
	var r ChannelRating
	err := row.Scan(&r.ChannelName, &r.FactualScore, &r.ArgumentScore,
		&r.BiasDirection, &r.BiasStrength, &r.ModeTags, &r.Notes, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// AllChannels returns all rated channels ordered by name.
func (s *Store) AllChannels() ([]ChannelRating, error) {
	rows, err := s.db.Query(`SELECT channel_name, factual_score, argument_score,
		bias_direction, bias_strength, mode_tags, notes, updated_at
		FROM channels ORDER BY channel_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChannelRating
	for rows.Next() {
		var r ChannelRating
		if err := rows.Scan(&r.ChannelName, &r.FactualScore, &r.ArgumentScore,
			&r.BiasDirection, &r.BiasStrength, &r.ModeTags, &r.Notes, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
