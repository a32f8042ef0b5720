package ratings

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesCurrentSchema(t *testing.T) {
	s := openTestStore(t)
	v, err := s.schemaVersion()
	if err != nil {
		t.Fatalf("schemaVersion: %v", err)
	}
	if v != currentSchemaVersion {
		t.Fatalf("schema version: got %d, want %d", v, currentSchemaVersion)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, err := s.SaveAnalysis(AnalysisRecord{
		ProviderID: "openrouter", ModelID: "gpt-4o", ModelName: "GPT-4o",
		PresetName: "Standard", ResultChars: 100, ResponseTime: 1.5,
	})
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	s.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	var chars int
	if err := s2.db.QueryRow("SELECT result_chars FROM analyses WHERE id = ?", id).Scan(&chars); err != nil {
		t.Fatalf("query: %v", err)
	}
	if chars != 100 {
		t.Fatalf("result_chars: got %d", chars)
	}
}

func TestLegacyDatabaseIsMigrated(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ratings.db")

	// A pre-versioning database: analyses table, no schema_version.
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(schemaV1); err != nil {
		t.Fatal(err)
	}
	db.Close()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open legacy db: %v", err)
	}
	defer s.Close()

	v, err := s.schemaVersion()
	if err != nil {
		t.Fatal(err)
	}
	if v != 2 {
		t.Fatalf("schema version after migration: got %d", v)
	}
	// model_rating_z must exist now.
	if _, err := s.db.Exec("UPDATE analyses SET model_rating_z = 1 WHERE id = 0"); err != nil {
		t.Fatalf("model_rating_z column missing: %v", err)
	}
	if exists, err := s.tableExists("channels"); err != nil || !exists {
		t.Fatalf("channels table missing (exists=%v, err=%v)", exists, err)
	}
}

func TestSaveAnalysisLimitMetrics(t *testing.T) {
	s := openTestStore(t)

	id, err := s.SaveAnalysis(AnalysisRecord{
		ProviderID: "perplexity", ModelID: "sonar", ModelName: "Sonar",
		PresetName: "Kompakt", PresetMaxChars: 1300,
		ResultChars: 1950, ResponseTime: 3.2,
	})
	if err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	var ratio float64
	var over bool
	if err := s.db.QueryRow("SELECT limit_ratio, is_over_limit FROM analyses WHERE id = ?", id).
		Scan(&ratio, &over); err != nil {
		t.Fatal(err)
	}
	if ratio != 1.5 {
		t.Errorf("limit_ratio: got %v", ratio)
	}
	if !over {
		t.Error("expected is_over_limit")
	}
}

func TestSaveAnalysisUnlimitedPreset(t *testing.T) {
	s := openTestStore(t)

	id, err := s.SaveAnalysis(AnalysisRecord{
		ProviderID: "openrouter", ModelID: "m", ModelName: "M",
		PresetName: "Tiefenanalyse", PresetMaxChars: 0,
		ResultChars: 9999, ResponseTime: 1,
	})
	if err != nil {
		t.Fatal(err)
	}

	var ratio sql.NullFloat64
	var over bool
	if err := s.db.QueryRow("SELECT limit_ratio, is_over_limit FROM analyses WHERE id = ?", id).
		Scan(&ratio, &over); err != nil {
		t.Fatal(err)
	}
	if ratio.Valid {
		t.Errorf("limit_ratio should be NULL, got %v", ratio.Float64)
	}
	if over {
		t.Error("unlimited preset cannot be over limit")
	}
}

func TestUpdateModelRatingZ(t *testing.T) {
	s := openTestStore(t)
	id, err := s.SaveAnalysis(AnalysisRecord{
		ProviderID: "openrouter", ModelID: "m", ModelName: "M",
		PresetName: "Standard", ResultChars: 1, ResponseTime: 1,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateModelRatingZ(id, 3); err == nil {
		t.Fatal("expected range error for z=3")
	}
	if err := s.UpdateModelRatingZ(id, -2); err != nil {
		t.Fatalf("UpdateModelRatingZ: %v", err)
	}

	var z int
	if err := s.db.QueryRow("SELECT model_rating_z FROM analyses WHERE id = ?", id).Scan(&z); err != nil {
		t.Fatal(err)
	}
	if z != -2 {
		t.Fatalf("z: got %d", z)
	}
}

func TestUpdateRatingsStoresNullForUnrated(t *testing.T) {
	s := openTestStore(t)
	id, err := s.SaveAnalysis(AnalysisRecord{
		ProviderID: "openrouter", ModelID: "m", ModelName: "M",
		PresetName: "Standard", ResultChars: 1, ResponseTime: 1,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateRatings(id, LegacyRatings{QualityScore: 4, ChannelSourced: -1}); err != nil {
		t.Fatalf("UpdateRatings: %v", err)
	}

	var quality, sourced sql.NullInt64
	var balanced sql.NullInt64
	row := s.db.QueryRow(
		"SELECT quality_score, channel_sourced, channel_balanced FROM analyses WHERE id = ?", id)
	if err := row.Scan(&quality, &sourced, &balanced); err != nil {
		t.Fatal(err)
	}
	if !quality.Valid || quality.Int64 != 4 {
		t.Errorf("quality_score: got %+v", quality)
	}
	if !sourced.Valid || sourced.Int64 != -1 {
		t.Errorf("channel_sourced: got %+v", sourced)
	}
	if balanced.Valid {
		t.Errorf("channel_balanced should stay NULL, got %d", balanced.Int64)
	}
}

func TestChannelRatingRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if got, err := s.ChannelRating("unbewertet"); err != nil || got != nil {
		t.Fatalf("unrated channel: got %+v, err %v", got, err)
	}

	r := ChannelRating{
		ChannelName:   "Testkanal",
		FactualScore:  2,
		ArgumentScore: 1,
		BiasDirection: "neutral",
		BiasStrength:  1,
		ModeTags:      "Bildung,Interview",
		Notes:         "solide Quellenarbeit",
	}
	if err := s.SaveChannelRating(r); err != nil {
		t.Fatalf("SaveChannelRating: %v", err)
	}

	got, err := s.ChannelRating("Testkanal")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.FactualScore != 2 || got.ModeTags != "Bildung,Interview" {
		t.Fatalf("got %+v", got)
	}
	if got.UpdatedAt == "" {
		t.Error("updated_at not set")
	}

	// Replace keeps the channel unique.
	r.FactualScore = -1
	if err := s.SaveChannelRating(r); err != nil {
		t.Fatal(err)
	}
	all, err := s.AllChannels()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].FactualScore != -1 {
		t.Fatalf("all channels: %+v", all)
	}
}

func TestSaveChannelRatingRequiresName(t *testing.T) {
	s := openTestStore(t)
	if err := s.SaveChannelRating(ChannelRating{}); err == nil {
		t.Fatal("expected error for empty channel name")
	}
}
