package prompt

import (
	"strings"
	"testing"

	"github.com/hyperifyio/somas/internal/preset"
)

func standardPreset(t *testing.T) preset.Preset {
	t.Helper()
	presets, err := preset.Load("")
	if err != nil {
		t.Fatalf("load presets: %v", err)
	}
	p, ok := preset.ByID(presets, preset.DefaultID)
	if !ok {
		t.Fatal("standard preset missing")
	}
	return p
}

func TestBuildVideo(t *testing.T) {
	p := standardPreset(t)
	out, err := BuildVideo(VideoRequest{
		Title:   "Titel X",
		Channel: "Kanal Y",
		URL:     "https://www.youtube.com/watch?v=abc12345678",
		Preset:  p,
		Config:  Config{Depth: 2, Language: "Deutsch"},
	})
	if err != nil {
		t.Fatalf("BuildVideo: %v", err)
	}
	for _, want := range []string{
		`"Titel X"`, `"Kanal Y"`,
		"https://www.youtube.com/watch?v=abc12345678",
		"Standard-Analyse", "Tiefe 2",
		"FRAMING", "KERNTHESE", "ANSCHLUSSFRAGE",
		"höchstens 3 Sätze",
		"2600 Zeichen",
		"Antworte auf Deutsch.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Zeitbereich") || strings.Contains(out, "Anschlussfragen") {
		t.Errorf("optional clauses must be absent:\n%s", out)
	}
}

func TestBuildVideoZeroConfigDefaults(t *testing.T) {
	out, err := BuildVideo(VideoRequest{
		Title:   "Titel",
		Channel: "Kanal",
		URL:     "https://www.youtube.com/watch?v=abc12345678",
		Preset:  standardPreset(t),
		Config:  Config{},
	})
	if err != nil {
		t.Fatalf("BuildVideo: %v", err)
	}
	if !strings.Contains(out, "Tiefe 2") {
		t.Errorf("unset depth must render as 2:\n%s", out)
	}
	if !strings.Contains(out, "Antworte auf Deutsch.") {
		t.Errorf("unset language must render as Deutsch:\n%s", out)
	}
	if strings.Contains(out, "Tiefe 0") || strings.Contains(out, "Antworte auf .") {
		t.Errorf("zero values leaked into the prompt:\n%s", out)
	}
}

func TestBuildVideoWithTimeRangeAndQuestions(t *testing.T) {
	p := standardPreset(t)
	out, err := BuildVideo(VideoRequest{
		Title:   "T",
		Channel: "K",
		URL:     "https://youtu.be/abc12345678",
		Preset:  p,
		Config: Config{
			Depth:    3,
			Language: "Deutsch",
			TimeRange: &TimeRange{
				Start: "00:10:00", End: "00:25:00",
				IncludeContext: true, VideoDuration: "45:32",
			},
		},
		Questions: "Was bedeutet das für Europa?",
	})
	if err != nil {
		t.Fatalf("BuildVideo: %v", err)
	}
	for _, want := range []string{
		"Zeitbereich 00:10:00 bis 00:25:00",
		"Gesamtlänge 45:32",
		"Gesamtkontext",
		"Was bedeutet das für Europa?",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q:\n%s", want, out)
		}
	}
}

func TestBuildTranscript(t *testing.T) {
	p := standardPreset(t)
	out, err := BuildTranscript(TranscriptRequest{
		Title:          "Vortrag",
		Author:         "Rednerin",
		Transcript:     "Hallo Welt, dies ist der Mitschnitt.",
		AutoTranscript: true,
		Preset:         p,
		Config:         Config{Depth: 1, Language: "Deutsch"},
	})
	if err != nil {
		t.Fatalf("BuildTranscript: %v", err)
	}
	for _, want := range []string{
		"TRANSKRIPT:",
		"Hallo Welt, dies ist der Mitschnitt.",
		"automatischer Spracherkennung",
		"Kurzquellen-Modus",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q:\n%s", want, out)
		}
	}
}

func TestPresetSentencesOverrideDepth(t *testing.T) {
	p := standardPreset(t)
	p.SentencesPerSection = 7
	out, err := BuildVideo(VideoRequest{
		Title: "T", Channel: "K", URL: "u",
		Preset: p,
		Config: Config{Depth: 1, Language: "Deutsch"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "höchstens 7 Sätze") {
		t.Errorf("preset verbosity must win:\n%s", out)
	}
}

func TestResearchPresetOmitsLimits(t *testing.T) {
	presets, _ := preset.Load("")
	research, _ := preset.ByID(presets, "research")
	out, err := BuildVideo(VideoRequest{
		Title: "T", Channel: "K", URL: "u",
		Preset: research,
		Config: Config{Depth: 2, Language: "Deutsch"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "nicht überschreiten") {
		t.Errorf("unlimited preset must not emit a character budget:\n%s", out)
	}
	// Research leaves verbosity to the depth level.
	if !strings.Contains(out, "höchstens 3 Sätze") {
		t.Errorf("depth verbosity expected:\n%s", out)
	}
}
