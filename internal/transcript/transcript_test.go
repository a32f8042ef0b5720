package transcript

import (
	"strings"
	"testing"
)

func TestParse_FullMetadata(t *testing.T) {
	input := `# Vortrag über Medienkompetenz

Autor: Maja Göpel
URL: https://example.org/vortrag

Guten Abend, heute sprechen wir über die Frage,
wie Nachrichten gemacht werden.`

	d := Parse(input)

	if d.Title != "Vortrag über Medienkompetenz" {
		t.Fatalf("title: got %q", d.Title)
	}
	if d.Author != "Maja Göpel" {
		t.Fatalf("author: got %q", d.Author)
	}
	if d.URL != "https://example.org/vortrag" {
		t.Fatalf("url: got %q", d.URL)
	}
	if d.Body != "Guten Abend, heute sprechen wir über die Frage,\nwie Nachrichten gemacht werden." {
		t.Fatalf("body: got %q", d.Body)
	}
	if !d.Valid() {
		t.Fatal("expected valid document")
	}
}

func TestParse_KanalSynonym(t *testing.T) {
	d := Parse("# T\nKanal: MrWissen2go\nText.")
	if d.Author != "MrWissen2go" {
		t.Fatalf("author: got %q", d.Author)
	}
}

func TestParse_BareBody(t *testing.T) {
	d := Parse("Nur der reine Transkript-Text ohne Metadaten.")
	if d.Title != "" {
		t.Fatalf("title: got %q", d.Title)
	}
	if d.Body != "Nur der reine Transkript-Text ohne Metadaten." {
		t.Fatalf("body: got %q", d.Body)
	}
	if d.Valid() {
		t.Fatal("document without title must not be valid")
	}
}

func TestParse_URLInBodyStaysInBody(t *testing.T) {
	input := `# T
Autor: A

Der Sprecher erwähnt hier eine Seite.
URL: https://example.org/im-text`

	d := Parse(input)
	if d.URL != "" {
		t.Fatalf("url: got %q, metadata scan must stop at body", d.URL)
	}
	if !strings.Contains(d.Body, "https://example.org/im-text") {
		t.Fatalf("body lost the mentioned URL: %q", d.Body)
	}
}

func TestWordCountAndReadingTime(t *testing.T) {
	d := Document{Body: "eins zwei drei"}
	if got := d.WordCount(); got != 3 {
		t.Fatalf("WordCount: got %d", got)
	}
	if got := d.ReadingMinutes(); got != 1 {
		t.Fatalf("ReadingMinutes short body: got %d", got)
	}
	if got := (Document{}).ReadingMinutes(); got != 0 {
		t.Fatalf("ReadingMinutes empty: got %d", got)
	}
}
