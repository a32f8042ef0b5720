package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperifyio/somas/internal/youtube"
)

// Analysis bundles everything that goes into an export document.
type Analysis struct {
	Text     string
	Video    *youtube.VideoInfo // nil for manual-transcript runs
	Model    string
	Provider string
	Sources  []string
}

// MarkdownContent renders the full Markdown document: optional metadata
// header, sanitized analysis body and a numbered Quellen appendix.
func MarkdownContent(a Analysis) string {
	var parts []string

	if a.Video != nil {
		parts = append(parts,
			fmt.Sprintf("# SOMAS-Analyse: %s\n", SanitizeText(a.Video.Title)),
			fmt.Sprintf("**Kanal:** %s  ", a.Video.Channel),
			fmt.Sprintf("**Dauer:** %s  ", a.Video.DurationFormatted()),
			fmt.Sprintf("**URL:** %s  ", a.Video.URL),
		)
		if a.Model != "" && a.Provider != "" {
			parts = append(parts, fmt.Sprintf("**Modell:** %s (%s)", a.Model, a.Provider))
		}
		parts = append(parts, "", "---\n")
	}

	parts = append(parts, SanitizeText(a.Text))

	if len(a.Sources) > 0 {
		parts = append(parts, "\n\n---\n", "## Quellen\n")
		for i, url := range a.Sources {
			parts = append(parts, fmt.Sprintf("[%d] %s  ", i+1, url))
		}
	}

	return strings.Join(parts, "\n")
}

// utf8BOM goes at the start of exported Markdown files. Pandoc and other
// Windows tooling use it to detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteMarkdown writes the analysis to outPath with a UTF-8 BOM and Unix
// newlines. An empty outPath derives a timestamped filename from the video
// title in the current directory; the chosen path is returned either way.
func WriteMarkdown(a Analysis, outPath string) (string, error) {
	if outPath == "" {
		base := fallbackBaseName
		if a.Video != nil {
			base = SanitizeFilename(a.Video.Title, 80)
		}
		outPath = fmt.Sprintf("%s_%s.md", base, time.Now().Format("20060102_150405"))
	}

	content := strings.ReplaceAll(MarkdownContent(a), "\r\n", "\n")

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create export directory: %w", err)
		}
	}
	data := append(append([]byte{}, utf8BOM...), content...)
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write markdown export: %w", err)
	}
	return outPath, nil
}

// SuggestedFilename proposes a base filename (no extension) from the video
// title and the preset name.
func SuggestedFilename(video *youtube.VideoInfo, presetName string) string {
	base := fallbackBaseName
	if video != nil {
		base = SanitizeFilename(video.Title, 60)
	}
	if presetName != "" {
		short := presetName
		if r := []rune(short); len(r) > 10 {
			short = string(r[:10])
		}
		return base + "_" + strings.ReplaceAll(short, " ", "_")
	}
	return base
}
