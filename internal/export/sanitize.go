// Package export writes finished analyses to disk as Markdown or PDF.
// All text passes through Unicode sanitization first so that downstream
// tooling (Pandoc, LaTeX) does not choke on typographic characters that
// YouTube titles and model output like to carry.
package export

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// replacer maps characters known to break Pandoc/LaTeX pipelines to safe
// ASCII equivalents. The modifier letter apostrophe (U+02BC) shows up in
// YouTube titles; zero-width characters and stray BOMs come from model
// output.
var replacer = strings.NewReplacer(
	"ʼ", "'", // modifier letter apostrophe
	"’", "'", // right single quotation mark
	"‘", "'", // left single quotation mark
	"“", `"`, // left double quotation mark
	"”", `"`, // right double quotation mark
	"…", "...", // horizontal ellipsis
	"–", "-", // en dash
	"—", "--", // em dash
	" ", " ", // non-breaking space
	"​", "", // zero width space
	"‌", "", // zero width non-joiner
	"‍", "", // zero width joiner
	"\uFEFF", "", // BOM; re-added on write where wanted
)

// SanitizeText normalizes to NFC and replaces problematic characters.
func SanitizeText(text string) string {
	return replacer.Replace(norm.NFC.String(text))
}

const fallbackBaseName = "SOMAS_Analyse"

var (
	invalidFileCharsRe = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	multiSpaceRe       = regexp.MustCompile(`\s+`)
	multiUnderscoreRe  = regexp.MustCompile(`_+`)
)

// SanitizeFilename turns a free-form title into a filename that works on
// Windows, macOS and Linux: invalid filesystem characters, control runes and
// non-BMP runes (emoji) are dropped, whitespace is collapsed, and the result
// is truncated to maxLength, preferring a word boundary.
func SanitizeFilename(title string, maxLength int) string {
	if title == "" {
		return fallbackBaseName
	}

	name := SanitizeText(title)

	var b strings.Builder
	for _, r := range name {
		if r > 0x1F && r < 0x10000 {
			b.WriteRune(r)
		}
	}
	name = b.String()

	name = invalidFileCharsRe.ReplaceAllString(name, "")
	name = multiSpaceRe.ReplaceAllString(name, " ")
	name = multiUnderscoreRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, " ._-")

	if runes := []rune(name); len(runes) > maxLength {
		runes = runes[:maxLength]
		// Cut at the last space unless that loses more than half the name.
		if i := lastIndexRune(runes, ' '); i > maxLength/2 {
			runes = runes[:i]
		}
		name = strings.Trim(string(runes), " ._-")
	}

	if name == "" {
		return fallbackBaseName
	}
	return name
}

func lastIndexRune(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
