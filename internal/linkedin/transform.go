package linkedin

import (
	"regexp"
	"strings"
)

// Section labels of the analysis schema. They structure the model output but
// carry no reader value on LinkedIn, so the transformer turns them into
// paragraph breaks.
var sectionTokens = []string{
	"FRAMING", "KERNTHESE", "ELABORATION", "IMPLIKATION",
	"KRITIK", "OFFENE_FRAGEN", "ZITATE", "VERBINDUNGEN",
	"ANSCHLUSSFRAGE", "QUICK INFO",
}

var (
	sectionLineRe = regexp.MustCompile(
		`(?i)^(?:#{1,6}\s+)?(` + strings.Join(sectionTokens, "|") + `)(?:\s*:?)?\s*$`)
	headingRe  = regexp.MustCompile(`^#{1,6}\s+.+$`)
	codeSpanRe = regexp.MustCompile("`([^`]+)`")
	boldRe     = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicStarRe       = regexp.MustCompile(`\*([^*]+)\*`)
	italicUnderscoreRe = regexp.MustCompile(`_([^_]+)_`)
	bulletRe           = regexp.MustCompile(`^(\s*)-\s+`)

	// Inline labels like "KERNTHESE: ..." at line start, tried per token in
	// declaration order.
	inlineLabelRes = func() []*regexp.Regexp {
		res := make([]*regexp.Regexp, 0, len(sectionTokens))
		for _, tok := range sectionTokens {
			res = append(res, regexp.MustCompile(`(?i)^`+regexp.QuoteMeta(tok)+`\s*:\s*`))
		}
		return res
	}()

	// The body starts at the first FRAMING marker; models prepend varying
	// amounts of introduction before it. A marker already converted to
	// Unicode bold counts too, so the transform stays stable when fed its
	// own output.
	framingRes = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^#{1,6}\s*FRAMING`),
		regexp.MustCompile(`(?m)^FRAMING`),
		regexp.MustCompile(`(?m)^` + ToBold("FRAMING")),
	}
)

// extractBody narrows the input to the analysis proper, dropping any preamble
// before the first recognized FRAMING marker. When no marker is present the
// whole input is the body.
func extractBody(text string) string {
	for _, re := range framingRes {
		if loc := re.FindStringIndex(text); loc != nil {
			return text[loc[0]:]
		}
	}
	return text
}

// transformBody runs the line-oriented rewrite pass. The per-line order
// matters: links must be collected before bold/italic mapping so footnote
// markers land next to still-plain text, and code spans are unwrapped before
// styling so their content is eligible for it.
func transformBody(text string, c *collector) []string {
	lines := strings.Split(extractBody(text), "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		if sectionLineRe.MatchString(strings.TrimSpace(line)) || headingRe.MatchString(line) {
			if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) != "" {
				out = append(out, "")
			}
			continue
		}

		labelStripped := false
		for _, re := range inlineLabelRes {
			if re.MatchString(line) {
				line = re.ReplaceAllString(line, "")
				labelStripped = true
			}
		}
		if labelStripped && len(out) > 0 && strings.TrimSpace(out[len(out)-1]) != "" {
			out = append(out, "")
		}

		line = c.replaceMarkdownLinks(line)
		line = c.replaceBareURLs(line)
		line = codeSpanRe.ReplaceAllString(line, "$1")
		line = boldRe.ReplaceAllStringFunc(line, func(m string) string {
			return ToBold(m[2 : len(m)-2])
		})
		line = applyItalicStars(line)
		line = italicUnderscoreRe.ReplaceAllStringFunc(line, func(m string) string {
			return ToItalic(m[1 : len(m)-1])
		})
		line = bulletRe.ReplaceAllString(line, "$1• ")

		out = append(out, line)
	}
	return out
}

// applyItalicStars converts *span* to italic while leaving spans that touch
// another '*' alone; those are the remains of unclosed bold markers and
// should pass through as literal text. RE2 has no lookaround, so the
// adjacency check walks the match indices instead.
func applyItalicStars(line string) string {
	ms := italicStarRe.FindAllStringSubmatchIndex(line, -1)
	if ms == nil {
		return line
	}
	var sb strings.Builder
	pos := 0
	for _, m := range ms {
		start, end := m[0], m[1]
		if (start > 0 && line[start-1] == '*') || (end < len(line) && line[end] == '*') {
			continue
		}
		sb.WriteString(line[pos:start])
		sb.WriteString(ToItalic(line[m[2]:m[3]]))
		pos = end
	}
	sb.WriteString(line[pos:])
	return sb.String()
}
