package linkedin

import (
	"fmt"
	"regexp"
	"strings"
)

// SourceEntry records one collected link or URL with its footnote number.
// Numbers are unique and strictly increasing within one Format call; several
// entries may share a domain, which the assembler groups at the end.
type SourceEntry struct {
	Number      int
	DisplayName string
	URL         string
	Domain      string
}

var (
	markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	bareURLRe      = regexp.MustCompile(`https?://[^\s,)]+`)
)

// collector accumulates sources during a single transform pass. The counter
// and entry list live here explicitly rather than in closure state so the
// numbering order is obvious from the call sites.
type collector struct {
	counter int
	entries []SourceEntry
}

// newCollector pre-seeds entries from an API-supplied citation list, e.g.
// Perplexity returns source URLs separately while the answer text already
// carries [1][2] markers. In-text collection then continues after the last
// pre-seeded number.
func newCollector(citations []string) *collector {
	c := &collector{}
	for i, url := range citations {
		domain := ExtractDomain(url)
		c.entries = append(c.entries, SourceEntry{
			Number:      i + 1,
			DisplayName: domain,
			URL:         url,
			Domain:      domain,
		})
		c.counter = i + 1
	}
	return c
}

// replaceMarkdownLinks rewrites [name](url) spans to "name [N]" and records
// each link in document scan order.
func (c *collector) replaceMarkdownLinks(line string) string {
	return markdownLinkRe.ReplaceAllStringFunc(line, func(m string) string {
		groups := markdownLinkRe.FindStringSubmatch(m)
		name, url := groups[1], groups[2]
		c.counter++
		c.entries = append(c.entries, SourceEntry{
			Number:      c.counter,
			DisplayName: name,
			URL:         url,
			Domain:      ExtractDomain(url),
		})
		return fmt.Sprintf("%s [%d]", name, c.counter)
	})
}

// replaceBareURLs rewrites remaining http(s) runs to "[N]". Trailing sentence
// punctuation belongs to the prose, not the URL, and is trimmed off the match
// before the entry is recorded.
func (c *collector) replaceBareURLs(line string) string {
	return bareURLRe.ReplaceAllStringFunc(line, func(m string) string {
		url := strings.TrimRight(m, ".,!?;:")
		domain := ExtractDomain(url)
		c.counter++
		c.entries = append(c.entries, SourceEntry{
			Number:      c.counter,
			DisplayName: domain,
			URL:         url,
			Domain:      domain,
		})
		return fmt.Sprintf("[%d]", c.counter)
	})
}
