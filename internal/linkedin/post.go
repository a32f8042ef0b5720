package linkedin

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Options carries the optional metadata for one Format call.
type Options struct {
	Title        string
	Channel      string
	ModelName    string
	ProviderName string
	// Citations pre-seeds the source list with API-supplied URLs; see
	// newCollector.
	Citations []string
}

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// Format converts a Markdown-ish analysis into a LinkedIn-ready plain-text
// post with Unicode styling, footnote markers, and a domain-grouped source
// summary. It returns the post body and a separate detailed source listing
// with full URLs.
//
// The whole pipeline is a pure string transformation: malformed Markdown
// simply fails to match and passes through as literal text.
func Format(text string, opts Options) (post string, detailedSources string) {
	c := newCollector(opts.Citations)

	post = strings.Join(transformBody(text, c), "\n")
	post = blankRunRe.ReplaceAllString(post, "\n\n")
	post = strings.TrimSpace(post)

	if opts.Title != "" && opts.Channel != "" {
		post = postHeader(opts) + post
	}

	// Models often write "domainname [N]" even though the marker already
	// points at that domain; drop the redundant prose mention.
	for _, e := range c.entries {
		if e.Domain == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(e.Domain) + `\.?\s*(\[\d+\])`)
		post = re.ReplaceAllString(post, "$1")
	}

	if len(c.entries) > 0 {
		post += "\n\nQuellen: " + domainSummary(c.entries)
		detailedSources = detailList(c.entries)
	}
	return post, detailedSources
}

// postHeader builds the bold title/channel block placed above the body.
func postHeader(opts Options) string {
	var sb strings.Builder
	sb.WriteString(ToBold(opts.Title))
	sb.WriteString("\n")
	sb.WriteString(opts.Channel)
	sb.WriteString(", YT\n\n")
	sb.WriteString(ToBold("SOMAS-Analyse"))
	sb.WriteString("\n")
	if opts.ModelName != "" && opts.ProviderName != "" {
		fmt.Fprintf(&sb, "via %s, %s\n", opts.ModelName, opts.ProviderName)
	}
	sb.WriteString("\n")
	return sb.String()
}

// domainSummary groups footnote numbers by domain in first-appearance order,
// e.g. "1,6: timesofisrael | 2: cnn".
func domainSummary(entries []SourceEntry) string {
	order := make([]string, 0, len(entries))
	numbers := make(map[string][]int, len(entries))
	for _, e := range entries {
		if _, seen := numbers[e.Domain]; !seen {
			order = append(order, e.Domain)
		}
		numbers[e.Domain] = append(numbers[e.Domain], e.Number)
	}

	parts := make([]string, 0, len(order))
	for _, domain := range order {
		nums := make([]string, 0, len(numbers[domain]))
		for _, n := range numbers[domain] {
			nums = append(nums, strconv.Itoa(n))
		}
		parts = append(parts, strings.Join(nums, ",")+": "+domain)
	}
	return strings.Join(parts, " | ")
}

// detailList renders the numbered full-URL listing kept separate from the
// post body.
func detailList(entries []SourceEntry) string {
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, "Quellenangaben im Detail:")
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("[%d] %s - %s", e.Number, e.DisplayName, e.URL))
	}
	return strings.Join(lines, "\n")
}
