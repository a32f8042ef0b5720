package linkedin

import (
	"regexp"
	"strings"
)

var (
	protocolRe = regexp.MustCompile(`(?i)^https?://`)
	wwwRe      = regexp.MustCompile(`(?i)^www\.`)
	// Compound country TLDs such as .co.uk or .com.au are stripped as a
	// whole so the subdomain part of the host survives grouping.
	compoundTLDRe = regexp.MustCompile(`(?i)\.(co|com|org|net|gov)\.[a-z]{2}$`)
	simpleTLDRe   = regexp.MustCompile(`(?i)\.[a-z]{2,}$`)
)

// StripProtocol removes a leading http:// or https:// and a leading www.
// from a URL. The function is idempotent.
func StripProtocol(url string) string {
	url = protocolRe.ReplaceAllString(url, "")
	return wwwRe.ReplaceAllString(url, "")
}

// ExtractDomain reduces a URL to a bare domain label used for grouping
// footnotes and for stripping redundant domain mentions from prose, e.g.
// "https://www.timesofisrael.com/article" becomes "timesofisrael" and
// "http://news.bbc.co.uk/story" becomes "news.bbc".
//
// This is a deliberate approximation without a public suffix list: unusual
// multi-label TLDs can be mis-stripped. Good enough for grouping; a host
// with no TLD-like suffix is returned unchanged.
func ExtractDomain(url string) string {
	host := StripProtocol(url)
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	if stripped := compoundTLDRe.ReplaceAllString(host, ""); stripped != host {
		return stripped
	}
	return simpleTLDRe.ReplaceAllString(host, "")
}
