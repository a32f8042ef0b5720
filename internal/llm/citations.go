package llm

import "regexp"

var markerRe = regexp.MustCompile(`\[(\d+)\]`)

// UnresolvedMarkers returns the footnote numbers referenced in content that
// fall outside 1..len(citations). A non-empty result means the model cited
// sources the API did not report; the caller decides whether to warn.
func UnresolvedMarkers(content string, citations []string) []int {
	if len(citations) == 0 {
		return nil
	}
	seen := map[int]bool{}
	var out []int
	for _, m := range markerRe.FindAllStringSubmatch(content, -1) {
		n := 0
		for _, c := range m[1] {
			n = n*10 + int(c-'0')
		}
		if n >= 1 && n <= len(citations) {
			continue
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
