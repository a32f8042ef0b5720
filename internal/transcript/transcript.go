// Package transcript parses manually supplied transcript documents: own
// transcriptions, podcast notes or corrected subtitles that arrive as a text
// file instead of a YouTube URL.
package transcript

import (
	"bufio"
	"regexp"
	"strings"
)

// Document is a parsed transcript file. Metadata fields stay empty when the
// file does not carry them; the caller fills gaps from flags or defaults.
type Document struct {
	Title  string
	Author string
	URL    string
	Body   string
	// Raw is the original input for traceability if needed downstream.
	Raw string
}

var (
	titleRe  = regexp.MustCompile(`^\s{0,3}#{1,6}\s+(.+?)\s*$`)
	authorRe = regexp.MustCompile(`(?i)^\s*(?:autor|author|kanal|channel|sprecher)\s*[:\-]\s*(.+?)\s*$`)
	urlRe    = regexp.MustCompile(`(?i)^\s*url\s*[:\-]\s*(https?://\S+)\s*$`)
)

// Parse reads a transcript document. The parser is deliberately conservative
// and deterministic: the first heading becomes the title, leading
// "Autor:"/"Kanal:"/"URL:" lines become metadata, and everything else is the
// transcript body. Metadata lines inside the body are left alone so that
// spoken text mentioning a URL is not swallowed.
func Parse(input string) Document {
	doc := Document{Raw: input}

	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var body []string
	inBody := false
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if !inBody {
			if trimmed == "" {
				continue
			}
			if doc.Title == "" {
				if m := titleRe.FindStringSubmatch(trimmed); len(m) == 2 {
					doc.Title = m[1]
					continue
				}
			}
			if m := authorRe.FindStringSubmatch(trimmed); len(m) == 2 && doc.Author == "" {
				doc.Author = m[1]
				continue
			}
			if m := urlRe.FindStringSubmatch(trimmed); len(m) == 2 && doc.URL == "" {
				doc.URL = m[1]
				continue
			}
			inBody = true
		}
		body = append(body, line)
	}

	doc.Body = strings.TrimSpace(strings.Join(body, "\n"))
	return doc
}

// WordCount counts whitespace-separated words in the transcript body.
func (d Document) WordCount() int {
	if strings.TrimSpace(d.Body) == "" {
		return 0
	}
	return len(strings.Fields(d.Body))
}

// ReadingMinutes estimates reading time at 200 words per minute, never less
// than one minute for a non-empty body.
func (d Document) ReadingMinutes() int {
	words := d.WordCount()
	if words == 0 {
		return 0
	}
	minutes := words / 200
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Valid reports whether the document carries the two required pieces of a
// manual transcript: a title and a non-empty body.
func (d Document) Valid() bool {
	return d.Title != "" && d.Body != ""
}
