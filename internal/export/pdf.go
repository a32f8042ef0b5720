package export

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

var pdfLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`) // [text](url)

// WritePDF renders the analysis document as a minimal PDF: headings,
// paragraphs and clickable links, no full Markdown layout. The core fonts
// are Latin-1 only, so text runs through the cp1252 translator to keep
// German umlauts intact.
func WritePDF(a Analysis, outPath string) error {
	markdown := MarkdownContent(a)

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	scanner := bufio.NewScanner(strings.NewReader(markdown))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			pdf.Ln(5)
			continue
		}
		if strings.HasPrefix(s, "#") {
			i := 0
			for i < len(s) && s[i] == '#' {
				i++
			}
			text := strings.TrimSpace(s[i:])
			if text == "" {
				continue
			}
			size := 14.0
			if i >= 2 {
				size = 12.0
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.CellFormat(0, 8, tr(text), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 11)
			continue
		}
		matches := pdfLinkRe.FindAllStringSubmatchIndex(s, -1)
		if len(matches) == 0 {
			pdf.MultiCell(0, 5, tr(s), "", "L", false)
			continue
		}
		pos := 0
		for _, m := range matches {
			if m[0] > pos {
				pdf.Write(5, tr(s[pos:m[0]]))
			}
			text := s[m[2]:m[3]]
			url := s[m[4]:m[5]]
			pdf.WriteLinkString(5, tr(text), url)
			pos = m[1]
		}
		if pos < len(s) {
			pdf.Write(5, tr(s[pos:]))
		}
		pdf.Ln(6)
	}

	return pdf.OutputFileAndClose(outPath)
}
