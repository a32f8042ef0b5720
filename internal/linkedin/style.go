package linkedin

import "strings"

// LinkedIn has no Markdown support, but it renders Unicode mathematical
// alphanumeric symbols, so bold and italic spans are mapped onto the
// sans-serif bold/italic planes. Characters without a counterpart there
// (umlauts, punctuation, digits in italic) pass through unchanged, which
// keeps both functions total and rune-count preserving.

const (
	boldUpperBase   = 0x1D5D4 // MATHEMATICAL SANS-SERIF BOLD CAPITAL A
	boldLowerBase   = 0x1D5EE // MATHEMATICAL SANS-SERIF BOLD SMALL A
	boldDigitBase   = 0x1D7EC // MATHEMATICAL SANS-SERIF BOLD DIGIT ZERO
	italicUpperBase = 0x1D608 // MATHEMATICAL SANS-SERIF ITALIC CAPITAL A
	italicLowerBase = 0x1D622 // MATHEMATICAL SANS-SERIF ITALIC SMALL A
)

// ToBold maps ASCII letters and digits onto their sans-serif bold forms.
func ToBold(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) * 4)
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			sb.WriteRune(boldUpperBase + (r - 'A'))
		case r >= 'a' && r <= 'z':
			sb.WriteRune(boldLowerBase + (r - 'a'))
		case r >= '0' && r <= '9':
			sb.WriteRune(boldDigitBase + (r - '0'))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// ToItalic maps ASCII letters onto their sans-serif italic forms. There is
// no italic digit plane, so digits stay as they are.
func ToItalic(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) * 4)
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			sb.WriteRune(italicUpperBase + (r - 'A'))
		case r >= 'a' && r <= 'z':
			sb.WriteRune(italicLowerBase + (r - 'a'))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
