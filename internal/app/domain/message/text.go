package message

import "strings"

var zeroWidthRunes = map[rune]struct{}{
	'\u200B': {}, // ZERO WIDTH SPACE
	'\u200C': {}, // ZERO WIDTH NON-JOINER
	'\u200D': {}, // ZERO WIDTH JOINER
	'\u2060': {}, // WORD JOINER
	'\uFEFF': {}, // ZERO WIDTH NO-BREAK SPACE (BOM)
	'\u180E': {}, // MONGOLIAN VOWEL SEPARATOR
}

// isInvisibleRune matches the characters chat clients append to defeat duplicate-message
// filtering (U+E0000 and friends) plus bidi and format controls.
func isInvisibleRune(r rune) bool {
	if _, bad := zeroWidthRunes[r]; bad {
		return true
	}

	switch {
	// Plane 14 tags, incl. U+E0000
	case r >= 0xE0000 && r <= 0xE007F:
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0xE0100 && r <= 0xE01EF:
		return true
	case r <= 0x001F, r == 0x007F, r >= 0x0080 && r <= 0x009F:
		return true
	case r >= 0x200E && r <= 0x200F:
		return true
	case r >= 0x202A && r <= 0x202E:
		return true
	case r >= 0x2061 && r <= 0x206F:
		return true
	default:
		return false
	}
}

// StripInvisible removes invisible runes and trims the spaces they leave behind at the ends.
func StripInvisible(s string) string {
	if !strings.ContainsFunc(s, isInvisibleRune) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isInvisibleRune(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
