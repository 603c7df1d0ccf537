package vault

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxNameBytes bounds a sanitized name in bytes. It leaves room under the
// common 255-byte file name limit for a "_<id8>" suffix and a ".txt"
// extension.
const MaxNameBytes = 240

var (
	unsafeChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// SanitizeName maps a title to a filesystem-safe name. The mapping is one
// way. Leading dots are replaced so the result is never hidden, and an
// empty result falls back to fallback.
func SanitizeName(title, fallback string) string {
	name := unsafeChars.ReplaceAllString(title, "_")
	name = whitespace.ReplaceAllString(name, "_")
	name = truncateBytes(name, MaxNameBytes)
	if trimmed := strings.TrimLeft(name, "."); trimmed != name {
		name = strings.Repeat("_", len(name)-len(trimmed)) + trimmed
	}
	if name == "" {
		return fallback
	}
	return name
}

// truncateBytes cuts s to at most max bytes on a rune boundary.
func truncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
