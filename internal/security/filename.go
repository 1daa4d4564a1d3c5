// Package security holds input hardening helpers for the HTTP surface.
package security

import "strings"

const maxFilenameLen = 96

// SanitizeFilename turns an arbitrary identifier, such as a rig name or
// session note, into a name safe for Content-Disposition headers and the
// local filesystem. Runs of other characters collapse to one underscore.
// Leading and trailing dots and underscores are removed, so the result
// can never be "." or "..". An empty result becomes "unnamed".
func SanitizeFilename(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		if isFilenameRune(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unnamed"
	}
	return out
}

func isFilenameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '-', r == '_':
		return true
	}
	return false
}
