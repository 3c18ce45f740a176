package utils

import (
	"strings"
	"unicode"
)

// maxSlugBase bounds the name part so that base + "-" + suffix stays short.
const maxSlugBase = 48

// Slugify lowercases s, turns runs of spaces/underscores/hyphens into one hyphen and drops
// anything that is not a-z or 0-9.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingHyphen = true
		}
		if b.Len() >= maxSlugBase {
			break
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > maxSlugBase {
		out = strings.TrimRight(out[:maxSlugBase], "-")
	}
	return out
}

// UniqueSlug appends a random base-36 suffix to Slugify(name). Callers still rely on a unique
// constraint and retry on collision.
func UniqueSlug(name string, suffixLen int) (string, error) {
	suffix, err := RandomCode(suffixLen)
	if err != nil {
		return "", err
	}
	suffix = strings.ToLower(suffix)
	base := Slugify(name)
	if base == "" {
		return suffix, nil
	}
	return base + "-" + suffix, nil
}
