package app

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const slugMaxLen = 60

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lowercases, strips diacritics, collapses every run of
// non-[a-z0-9] characters to one hyphen and caps the result at 60 chars.
func Slugify(title string) string {
	s := strings.ToLower(title)
	if t, _, err := transform.String(deaccent, s); err == nil {
		s = t
	}

	var b strings.Builder
	b.Grow(len(s))
	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > slugMaxLen {
		out = strings.Trim(out[:slugMaxLen], "-")
	}
	return out
}

// ExistsFunc reports whether a code is already taken. An error means the
// persistence layer could not answer.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// GenerateCode derives a unique URL-safe code from a title. Collisions
// get an incrementing numeric suffix (-2, -3, …). If the existence check
// itself fails, the loop stops and the last-tried candidate is returned;
// the database unique index on code is the authoritative backstop.
func GenerateCode(ctx context.Context, title string, exists ExistsFunc) string {
	base := Slugify(title)
	if base == "" {
		return fmt.Sprintf("safari-%d", time.Now().UnixMilli())
	}
	candidate := base
	for suffix := 2; ; suffix++ {
		taken, err := exists(ctx, candidate)
		if err != nil || !taken {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, suffix)
	}
}
