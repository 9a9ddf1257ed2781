package stringutil

import (
	"strings"
	"unicode"
)

// PascalToSnake turns Go field names into config keys. Acronyms stay
// together and digits end a word: YouTubeAPIKey becomes you_tube_api_key,
// H264Encoder becomes h264_encoder.
func PascalToSnake(s string) string {
	r := []rune(s)

	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, c := range r {
		if unicode.IsUpper(c) && i > 0 {
			prev := r[i-1]
			nextLower := i+1 < len(r) && unicode.IsLower(r[i+1])

			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}

		b.WriteRune(unicode.ToLower(c))
	}

	return b.String()
}

// LooksTrue reads loose boolean text from environment variables.
func LooksTrue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "on", "enabled", "enable", "active", "ok", "okay":
		return true
	default:
		return false
	}
}
