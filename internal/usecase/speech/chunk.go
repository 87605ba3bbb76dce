package speech

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxInputChars is the provider limit for one synthesis request
const MaxInputChars = 4096

// SplitText splits text into pieces of at most limit characters, preferring
// sentence boundaries, then word boundaries.
func SplitText(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if limit <= 0 {
		limit = MaxInputChars
	}
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, sentence := range sentences(text) {
		for _, piece := range splitLong(sentence, limit) {
			if current.Len() > 0 && utf8.RuneCountInString(current.String())+1+utf8.RuneCountInString(piece) > limit {
				flush()
			}
			if current.Len() > 0 {
				current.WriteByte(' ')
			}
			current.WriteString(piece)
		}
	}
	flush()
	return chunks
}

// sentences splits after ., ! or ? followed by whitespace
func sentences(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)
	for i, r := range runes {
		if (r == '.' || r == '!' || r == '?') && (i+1 == len(runes) || unicode.IsSpace(runes[i+1])) {
			out = append(out, strings.TrimSpace(string(runes[start:i+1])))
			start = i + 1
		}
	}
	if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
		out = append(out, rest)
	}
	return out
}

func splitLong(sentence string, limit int) []string {
	if utf8.RuneCountInString(sentence) <= limit {
		return []string{sentence}
	}

	var out []string
	var current []rune
	for _, word := range strings.Fields(sentence) {
		w := []rune(word)
		for len(w) > limit {
			if len(current) > 0 {
				out = append(out, string(current))
				current = nil
			}
			out = append(out, string(w[:limit]))
			w = w[limit:]
		}
		if len(current) > 0 && len(current)+1+len(w) > limit {
			out = append(out, string(current))
			current = nil
		}
		if len(current) > 0 {
			current = append(current, ' ')
		}
		current = append(current, w...)
	}
	if len(current) > 0 {
		out = append(out, string(current))
	}
	return out
}
