package content

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Reasons a post body is rejected
const (
	ReasonRepetitive = "repetitive"
	ReasonSpam       = "spam"
)

var spamPhrases = []string{
	"onlyfans.com",
	"join my vip",
	"check my bio",
	"link in bio",
	"link in profile",
	"follow for follow",
	"f4f",
}

const (
	maxTags   = 5
	maxEmojis = 8
)

// Rejection returns why body should not be posted, or "" when it is fine
func Rejection(body string) string {
	switch {
	case IsRepetitive(body):
		return ReasonRepetitive
	case IsSpam(body):
		return ReasonSpam
	}
	return ""
}

// IsSpam looks for promotional phrases and hashtag, mention or emoji floods
func IsSpam(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range spamPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}

	hashtags := strings.Count(text, "#")
	mentions := strings.Count(text, "@")
	if hashtags > maxTags || mentions > maxTags {
		return true
	}
	if strings.Contains(text, "##") || strings.Contains(text, "@@") {
		return true
	}

	emojis := 0
	for _, r := range text {
		if r >= 0x1F300 {
			emojis++
		}
	}
	if emojis > maxEmojis {
		return true
	}

	if words := len(strings.Fields(text)); words > 0 {
		// mostly tags and mentions
		return float64(hashtags+mentions)/float64(words) > 0.5
	}
	return false
}

// IsRepetitive reports runs of the same symbol or short repeated sequences,
// ignoring case and spaces
func IsRepetitive(text string) bool {
	symbols := graphemes(strings.ReplaceAll(strings.ToLower(text), " ", ""))
	if len(symbols) < 4 {
		return false
	}

	run := 1
	for i := 1; i < len(symbols); i++ {
		if symbols[i] != symbols[i-1] {
			run = 1
			continue
		}
		run++
		if run >= 4 {
			return true
		}
	}

	for size := 2; size <= 8; size++ {
		// longer sequences need fewer repeats to count
		need := 4
		if size >= 4 {
			need = 2
		}
		for start := 0; start+size*need <= len(symbols); start++ {
			if repeats(symbols, start, size) >= need {
				return true
			}
		}
	}

	return false
}

// repeats counts how many times symbols[start:start+size] occurs back to back
func repeats(symbols []string, start, size int) int {
	count := 1
	for next := start + size; next+size <= len(symbols); next += size {
		for k := 0; k < size; k++ {
			if symbols[next+k] != symbols[start+k] {
				return count
			}
		}
		count++
	}
	return count
}

// graphemes splits text into runes with their combining marks, joiners and
// variation selectors attached, so compound emoji compare as one symbol
func graphemes(text string) []string {
	var out []string
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if r == utf8.RuneError {
			continue
		}

		var cluster strings.Builder
		cluster.WriteRune(r)
		for i < len(text) {
			next, nextSize := utf8.DecodeRuneInString(text[i:])
			if next == utf8.RuneError || !(unicode.Is(unicode.Mn, next) || next == '\u200d' || next == '\ufe0f') {
				break
			}
			cluster.WriteRune(next)
			i += nextSize
		}
		out = append(out, cluster.String())
	}
	return out
}
