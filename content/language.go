// Package content inspects post bodies: language guessing and spam heuristics
package content

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// maxLanguageLength is the longest language tag stored with a post
const maxLanguageLength = 5

// Detector guesses the language of post bodies among a configured set
type Detector struct {
	detector lingua.LanguageDetector
	isoCodes map[lingua.Language]string
}

// NewDetector builds a detector for the given ISO 639-1 codes. Unknown codes are
// skipped; with fewer than two known codes every language is considered.
func NewDetector(codes []string, minimumRelativeDistance float64) *Detector {
	isoCodes := supportedLanguages()

	languages := lo.FilterMap(codes, func(code string, _ int) (lingua.Language, bool) {
		return isoToLingua(strings.ToLower(code), isoCodes)
	})

	var builder lingua.LanguageDetectorBuilder
	if len(languages) < 2 {
		log.WithField("languages", codes).Warn("Fewer than two known languages configured, detecting all languages")
		builder = lingua.NewLanguageDetectorBuilder().FromAllLanguages()
	} else {
		builder = lingua.NewLanguageDetectorBuilder().FromLanguages(languages...)
	}

	return &Detector{
		detector: builder.WithMinimumRelativeDistance(minimumRelativeDistance).Build(),
		isoCodes: isoCodes,
	}
}

// Guess returns the ISO 639-1 code of text, or "" when the language is unclear
func (d *Detector) Guess(text string) string {
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return storableLanguage(d.isoCodes[lang])
}

// storableLanguage drops unknown or over-long language guesses
func storableLanguage(code string) string {
	if len(code) > maxLanguageLength || strings.EqualFold(code, "unknown") {
		return ""
	}
	return code
}

// supportedLanguages maps every lingua language to its lower-case ISO 639-1 code
func supportedLanguages() map[lingua.Language]string {
	languages := make(map[lingua.Language]string)
	for _, lang := range lingua.AllLanguages() {
		languages[lang] = strings.ToLower(lang.IsoCode639_1().String())
	}
	return languages
}

func isoToLingua(code string, languages map[lingua.Language]string) (lingua.Language, bool) {
	lang, ok := lo.FindKey(languages, code)
	if !ok {
		return lingua.Unknown, false
	}
	return lang, true
}
