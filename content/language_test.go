package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuess(t *testing.T) {
	detector := NewDetector([]string{"en", "es", "de"}, 0.1)

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "english",
			text:     "The weather has been lovely this week and I went for a long walk along the river",
			expected: "en",
		},
		{
			name:     "spanish",
			text:     "Hoy fuimos al mercado con mis padres y compramos muchas frutas para la semana",
			expected: "es",
		},
		{
			name:     "german",
			text:     "Heute waren wir mit unseren Freunden im Park und haben den ganzen Nachmittag gespielt",
			expected: "de",
		},
		{name: "no letters", text: "12345 !!!", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, detector.Guess(tt.text))
		})
	}
}

func TestGuessFallsBackToAllLanguages(t *testing.T) {
	detector := NewDetector([]string{"en", "xx"}, 0)

	assert.Equal(t, "en", detector.Guess("The weather has been lovely this week and I went for a long walk along the river"))
	assert.Equal(t, "fr", detector.Guess("Nous sommes allés au marché avec mes parents et nous avons acheté beaucoup de fruits"))
}

func TestStorableLanguage(t *testing.T) {
	assert.Equal(t, "en", storableLanguage("en"))
	assert.Equal(t, "pt-br", storableLanguage("pt-br"))
	assert.Empty(t, storableLanguage("unknown"))
	assert.Empty(t, storableLanguage("english"))
	assert.Empty(t, storableLanguage(""))
}

func TestIsoToLingua(t *testing.T) {
	languages := supportedLanguages()

	_, ok := isoToLingua("es", languages)
	assert.True(t, ok)

	_, ok = isoToLingua("xx", languages)
	assert.False(t, ok)
}
