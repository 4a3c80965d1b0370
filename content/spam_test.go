package content_test

import (
	"testing"

	"microblog/content"

	"github.com/stretchr/testify/assert"
)

func TestIsRepetitive(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "empty string", text: "", expected: false},
		{name: "short text", text: "hi", expected: false},
		{name: "normal text", text: "This is a normal post without repetition", expected: false},
		{name: "repeating characters", text: "hellooooooo", expected: true},
		{name: "repeating word", text: "hello hello hello hello", expected: true},
		{name: "repeating word with case variation", text: "Hello HELLO hello HeLLo", expected: true},
		{name: "repeating emoji", text: "🎉🎉🎉🎉🎉", expected: true},
		{name: "repeating two symbols", text: "sksksksksksksksk what is this", expected: true},
		{name: "repeating compound emoji", text: "👨‍👩‍👧👨‍👩‍👧👨‍👩‍👧👨‍👩‍👧 family time", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, content.IsRepetitive(tt.text))
		})
	}
}

func TestIsSpam(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "plain post", text: "Went for a walk by the river today", expected: false},
		{name: "a couple of tags", text: "Lovely sunset #photo #nature", expected: false},
		{name: "promotional phrase", text: "New pics, link in bio!", expected: true},
		{name: "hashtag flood", text: "#a #b #c #d #e #f great day", expected: true},
		{name: "doubled tags", text: "look ##here", expected: true},
		{name: "mostly mentions", text: "@ann @bob hi", expected: true},
		{name: "emoji flood", text: "party 🎉🎈🎊🎁🎂🍰🍾🥂🎆", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, content.IsSpam(tt.text))
		})
	}
}

func TestRejection(t *testing.T) {
	assert.Empty(t, content.Rejection("My first post on here"))
	assert.Equal(t, content.ReasonRepetitive, content.Rejection("nooooooo"))
	assert.Equal(t, content.ReasonSpam, content.Rejection("follow for follow please"))
}
