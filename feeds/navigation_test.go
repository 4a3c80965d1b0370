package feeds_test

import (
	"net/url"
	"testing"

	"microblog/feeds"

	"github.com/stretchr/testify/assert"
)

func TestBuildNavigation(t *testing.T) {
	route := feeds.Route{Path: "/user/susan"}

	tests := []struct {
		name    string
		page    int
		hasNext bool
		hasPrev bool
		next    string
		prev    string
	}{
		{name: "only page", page: 1},
		{name: "first of many", page: 1, hasNext: true, next: "/user/susan?page=2"},
		{name: "middle", page: 2, hasNext: true, hasPrev: true, next: "/user/susan?page=3", prev: "/user/susan?page=1"},
		{name: "last", page: 3, hasPrev: true, prev: "/user/susan?page=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, prev := feeds.BuildNavigation(tt.page, tt.hasNext, tt.hasPrev, route)
			assert.Equal(t, tt.next, next)
			assert.Equal(t, tt.prev, prev)
		})
	}
}

func TestBuildNavigationKeepsParams(t *testing.T) {
	params := url.Values{"q": {"go lang"}, "page": {"2"}}
	next, prev := feeds.BuildNavigation(2, true, true, feeds.Route{Path: "/search", Params: params})

	assert.Equal(t, "/search?page=3&q=go+lang", next)
	assert.Equal(t, "/search?page=1&q=go+lang", prev)
	// the caller's params are left alone
	assert.Equal(t, "2", params.Get("page"))
}

func TestLink(t *testing.T) {
	assert.Nil(t, feeds.Link(""))
	assert.Equal(t, "/explore?page=2", *feeds.Link("/explore?page=2"))
}
