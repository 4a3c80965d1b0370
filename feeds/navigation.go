package feeds

import (
	"net/url"
	"strconv"
)

// Route is the path and query parameters a feed was requested with
type Route struct {
	Path   string
	Params url.Values
}

// BuildNavigation returns links to the neighbouring pages of route. A link is
// empty when there is no page in that direction.
func BuildNavigation(page int, hasNext, hasPrev bool, route Route) (next string, prev string) {
	if hasNext {
		next = route.withPage(page + 1)
	}
	if hasPrev {
		prev = route.withPage(page - 1)
	}
	return next, prev
}

func (r Route) withPage(page int) string {
	params := url.Values{}
	for key, values := range r.Params {
		params[key] = append([]string(nil), values...)
	}
	params.Set("page", strconv.Itoa(page))

	return r.Path + "?" + params.Encode()
}

// Link converts an empty link to nil for JSON responses
func Link(link string) *string {
	if link == "" {
		return nil
	}
	return &link
}
