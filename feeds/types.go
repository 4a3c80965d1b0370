// Package feeds assembles paginated feeds of posts and messages
package feeds

import (
	"context"

	"microblog/models"
	"microblog/query"
)

// PostLister is the datastore side of post feeds
type PostLister interface {
	ListPosts(ctx context.Context, spec query.Spec) ([]models.Post, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
}

// MessageLister is the datastore side of the message inbox
type MessageLister interface {
	ListMessages(ctx context.Context, spec query.Spec) ([]models.Message, error)
}

// Searcher matches free text and reports the total number of matches
type Searcher interface {
	SearchPosts(ctx context.Context, text string, page, pageSize int) ([]models.Post, int, error)
}

// Source selects the candidate posts of a feed
type Source interface {
	source()
}

// FollowedStream is the posts of everyone the viewer follows, plus the viewer's own
type FollowedStream struct{}

// OwnStream is the posts of a single user
type OwnStream struct {
	Username string
}

// GlobalStream is every post on the site
type GlobalStream struct{}

// SearchQuery is the posts matching Text
type SearchQuery struct {
	Text string
}

func (FollowedStream) source() {}
func (OwnStream) source()      {}
func (GlobalStream) source()   {}
func (SearchQuery) source()    {}
