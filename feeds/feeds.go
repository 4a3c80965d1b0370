package feeds

import (
	"context"
	"fmt"
	"strings"

	"microblog/models"
	"microblog/query"

	log "github.com/sirupsen/logrus"
)

// Assembler turns a source, a viewer and a page number into a page of items.
// It only reads; marking things read or seen is up to the caller.
type Assembler struct {
	posts    PostLister
	messages MessageLister
	search   Searcher
}

func NewAssembler(posts PostLister, messages MessageLister, search Searcher) *Assembler {
	return &Assembler{
		posts:    posts,
		messages: messages,
		search:   search,
	}
}

// AssemblePage returns the requested page of source as seen by viewer
func (a *Assembler) AssemblePage(ctx context.Context, source Source, viewer *models.User, page, pageSize int) (models.Page[models.Post], error) {
	if err := checkWindow(page, pageSize); err != nil {
		return models.Page[models.Post]{}, err
	}

	log.WithFields(log.Fields{
		"source":   fmt.Sprintf("%T", source),
		"page":     page,
		"pageSize": pageSize,
	}).Debug("Assembling feed page")

	var where []query.Condition

	switch src := source.(type) {
	case SearchQuery:
		return a.searchPage(ctx, src.Text, page, pageSize)
	case FollowedStream:
		if viewer == nil {
			return models.Page[models.Post]{}, models.ErrUnauthorized
		}
		where = append(where, query.Or{
			query.FollowedBy{FollowerId: viewer.Id},
			query.Equal{Field: query.AuthorId, Value: viewer.Id},
		})
	case OwnStream:
		user, err := a.posts.UserByUsername(ctx, src.Username)
		if err != nil {
			return models.Page[models.Post]{}, err
		}
		where = append(where, query.Equal{Field: query.AuthorId, Value: user.Id})
	case GlobalStream:
	default:
		return models.Page[models.Post]{}, fmt.Errorf("unknown feed source %T: %w", source, models.ErrInvalidInput)
	}

	limit, offset := window(page, pageSize)
	posts, err := a.posts.ListPosts(ctx, query.Spec{
		Where:   where,
		OrderBy: query.Newest(),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return models.Page[models.Post]{}, fmt.Errorf("list posts: %w", err)
	}

	return trim(posts, page, pageSize), nil
}

// AssembleMessages returns the requested page of the messages sent to recipient
func (a *Assembler) AssembleMessages(ctx context.Context, recipient *models.User, page, pageSize int) (models.Page[models.Message], error) {
	if err := checkWindow(page, pageSize); err != nil {
		return models.Page[models.Message]{}, err
	}
	if recipient == nil {
		return models.Page[models.Message]{}, models.ErrUnauthorized
	}

	limit, offset := window(page, pageSize)
	messages, err := a.messages.ListMessages(ctx, query.Spec{
		Where:   []query.Condition{query.Equal{Field: query.RecipientId, Value: recipient.Id}},
		OrderBy: query.Newest(),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return models.Page[models.Message]{}, fmt.Errorf("list messages: %w", err)
	}

	return trim(messages, page, pageSize), nil
}

// The search backend has no has-next signal, so navigation comes from the total
func (a *Assembler) searchPage(ctx context.Context, text string, page, pageSize int) (models.Page[models.Post], error) {
	result := models.Page[models.Post]{
		Items:    []models.Post{},
		Page:     page,
		PageSize: pageSize,
		HasPrev:  page > 1,
	}

	if strings.TrimSpace(text) == "" {
		return result, nil
	}

	posts, total, err := a.search.SearchPosts(ctx, text, page, pageSize)
	if err != nil {
		return models.Page[models.Post]{}, fmt.Errorf("search posts: %w", err)
	}

	if len(posts) > pageSize {
		posts = posts[:pageSize]
	}
	if posts != nil {
		result.Items = posts
	}
	result.Total = total
	result.HasNext = total > page*pageSize

	return result, nil
}

func checkWindow(page, pageSize int) error {
	if page < 1 {
		return fmt.Errorf("page %d: %w", page, models.ErrInvalidInput)
	}
	if pageSize < 1 {
		return fmt.Errorf("page size %d: %w", pageSize, models.ErrInvalidInput)
	}
	return nil
}

// window fetches one row past the page so trim can tell whether another page exists
func window(page, pageSize int) (limit int, offset int) {
	return pageSize + 1, (page - 1) * pageSize
}

func trim[T any](items []T, page, pageSize int) models.Page[T] {
	hasNext := len(items) > pageSize
	if hasNext {
		items = items[:pageSize]
	}
	if items == nil {
		items = []T{}
	}

	return models.Page[T]{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		HasNext:  hasNext,
		HasPrev:  page > 1,
	}
}
