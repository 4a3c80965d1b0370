package feeds_test

import (
	"context"
	"net/url"
	"sort"
	"testing"
	"time"

	"microblog/feeds"
	"microblog/models"
	"microblog/query"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore evaluates query specs over in-memory slices
type memoryStore struct {
	users    []models.User
	posts    []models.Post
	messages []models.Message
	follows  map[int64][]int64
	listed   []query.Spec
}

func (m *memoryStore) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := lo.Find(m.users, func(u models.User) bool { return u.Username == username })
	if !ok {
		return nil, models.ErrNotFound
	}
	return &user, nil
}

func (m *memoryStore) ListPosts(ctx context.Context, spec query.Spec) ([]models.Post, error) {
	m.listed = append(m.listed, spec)
	rows := lo.Filter(m.posts, func(p models.Post, _ int) bool {
		return lo.EveryBy(spec.Where, func(c query.Condition) bool { return m.match(c, p.Id, p.AuthorId, 0) })
	})
	sortRows(rows, spec.OrderBy, func(p models.Post) (time.Time, int64) { return p.Timestamp, p.Id })
	return window(rows, spec), nil
}

func (m *memoryStore) ListMessages(ctx context.Context, spec query.Spec) ([]models.Message, error) {
	rows := lo.Filter(m.messages, func(msg models.Message, _ int) bool {
		return lo.EveryBy(spec.Where, func(c query.Condition) bool { return m.match(c, msg.Id, msg.SenderId, msg.RecipientId) })
	})
	sortRows(rows, spec.OrderBy, func(msg models.Message) (time.Time, int64) { return msg.Timestamp, msg.Id })
	return window(rows, spec), nil
}

func (m *memoryStore) match(c query.Condition, id, author, recipient int64) bool {
	switch cond := c.(type) {
	case query.Equal:
		switch cond.Field {
		case query.Id:
			return id == cond.Value.(int64)
		case query.AuthorId:
			return author == cond.Value.(int64)
		case query.RecipientId:
			return recipient == cond.Value.(int64)
		}
	case query.FollowedBy:
		return lo.Contains(m.follows[cond.FollowerId], author)
	case query.Or:
		return lo.SomeBy(cond, func(sub query.Condition) bool { return m.match(sub, id, author, recipient) })
	}
	return false
}

func sortRows[T any](rows []T, order []query.Order, key func(T) (time.Time, int64)) {
	sort.SliceStable(rows, func(i, j int) bool {
		ti, ii := key(rows[i])
		tj, ij := key(rows[j])
		for _, o := range order {
			var less, equal bool
			switch o.Field {
			case query.Timestamp:
				less, equal = ti.Before(tj), ti.Equal(tj)
			case query.Id:
				less, equal = ii < ij, ii == ij
			}
			if equal {
				continue
			}
			if o.Desc {
				return !less
			}
			return less
		}
		return false
	})
}

func window[T any](rows []T, spec query.Spec) []T {
	if spec.Offset >= len(rows) {
		return nil
	}
	rows = rows[spec.Offset:]
	if spec.Limit > 0 && len(rows) > spec.Limit {
		rows = rows[:spec.Limit]
	}
	return rows
}

type fixedSearch struct {
	posts []models.Post
	total int
	calls int
}

func (s *fixedSearch) SearchPosts(ctx context.Context, text string, page, pageSize int) ([]models.Post, int, error) {
	s.calls++
	return s.posts, s.total, nil
}

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newStore(authors ...int64) *memoryStore {
	store := &memoryStore{
		users: []models.User{
			{Id: 1, Username: "susan"},
			{Id: 2, Username: "john"},
			{Id: 3, Username: "mary"},
		},
		follows: map[int64][]int64{},
	}
	for i, author := range authors {
		store.posts = append(store.posts, models.Post{
			Id:        int64(i + 1),
			Body:      "post",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			AuthorId:  author,
		})
	}
	return store
}

func ids(page models.Page[models.Post]) []int64 {
	return lo.Map(page.Items, func(p models.Post, _ int) int64 { return p.Id })
}

func TestAssemblePageGlobalStream(t *testing.T) {
	store := newStore(1, 1, 2, 2, 3, 3, 1)
	assembler := feeds.NewAssembler(store, store, &fixedSearch{})
	viewer := &store.users[0]

	tests := []struct {
		name    string
		page    int
		ids     []int64
		hasNext bool
		hasPrev bool
	}{
		{name: "first page", page: 1, ids: []int64{7, 6, 5}, hasNext: true, hasPrev: false},
		{name: "middle page", page: 2, ids: []int64{4, 3, 2}, hasNext: true, hasPrev: true},
		{name: "last page", page: 3, ids: []int64{1}, hasNext: false, hasPrev: true},
		{name: "beyond last page", page: 5, ids: []int64{}, hasNext: false, hasPrev: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := assembler.AssemblePage(context.Background(), feeds.GlobalStream{}, viewer, tt.page, 3)
			require.NoError(t, err)
			assert.Equal(t, tt.ids, ids(page))
			assert.Equal(t, tt.hasNext, page.HasNext)
			assert.Equal(t, tt.hasPrev, page.HasPrev)
			assert.LessOrEqual(t, len(page.Items), 3)
		})
	}
}

func TestAssemblePageTiesBreakOnId(t *testing.T) {
	store := newStore(1, 1, 1, 1)
	for i := range store.posts {
		store.posts[i].Timestamp = base
	}
	assembler := feeds.NewAssembler(store, store, &fixedSearch{})

	first, err := assembler.AssemblePage(context.Background(), feeds.GlobalStream{}, nil, 1, 2)
	require.NoError(t, err)
	second, err := assembler.AssemblePage(context.Background(), feeds.GlobalStream{}, nil, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, []int64{4, 3}, ids(first))
	assert.Equal(t, []int64{2, 1}, ids(second))
}

func TestAssemblePageEmpty(t *testing.T) {
	store := newStore()
	assembler := feeds.NewAssembler(store, store, &fixedSearch{})

	page, err := assembler.AssemblePage(context.Background(), feeds.GlobalStream{}, &store.users[0], 1, 3)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.False(t, page.HasNext)
	assert.False(t, page.HasPrev)
}

func TestAssemblePageFollowedStream(t *testing.T) {
	// susan=1, john=2, mary=3
	store := newStore(1, 2, 3, 2, 3)

	t.Run("includes own posts with no follows", func(t *testing.T) {
		assembler := feeds.NewAssembler(store, store, &fixedSearch{})
		page, err := assembler.AssemblePage(context.Background(), feeds.FollowedStream{}, &store.users[0], 1, 10)
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, ids(page))
	})

	t.Run("includes followed authors", func(t *testing.T) {
		store.follows[1] = []int64{2}
		assembler := feeds.NewAssembler(store, store, &fixedSearch{})
		page, err := assembler.AssemblePage(context.Background(), feeds.FollowedStream{}, &store.users[0], 1, 10)
		require.NoError(t, err)
		assert.Equal(t, []int64{4, 2, 1}, ids(page))
	})

	t.Run("requires a viewer", func(t *testing.T) {
		assembler := feeds.NewAssembler(store, store, &fixedSearch{})
		_, err := assembler.AssemblePage(context.Background(), feeds.FollowedStream{}, nil, 1, 10)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})
}

func TestAssemblePageOwnStream(t *testing.T) {
	store := newStore(1, 2, 2, 3)
	assembler := feeds.NewAssembler(store, store, &fixedSearch{})

	page, err := assembler.AssemblePage(context.Background(), feeds.OwnStream{Username: "john"}, &store.users[0], 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2}, ids(page))

	_, err = assembler.AssemblePage(context.Background(), feeds.OwnStream{Username: "nobody"}, &store.users[0], 1, 10)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAssemblePageInvalidWindow(t *testing.T) {
	store := newStore(1)
	assembler := feeds.NewAssembler(store, store, &fixedSearch{})

	_, err := assembler.AssemblePage(context.Background(), feeds.GlobalStream{}, nil, 0, 3)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = assembler.AssemblePage(context.Background(), feeds.GlobalStream{}, nil, 1, 0)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	assert.Empty(t, store.listed)
}

func TestAssemblePageSearch(t *testing.T) {
	store := newStore()
	search := &fixedSearch{
		posts: []models.Post{{Id: 4}, {Id: 5}},
		total: 5,
	}
	assembler := feeds.NewAssembler(store, store, search)

	page, err := assembler.AssemblePage(context.Background(), feeds.SearchQuery{Text: "hello"}, nil, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, ids(page))
	assert.Equal(t, 5, page.Total)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrev)

	page, err = assembler.AssemblePage(context.Background(), feeds.SearchQuery{Text: "hello"}, nil, 1, 3)
	require.NoError(t, err)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrev)

	next, prev := feeds.BuildNavigation(2, false, true, feeds.Route{
		Path:   "/search",
		Params: url.Values{"q": {"hello"}},
	})
	assert.Empty(t, next)
	assert.Equal(t, "/search?page=1&q=hello", prev)
}

func TestAssemblePageBlankSearch(t *testing.T) {
	store := newStore()
	search := &fixedSearch{}
	assembler := feeds.NewAssembler(store, store, search)

	page, err := assembler.AssemblePage(context.Background(), feeds.SearchQuery{Text: "   "}, nil, 1, 3)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, search.calls)
}

func TestAssembleMessages(t *testing.T) {
	store := newStore()
	for i := 1; i <= 4; i++ {
		recipient := int64(1)
		if i == 2 {
			recipient = 3
		}
		store.messages = append(store.messages, models.Message{
			Id:          int64(i),
			SenderId:    2,
			RecipientId: recipient,
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
		})
	}
	assembler := feeds.NewAssembler(store, store, &fixedSearch{})

	page, err := assembler.AssembleMessages(context.Background(), &store.users[0], 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 3}, lo.Map(page.Items, func(m models.Message, _ int) int64 { return m.Id }))
	assert.True(t, page.HasNext)

	page, err = assembler.AssembleMessages(context.Background(), &store.users[0], 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrev)
}
