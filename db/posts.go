package db

import (
	"context"
	"fmt"
	"strings"

	"microblog/models"
	"microblog/query"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

var postSelect = []string{
	"posts.id",
	"posts.body",
	"posts.timestamp",
	"posts.user_id",
	"users.username",
	"posts.language",
}

// CreatePost inserts post and sets its Id
func (db *DB) CreatePost(ctx context.Context, post *models.Post) error {
	log.WithFields(log.Fields{
		"author":   post.AuthorId,
		"language": post.Language,
	}).Info("Creating post")

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("posts").
		Cols("body", "timestamp", "user_id", "language").
		Values(post.Body, micros(post.Timestamp), post.AuthorId, post.Language)

	sql, args := ib.Build()
	res, err := db.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("inserted post id: %w", err)
	}
	post.Id = id

	return nil
}

// ListPosts runs spec against posts joined with their authors
func (db *DB) ListPosts(ctx context.Context, spec query.Spec) ([]models.Post, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(postSelect...).From("posts").Join("users", "users.id = posts.user_id")

	if err := applySpec(sb, postColumns, spec); err != nil {
		return nil, err
	}

	sql, args := sb.Build()
	log.WithFields(log.Fields{
		"sql":  sql,
		"args": args,
	}).Debug("Generated SQL query")

	return db.queryPosts(ctx, sql, args)
}

// SearchPosts matches text against the full-text index and returns one page of
// matching posts, newest first, together with the total number of matches
func (db *DB) SearchPosts(ctx context.Context, text string, page, pageSize int) ([]models.Post, int, error) {
	match := matchQuery(text)
	if match == "" {
		return []models.Post{}, 0, nil
	}

	count := sqlbuilder.SQLite.NewSelectBuilder()
	count.Select("COUNT(*)").From("posts_fts").
		Where(fmt.Sprintf("posts_fts MATCH %s", count.Var(match)))
	total, err := db.count(ctx, count)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []models.Post{}, 0, nil
	}

	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(postSelect...).
		From("posts_fts").
		Join("posts", "posts.id = posts_fts.rowid").
		Join("users", "users.id = posts.user_id").
		Where(fmt.Sprintf("posts_fts MATCH %s", sb.Var(match))).
		OrderBy("posts.timestamp DESC", "posts.id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize)

	sql, args := sb.Build()
	posts, err := db.queryPosts(ctx, sql, args)
	if err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

// matchQuery turns free text into an FTS5 expression matching any of its words.
// Every word is quoted so user input never reaches the FTS5 query syntax.
func matchQuery(text string) string {
	terms := lo.FilterMap(strings.Fields(text), func(word string, _ int) (string, bool) {
		word = strings.Trim(word, `"`)
		if word == "" {
			return "", false
		}
		return `"` + strings.ReplaceAll(word, `"`, `""`) + `"`, true
	})

	return strings.Join(lo.Uniq(terms), " OR ")
}

func (db *DB) queryPosts(ctx context.Context, sql string, args []any) ([]models.Post, error) {
	rows, err := db.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var post models.Post
		var timestamp int64
		if err := rows.Scan(&post.Id, &post.Body, &timestamp, &post.AuthorId, &post.AuthorUsername, &post.Language); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		post.Timestamp = fromMicros(timestamp)
		posts = append(posts, post)
	}

	return posts, rows.Err()
}
