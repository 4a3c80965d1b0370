package db

import (
	"context"
	"fmt"

	"microblog/models"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

// Follow makes follower follow followed. Following twice is a no-op; following
// yourself is a conflict.
func (db *DB) Follow(ctx context.Context, followerId, followedId int64) error {
	if followerId == followedId {
		return fmt.Errorf("cannot follow self: %w", models.ErrConflict)
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertIgnoreInto("followers").Cols("follower_id", "followed_id").Values(followerId, followedId)

	sql, args := ib.Build()
	if _, err := db.db.ExecContext(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert follow: %w", err)
	}

	log.WithFields(log.Fields{
		"follower": followerId,
		"followed": followedId,
	}).Info("Follow")

	return nil
}

// Unfollow removes the follow if there is one
func (db *DB) Unfollow(ctx context.Context, followerId, followedId int64) error {
	if followerId == followedId {
		return fmt.Errorf("cannot unfollow self: %w", models.ErrConflict)
	}

	del := sqlbuilder.SQLite.NewDeleteBuilder()
	del.DeleteFrom("followers").Where(
		del.Equal("follower_id", followerId),
		del.Equal("followed_id", followedId),
	)

	sql, args := del.Build()
	if _, err := db.db.ExecContext(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}

	log.WithFields(log.Fields{
		"follower": followerId,
		"followed": followedId,
	}).Info("Unfollow")

	return nil
}

func (db *DB) IsFollowing(ctx context.Context, followerId, followedId int64) (bool, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("COUNT(*)").From("followers").Where(
		sb.Equal("follower_id", followerId),
		sb.Equal("followed_id", followedId),
	)
	n, err := db.count(ctx, sb)
	return n > 0, err
}

// Profile loads username with follower counts as seen by viewerId
func (db *DB) Profile(ctx context.Context, username string, viewerId int64) (*models.Profile, error) {
	user, err := db.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{User: *user}

	followers := sqlbuilder.SQLite.NewSelectBuilder()
	followers.Select("COUNT(*)").From("followers").Where(followers.Equal("followed_id", user.Id))
	if profile.Followers, err = db.count(ctx, followers); err != nil {
		return nil, err
	}

	following := sqlbuilder.SQLite.NewSelectBuilder()
	following.Select("COUNT(*)").From("followers").Where(following.Equal("follower_id", user.Id))
	if profile.Following, err = db.count(ctx, following); err != nil {
		return nil, err
	}

	if viewerId != user.Id {
		if profile.IsFollowing, err = db.IsFollowing(ctx, viewerId, user.Id); err != nil {
			return nil, err
		}
	}

	return profile, nil
}

func (db *DB) count(ctx context.Context, sb *sqlbuilder.SelectBuilder) (int, error) {
	sql, args := sb.Build()

	var n int
	if err := db.db.QueryRowContext(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count query: %w", err)
	}
	return n, nil
}
