package db

import (
	"context"
	"fmt"
	"time"

	sb "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

// Tidy removes completed tasks created before now minus retention
func Tidy(database string, retention time.Duration) (int64, error) {
	db, err := New(database)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	return db.Tidy(context.Background(), time.Now().Add(-retention))
}

func (db *DB) Tidy(ctx context.Context, before time.Time) (int64, error) {
	deleteTasks := sb.SQLite.NewDeleteBuilder()
	sql, args := deleteTasks.DeleteFrom("tasks").Where(
		deleteTasks.Equal("complete", true),
		deleteTasks.LessThan("created_at", micros(before)),
	).Build()

	log.WithFields(log.Fields{
		"sql":  sql,
		"args": args,
	}).Info("Tidying database")

	res, err := db.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("tidy tasks: %w", err)
	}
	return res.RowsAffected()
}

// TidyEvery runs Tidy on every tick of interval until ctx is done, keeping
// completed tasks created within retention.
func (db *DB) TidyEvery(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := db.Tidy(ctx, time.Now().Add(-retention))
			if err != nil {
				log.WithError(err).Error("Error tidying database")
				continue
			}
			log.WithField("removed", removed).Info("Tidied database")
		}
	}
}
