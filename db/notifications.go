package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"microblog/models"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
)

// timestampStep separates consecutive notifications of one user
const timestampStep = 1e-6

// AddNotification replaces userId's notification called name with a new one
// carrying payload. Its timestamp is the current time, or just after the user's
// latest notification when the clock has not moved past it.
func (db *DB) AddNotification(ctx context.Context, userId int64, name string, payload any) (*models.Notification, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode notification payload: %w", err)
	}

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// read before the delete so a replaced notification still counts
	latest := sqlbuilder.SQLite.NewSelectBuilder()
	latest.Select("COALESCE(MAX(timestamp), 0)").From("notifications").Where(latest.Equal("user_id", userId))
	sql, args := latest.Build()
	var last float64
	if err := tx.QueryRowContext(ctx, sql, args...).Scan(&last); err != nil {
		return nil, fmt.Errorf("latest notification: %w", err)
	}

	n := &models.Notification{
		Name:      name,
		UserId:    userId,
		Timestamp: max(epochSeconds(time.Now()), last+timestampStep),
		Payload:   data,
	}

	del := sqlbuilder.SQLite.NewDeleteBuilder()
	del.DeleteFrom("notifications").Where(del.Equal("user_id", userId), del.Equal("name", name))
	sql, args = del.Build()
	if _, err := tx.ExecContext(ctx, sql, args...); err != nil {
		return nil, fmt.Errorf("delete notification: %w", err)
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("notifications").
		Cols("name", "user_id", "timestamp", "payload_json").
		Values(n.Name, n.UserId, n.Timestamp, string(n.Payload))
	sql, args = ib.Build()
	res, err := tx.ExecContext(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	if n.Id, err = res.LastInsertId(); err != nil {
		return nil, err
	}

	return n, tx.Commit()
}

// NotificationsSince returns userId's notifications newer than since, oldest first
func (db *DB) NotificationsSince(ctx context.Context, userId int64, since float64) ([]models.Notification, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "name", "user_id", "timestamp", "payload_json").
		From("notifications").
		Where(sb.Equal("user_id", userId), sb.GreaterThan("timestamp", since)).
		OrderBy("timestamp ASC", "id ASC")

	sql, args := sb.Build()
	rows, err := db.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var payload string
		if err := rows.Scan(&n.Id, &n.Name, &n.UserId, &n.Timestamp, &payload); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		n.Payload = json.RawMessage(payload)
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}
