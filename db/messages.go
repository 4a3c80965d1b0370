package db

import (
	"context"
	"fmt"
	"time"

	"microblog/models"
	"microblog/query"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
)

// CreateMessage stores a private message and sets its Id
func (db *DB) CreateMessage(ctx context.Context, msg *models.Message) error {
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("messages").
		Cols("sender_id", "recipient_id", "body", "timestamp").
		Values(msg.SenderId, msg.RecipientId, msg.Body, micros(msg.Timestamp))

	sql, args := ib.Build()
	res, err := db.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("inserted message id: %w", err)
	}
	msg.Id = id

	return nil
}

// ListMessages runs spec against messages joined with both parties' handles
func (db *DB) ListMessages(ctx context.Context, spec query.Spec) ([]models.Message, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(
		"messages.id",
		"messages.sender_id",
		"sender.username",
		"messages.recipient_id",
		"recipient.username",
		"messages.body",
		"messages.timestamp",
	).
		From("messages").
		Join("users AS sender", "sender.id = messages.sender_id").
		Join("users AS recipient", "recipient.id = messages.recipient_id")

	if err := applySpec(sb, messageColumns, spec); err != nil {
		return nil, err
	}

	sql, args := sb.Build()
	rows, err := db.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var msg models.Message
		var timestamp int64
		if err := rows.Scan(
			&msg.Id,
			&msg.SenderId,
			&msg.SenderUsername,
			&msg.RecipientId,
			&msg.RecipientUsername,
			&msg.Body,
			&timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		msg.Timestamp = fromMicros(timestamp)
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// UnreadMessageCount counts messages to userId newer than readAt
func (db *DB) UnreadMessageCount(ctx context.Context, userId int64, readAt time.Time) (int, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("COUNT(*)").From("messages").Where(
		sb.Equal("recipient_id", userId),
		sb.GreaterThan("timestamp", micros(readAt)),
	)
	return db.count(ctx, sb)
}
