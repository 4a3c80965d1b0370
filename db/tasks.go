package db

import (
	"context"
	"errors"
	"fmt"

	"microblog/models"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
)

var taskColumns = []string{"id", "name", "description", "user_id", "complete", "created_at"}

// CreateTask records a pending task. If the user already has a pending task
// with the same name nothing is written and ErrConflict is returned; the
// partial unique index makes this hold for concurrent callers too.
func (db *DB) CreateTask(ctx context.Context, task *models.Task) error {
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertIgnoreInto("tasks").
		Cols(taskColumns...).
		Values(task.Id, task.Name, task.Description, task.UserId, task.Complete, micros(task.CreatedAt))

	sql, args := ib.Build()
	res, err := db.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("task %s already pending: %w", task.Name, models.ErrConflict)
	}
	return nil
}

// PendingTask returns userId's incomplete task called name
func (db *DB) PendingTask(ctx context.Context, userId int64, name string) (*models.Task, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(taskColumns...).From("tasks").Where(
		sb.Equal("user_id", userId),
		sb.Equal("name", name),
		sb.Equal("complete", false),
	)

	sql, args := sb.Build()
	var task models.Task
	var createdAt int64
	err := db.db.QueryRowContext(ctx, sql, args...).
		Scan(&task.Id, &task.Name, &task.Description, &task.UserId, &task.Complete, &createdAt)
	if errors.Is(err, errNoRows) {
		return nil, fmt.Errorf("pending task %s: %w", name, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	task.CreatedAt = fromMicros(createdAt)

	return &task, nil
}

// PendingTasks lists all of userId's incomplete tasks
func (db *DB) PendingTasks(ctx context.Context, userId int64) ([]models.Task, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(taskColumns...).From("tasks").
		Where(sb.Equal("user_id", userId), sb.Equal("complete", false)).
		OrderBy("created_at ASC")

	sql, args := sb.Build()
	rows, err := db.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var task models.Task
		var createdAt int64
		if err := rows.Scan(&task.Id, &task.Name, &task.Description, &task.UserId, &task.Complete, &createdAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		task.CreatedAt = fromMicros(createdAt)
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// CompleteTask marks task id done
func (db *DB) CompleteTask(ctx context.Context, id string) error {
	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("tasks").Set(ub.Assign("complete", true)).Where(ub.Equal("id", id))

	sql, args := ub.Build()
	res, err := db.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return expectRow(res, "task")
}

// ReleasePendingTasks completes every pending task. Jobs do not survive a
// restart, so tasks left pending by a previous process would block new ones.
func (db *DB) ReleasePendingTasks(ctx context.Context) (int64, error) {
	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("tasks").Set(ub.Assign("complete", true)).Where(ub.Equal("complete", false))

	sql, args := ub.Build()
	res, err := db.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("release tasks: %w", err)
	}
	return res.RowsAffected()
}
