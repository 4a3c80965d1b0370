package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"microblog/models"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB handles all database operations with a shared connection pool
type DB struct {
	db *sql.DB
}

// New opens the SQLite database at path. Run Migrate first.
func New(path string) (*DB, error) {
	db, err := connection(path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return &DB{db: db}, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

var userColumns = []string{
	"users.id",
	"users.username",
	"users.email",
	"users.password_hash",
	"users.about_me",
	"users.last_seen",
	"users.last_message_read_time",
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var user models.User
	var lastSeen, lastRead int64
	if err := row.Scan(&user.Id, &user.Username, &user.Email, &user.PasswordHash, &user.AboutMe, &lastSeen, &lastRead); err != nil {
		return nil, err
	}
	user.LastSeen = fromMicros(lastSeen)
	user.LastMessageReadTime = fromMicros(lastRead)
	return &user, nil
}

// CreateUser inserts user and sets its Id. A taken username or email is a conflict.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("users").
		Cols("username", "email", "password_hash", "about_me", "last_seen").
		Values(user.Username, user.Email, user.PasswordHash, user.AboutMe, micros(user.LastSeen))

	sql, args := ib.Build()
	res, err := db.db.ExecContext(ctx, sql, args...)
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("username or email taken: %w", models.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("inserted user id: %w", err)
	}
	user.Id = id

	log.WithFields(log.Fields{
		"id":       id,
		"username": user.Username,
	}).Info("Created user")

	return nil
}

func (db *DB) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(userColumns...).From("users").Where(sb.Equal("users.username", username))
	return db.user(ctx, sb)
}

func (db *DB) UserById(ctx context.Context, id int64) (*models.User, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(userColumns...).From("users").Where(sb.Equal("users.id", id))
	return db.user(ctx, sb)
}

func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(userColumns...).From("users").Where(sb.Equal("users.email", email))
	return db.user(ctx, sb)
}

func (db *DB) user(ctx context.Context, sb *sqlbuilder.SelectBuilder) (*models.User, error) {
	sql, args := sb.Build()
	user, err := scanUser(db.db.QueryRowContext(ctx, sql, args...))
	if errors.Is(err, errNoRows) {
		return nil, fmt.Errorf("user: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes the username and about text of user id
func (db *DB) UpdateProfile(ctx context.Context, id int64, username, aboutMe string) error {
	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("users").
		Set(ub.Assign("username", username), ub.Assign("about_me", aboutMe)).
		Where(ub.Equal("id", id))

	sql, args := ub.Build()
	res, err := db.db.ExecContext(ctx, sql, args...)
	if err != nil {
		if isConstraint(err) {
			return fmt.Errorf("username %q taken: %w", username, models.ErrConflict)
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return expectRow(res, "user")
}

// TouchLastSeen records that user id was active at t
func (db *DB) TouchLastSeen(ctx context.Context, id int64, t time.Time) error {
	return db.setUserTime(ctx, id, "last_seen", t)
}

// MarkMessagesRead moves the read marker of user id's inbox to t
func (db *DB) MarkMessagesRead(ctx context.Context, id int64, t time.Time) error {
	return db.setUserTime(ctx, id, "last_message_read_time", t)
}

func (db *DB) setUserTime(ctx context.Context, id int64, column string, t time.Time) error {
	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("users").Set(ub.Assign(column, micros(t))).Where(ub.Equal("id", id))

	sql, args := ub.Build()
	res, err := db.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	return expectRow(res, "user")
}

var errNoRows = sql.ErrNoRows

func expectRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return nil
}

func isConstraint(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

// IsBusy reports whether err is SQLite refusing work because of a competing lock
func IsBusy(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code() & 0xff
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}

// Timestamps are stored as unix microseconds
func micros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func fromMicros(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}
