package models

import (
	"encoding/json"
	"time"
)

// User is an account on the site
type User struct {
	Id                  int64     `json:"id"`
	Username            string    `json:"username"`
	Email               string    `json:"-"`
	PasswordHash        string    `json:"-"`
	AboutMe             string    `json:"aboutMe"`
	LastSeen            time.Time `json:"lastSeen"`
	LastMessageReadTime time.Time `json:"-"`
}

// Profile is a user with relationship counts, as shown on profile pages
type Profile struct {
	User
	Followers   int  `json:"followers"`
	Following   int  `json:"following"`
	IsFollowing bool `json:"isFollowing"`
}

// Post model with the author's handle joined in
type Post struct {
	Id             int64     `json:"id"`
	Body           string    `json:"body"`
	Timestamp      time.Time `json:"timestamp"`
	AuthorId       int64     `json:"authorId"`
	AuthorUsername string    `json:"author"`
	Language       string    `json:"language,omitempty"`
}

// Message is a private message between two users
type Message struct {
	Id                int64     `json:"id"`
	SenderId          int64     `json:"senderId"`
	SenderUsername    string    `json:"sender"`
	RecipientId       int64     `json:"recipientId"`
	RecipientUsername string    `json:"recipient"`
	Body              string    `json:"body"`
	Timestamp         time.Time `json:"timestamp"`
}

// Notification is the latest event of a given name for a user. Timestamp is
// seconds since the epoch so clients can poll with ?since=.
type Notification struct {
	Id        int64           `json:"id"`
	Name      string          `json:"name"`
	UserId    int64           `json:"-"`
	Timestamp float64         `json:"timestamp"`
	Payload   json.RawMessage `json:"data"`
}

// Task is a background job record
type Task struct {
	Id          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UserId      int64     `json:"-"`
	Complete    bool      `json:"complete"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TaskProgress is the payload of task_progress notifications
type TaskProgress struct {
	TaskId   string `json:"task_id"`
	Progress int    `json:"progress"`
}

// Page is one page of a paginated listing. Page numbers start at 1.
// Total is only set when the source knows it (search).
type Page[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasNext  bool `json:"hasNext"`
	HasPrev  bool `json:"hasPrev"`
	Total    int  `json:"total,omitempty"`
}

type FeedResponse struct {
	Title   string  `json:"title"`
	Posts   []Post  `json:"posts"`
	Total   int     `json:"total,omitempty"`
	NextUrl *string `json:"nextUrl"`
	PrevUrl *string `json:"prevUrl"`
}

type ProfileResponse struct {
	Profile Profile `json:"user"`
	Posts   []Post  `json:"posts"`
	NextUrl *string `json:"nextUrl"`
	PrevUrl *string `json:"prevUrl"`
}

type MessagesResponse struct {
	Messages []Message `json:"messages"`
	NextUrl  *string   `json:"nextUrl"`
	PrevUrl  *string   `json:"prevUrl"`
}

// Notice carries a translated, user-visible message
type Notice struct {
	Notice string `json:"notice"`
}
