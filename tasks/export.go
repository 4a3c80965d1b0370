package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"microblog/models"
	"microblog/query"

	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"
)

const ExportPosts = "export_posts"

type PostLister interface {
	ListPosts(ctx context.Context, spec query.Spec) ([]models.Post, error)
}

// Exporter writes a user's posts to <dir>/<username>-<task id>.json.zst
type Exporter struct {
	posts PostLister
	dir   string
}

func NewExporter(posts PostLister, dir string) *Exporter {
	return &Exporter{posts: posts, dir: dir}
}

type exportedPost struct {
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
	Language  string    `json:"language,omitempty"`
}

type export struct {
	Username   string         `json:"username"`
	ExportedAt time.Time      `json:"exported_at"`
	Posts      []exportedPost `json:"posts"`
}

// Path is where the archive for job ends up
func (e *Exporter) Path(job Job) string {
	return filepath.Join(e.dir, fmt.Sprintf("%s-%s.json.zst", job.User.Username, job.Task.Id))
}

// Run is the Runner for ExportPosts
func (e *Exporter) Run(ctx context.Context, job Job, progress Progress) error {
	posts, err := e.posts.ListPosts(ctx, query.Spec{
		Where:   []query.Condition{query.Equal{Field: query.AuthorId, Value: job.User.Id}},
		OrderBy: query.Oldest(),
	})
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}

	out := export{
		Username:   job.User.Username,
		ExportedAt: time.Now().UTC(),
		Posts:      make([]exportedPost, 0, len(posts)),
	}

	last := 0
	for i, post := range posts {
		if err := ctx.Err(); err != nil {
			return err
		}
		out.Posts = append(out.Posts, exportedPost{
			Body:      post.Body,
			Timestamp: post.Timestamp,
			Language:  post.Language,
		})

		// the final 100 is reported by the queue
		if percent := (i + 1) * 100 / len(posts); percent > last && percent < 100 {
			progress(percent)
			last = percent
		}
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	// write to a temporary file so readers never see a partial archive
	tmp, err := os.CreateTemp(e.dir, ".export-*")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	zw, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if err := json.NewEncoder(zw).Encode(out); err != nil {
		zw.Close()
		return fmt.Errorf("encode export: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	path := e.Path(job)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move export into place: %w", err)
	}

	log.WithFields(log.Fields{
		"user":  job.User.Username,
		"posts": len(posts),
		"path":  path,
	}).Info("Exported posts")

	return nil
}
