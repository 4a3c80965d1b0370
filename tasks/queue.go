// Package tasks runs per user background jobs on a fixed pool of workers.
//
// A task row is written before a job is queued, and at most one task with a
// given name can be pending for a user. Workers report progress as
// "task_progress" notifications and mark the task complete when the job ends,
// whether it succeeded or not.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"microblog/db"
	"microblog/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const ProgressNotification = "task_progress"

var ErrQueueFull = errors.New("task queue is full")

// Store is the task bookkeeping the queue needs
type Store interface {
	PendingTask(ctx context.Context, userId int64, name string) (*models.Task, error)
	CreateTask(ctx context.Context, task *models.Task) error
	CompleteTask(ctx context.Context, id string) error
	AddNotification(ctx context.Context, userId int64, name string, payload any) (*models.Notification, error)
}

// Job is a queued task together with the user that launched it
type Job struct {
	Task models.Task
	User models.User
}

// Progress reports how far a job has come, as a percentage
type Progress func(percent int)

// Runner does the work of one named task
type Runner func(ctx context.Context, job Job, progress Progress) error

type Queue struct {
	store   Store
	workers int
	jobs    chan Job
	runners map[string]Runner

	retry func() backoff.BackOff

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewQueue(ctx context.Context, store Store, workers int, queueSize int) *Queue {
	ctx, cancel := context.WithCancel(ctx)

	return &Queue{
		store:   store,
		workers: workers,
		jobs:    make(chan Job, queueSize),
		runners: make(map[string]Runner),
		retry: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			b.MaxElapsedTime = 30 * time.Second
			return b
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Register makes name launchable. It must be called before Start.
func (q *Queue) Register(name string, runner Runner) {
	q.runners[name] = runner
}

// Launch records a pending task for user and queues it. It fails with
// models.ErrConflict when user already has a pending task called name.
func (q *Queue) Launch(ctx context.Context, name string, description string, user *models.User) (*models.Task, error) {
	if _, ok := q.runners[name]; !ok {
		return nil, fmt.Errorf("unknown task %s: %w", name, models.ErrInvalidInput)
	}

	pending, err := q.store.PendingTask(ctx, user.Id, name)
	if err == nil {
		return pending, fmt.Errorf("task %s already pending: %w", name, models.ErrConflict)
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	task := &models.Task{
		Id:          uuid.NewString(),
		Name:        name,
		Description: description,
		UserId:      user.Id,
		CreatedAt:   time.Now(),
	}
	if err := q.store.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	select {
	case q.jobs <- Job{Task: *task, User: *user}:
	default:
		// nobody will run it, so release the pending slot
		if err := q.store.CompleteTask(ctx, task.Id); err != nil {
			log.WithFields(log.Fields{"task": task.Id, "error": err}).Error("Failed to release unqueued task")
		}
		return nil, ErrQueueFull
	}

	queueDepth.Inc()
	tasksLaunched.WithLabelValues(name).Inc()
	log.WithFields(log.Fields{
		"task": task.Id,
		"name": name,
		"user": user.Username,
	}).Info("Task queued")

	return task, nil
}

// Start spawns the workers
func (q *Queue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.startWorker(i)
	}
}

// Shutdown stops the workers and waits for running jobs to return. Jobs still
// queued are dropped.
func (q *Queue) Shutdown() {
	q.cancel()
	q.wg.Wait()
}

func (q *Queue) startWorker(id int) {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			log.Infof("Worker %d: Shutting down", id)
			return
		case job := <-q.jobs:
			queueDepth.Dec()
			q.run(id, job)
		}
	}
}

func (q *Queue) run(worker int, job Job) {
	logger := log.WithFields(log.Fields{
		"worker": worker,
		"task":   job.Task.Id,
		"name":   job.Task.Name,
	})

	started := time.Now()
	progress := func(percent int) {
		q.setProgress(q.ctx, job, percent)
	}

	progress(0)
	err := q.runners[job.Task.Name](q.ctx, job, progress)
	taskDuration.WithLabelValues(job.Task.Name).Observe(time.Since(started).Seconds())

	if err != nil {
		tasksFinished.WithLabelValues(job.Task.Name, "failed").Inc()
		logger.WithError(err).Error("Task failed")
	} else {
		tasksFinished.WithLabelValues(job.Task.Name, "succeeded").Inc()
		logger.WithField("duration", time.Since(started)).Info("Task finished")
	}

	// finish the bookkeeping even when shutting down
	ctx := context.WithoutCancel(q.ctx)
	q.setProgress(ctx, job, 100)
	if err := q.withRetry(ctx, func() error { return q.store.CompleteTask(ctx, job.Task.Id) }); err != nil {
		logger.WithError(err).Error("Failed to mark task complete")
	}
}

func (q *Queue) setProgress(ctx context.Context, job Job, percent int) {
	payload := models.TaskProgress{TaskId: job.Task.Id, Progress: percent}
	err := q.withRetry(ctx, func() error {
		_, err := q.store.AddNotification(ctx, job.User.Id, ProgressNotification, payload)
		return err
	})
	if err != nil {
		log.WithFields(log.Fields{
			"task":     job.Task.Id,
			"progress": percent,
			"error":    err,
		}).Warn("Failed to publish task progress")
	}
}

// withRetry retries op while the database reports it is busy
func (q *Queue) withRetry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !db.IsBusy(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(q.retry(), ctx))
}
