package tasks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tasksLaunched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_tasks_launched_total",
		Help: "Number of background tasks accepted into the queue",
	}, []string{"name"})

	tasksFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_tasks_finished_total",
		Help: "Number of background tasks finished, by outcome",
	}, []string{"name", "status"})

	taskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "microblog_task_duration_seconds",
		Help:    "Time spent running background tasks",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms up to ~20s
	}, []string{"name"})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "microblog_task_queue_depth",
		Help: "Jobs waiting for a worker",
	})
)
