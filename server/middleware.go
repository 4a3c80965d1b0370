package server

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"microblog/i18n"
	"microblog/models"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "microblog_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms up to ~2s
	}, []string{"method", "route"})
)

const (
	sessionUserKey = "user_id"
	viewerKey      = "viewer"
)

// instrument logs and measures every request. Errors are rendered here so the
// final status is known.
func (s *server) instrument(c *fiber.Ctx) error {
	start := time.Now()

	if err := c.Next(); err != nil {
		if err := c.App().ErrorHandler(c, err); err != nil {
			return err
		}
	}

	latency := time.Since(start)
	route := c.Route().Path
	status := c.Response().StatusCode()

	requestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(c.Method(), route).Observe(latency.Seconds())

	log.WithFields(log.Fields{
		"method":    c.Method(),
		"route":     route,
		"status":    status,
		"latency":   latency,
		"requestId": c.Locals("requestid"),
	}).Info("Request")
	return nil
}

// locale picks the response language from Accept-Language
func (s *server) locale(c *fiber.Ctx) error {
	tag := i18n.Match(c.Get(fiber.HeaderAcceptLanguage))
	c.SetUserContext(i18n.WithTag(c.UserContext(), tag))
	c.Set(fiber.HeaderContentLanguage, tag.String())
	return c.Next()
}

// requireLogin loads the viewer from the session and records that they were seen
func (s *server) requireLogin(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	id, ok := sess.Get(sessionUserKey).(int64)
	if !ok {
		return withNotice(models.ErrUnauthorized, "Please log in to access this page.")
	}

	ctx := c.UserContext()
	viewer, err := s.Store.UserById(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		// the account is gone
		if err := sess.Destroy(); err != nil {
			return err
		}
		return withNotice(models.ErrUnauthorized, "Please log in to access this page.")
	}
	if err != nil {
		return err
	}

	now := time.Now()
	if err := s.Store.TouchLastSeen(ctx, viewer.Id, now); err != nil {
		return err
	}
	viewer.LastSeen = now

	c.Locals(viewerKey, viewer)
	return c.Next()
}

func viewer(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(viewerKey).(*models.User)
	return user
}

// pageParam reads ?page=, falling back to the first page when it is not a number
func pageParam(c *fiber.Ctx) (int, error) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		return 0, fmt.Errorf("page %d: %w", page, models.ErrInvalidInput)
	}
	return page, nil
}
