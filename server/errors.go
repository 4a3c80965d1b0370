package server

import (
	"context"
	"errors"

	"microblog/i18n"
	"microblog/models"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// noticeError attaches a user visible message to an error class
type noticeError struct {
	err   error
	msgid string
	args  []any
}

func (e *noticeError) Error() string {
	return e.msgid + ": " + e.err.Error()
}

func (e *noticeError) Unwrap() error {
	return e.err
}

// withNotice wraps err so the client sees msgid, translated and formatted with args
func withNotice(err error, msgid string, args ...any) error {
	return &noticeError{err: err, msgid: msgid, args: args}
}

var defaultNotices = []struct {
	class  error
	status int
	msgid  string
}{
	{models.ErrNotFound, fiber.StatusNotFound, "Not found"},
	{models.ErrInvalidInput, fiber.StatusBadRequest, "Invalid request"},
	{models.ErrConflict, fiber.StatusConflict, "The request conflicts with the current state"},
	{models.ErrUnauthorized, fiber.StatusUnauthorized, "Please log in to access this page."},
}

// classify maps err to a status code and the translated notice to show
func classify(ctx context.Context, err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}

	status, msgid := fiber.StatusInternalServerError, "An unexpected error has occurred"
	for _, notice := range defaultNotices {
		if errors.Is(err, notice.class) {
			status, msgid = notice.status, notice.msgid
			break
		}
	}

	var args []any
	var ne *noticeError
	if status != fiber.StatusInternalServerError && errors.As(err, &ne) {
		msgid, args = ne.msgid, ne.args
	}

	return status, i18n.Tr(ctx, msgid, args...)
}

func (s *server) errorHandler(c *fiber.Ctx, err error) error {
	status, notice := classify(c.UserContext(), err)

	fields := log.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"status": status,
		"error":  err,
	}
	if status >= fiber.StatusInternalServerError {
		log.WithFields(fields).Error("Request failed")
	} else {
		log.WithFields(fields).Debug("Request rejected")
	}

	return c.Status(status).JSON(models.Notice{Notice: notice})
}
