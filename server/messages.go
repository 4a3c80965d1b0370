package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"microblog/feeds"
	"microblog/i18n"
	"microblog/models"

	"github.com/gofiber/fiber/v2"
)

const unreadMessageCount = "unread_message_count"

type messageForm struct {
	Message string `form:"message" json:"message"`
}

func (s *server) sendMessage(c *fiber.Ctx) error {
	recipient, err := s.lookupUser(c, c.Params("recipient"))
	if err != nil {
		return err
	}

	var form messageForm
	if err := c.BodyParser(&form); err != nil {
		return fmt.Errorf("parse form: %w: %w", models.ErrInvalidInput, err)
	}
	body := strings.TrimSpace(form.Message)
	if !validBody(body) {
		return withNotice(models.ErrInvalidInput, "Say something between 1 and %d characters.", maxBodyLength)
	}

	ctx := c.UserContext()
	sender := viewer(c)
	if err := s.Store.CreateMessage(ctx, &models.Message{
		SenderId:    sender.Id,
		RecipientId: recipient.Id,
		Body:        body,
		Timestamp:   time.Now(),
	}); err != nil {
		return err
	}

	unread, err := s.Store.UnreadMessageCount(ctx, recipient.Id, recipient.LastMessageReadTime)
	if err != nil {
		return err
	}
	if _, err := s.Store.AddNotification(ctx, recipient.Id, unreadMessageCount, unread); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(models.Notice{Notice: i18n.Tr(ctx, "Your message has been sent.")})
}

func (s *server) messages(c *fiber.Ctx) error {
	page, err := pageParam(c)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	user := viewer(c)

	// reading the inbox clears the unread count before it is assembled
	now := time.Now()
	if err := s.Store.MarkMessagesRead(ctx, user.Id, now); err != nil {
		return err
	}
	user.LastMessageReadTime = now
	if _, err := s.Store.AddNotification(ctx, user.Id, unreadMessageCount, 0); err != nil {
		return err
	}

	result, err := s.Feeds.AssembleMessages(ctx, user, page, s.PostsPerPage)
	if err != nil {
		return err
	}

	next, prev := feeds.BuildNavigation(page, result.HasNext, result.HasPrev, route(c))
	return c.JSON(models.MessagesResponse{
		Messages: result.Items,
		NextUrl:  feeds.Link(next),
		PrevUrl:  feeds.Link(prev),
	})
}

func (s *server) notifications(c *fiber.Ctx) error {
	since := 0.0
	if raw := c.Query("since"); raw != "" {
		var err error
		if since, err = strconv.ParseFloat(raw, 64); err != nil {
			return withNotice(models.ErrInvalidInput, "Invalid request")
		}
	}

	notifications, err := s.Store.NotificationsSince(c.UserContext(), viewer(c).Id, since)
	if err != nil {
		return err
	}
	return c.JSON(notifications)
}
