package server

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"microblog/content"
	"microblog/feeds"
	"microblog/i18n"
	"microblog/models"
	"microblog/tasks"
	"microblog/translate"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

const maxBodyLength = 140

type postForm struct {
	Post string `form:"post" json:"post"`
}

type translateForm struct {
	Text    string `form:"text" json:"text"`
	SrcLang string `form:"src_lang" json:"src_lang"`
	DstLang string `form:"dst_lang" json:"dst_lang"`
}

type translation struct {
	Text string `json:"text"`
}

// validBody checks the 1 to 140 character limit shared by posts and messages
func validBody(body string) bool {
	n := utf8.RuneCountInString(body)
	return n >= 1 && n <= maxBodyLength
}

// route captures the request path and query for navigation links
func route(c *fiber.Ctx) feeds.Route {
	params := url.Values{}
	for key, value := range c.Queries() {
		params.Set(key, value)
	}
	return feeds.Route{Path: c.Path(), Params: params}
}

func (s *server) feedPage(c *fiber.Ctx, title string, source feeds.Source) error {
	page, err := pageParam(c)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	result, err := s.Feeds.AssemblePage(ctx, source, viewer(c), page, s.PostsPerPage)
	if err != nil {
		return err
	}

	next, prev := feeds.BuildNavigation(page, result.HasNext, result.HasPrev, route(c))
	return c.JSON(models.FeedResponse{
		Title:   i18n.Tr(ctx, title),
		Posts:   result.Items,
		Total:   result.Total,
		NextUrl: feeds.Link(next),
		PrevUrl: feeds.Link(prev),
	})
}

func (s *server) index(c *fiber.Ctx) error {
	return s.feedPage(c, "Home", feeds.FollowedStream{})
}

func (s *server) explore(c *fiber.Ctx) error {
	return s.feedPage(c, "Explore", feeds.GlobalStream{})
}

func (s *server) search(c *fiber.Ctx) error {
	return s.feedPage(c, "Search", feeds.SearchQuery{Text: c.Query("q")})
}

func (s *server) createPost(c *fiber.Ctx) error {
	var form postForm
	if err := c.BodyParser(&form); err != nil {
		return fmt.Errorf("parse form: %w: %w", models.ErrInvalidInput, err)
	}

	body := strings.TrimSpace(form.Post)
	if !validBody(body) {
		return withNotice(models.ErrInvalidInput, "Say something between 1 and %d characters.", maxBodyLength)
	}

	switch content.Rejection(body) {
	case content.ReasonRepetitive:
		return withNotice(models.ErrInvalidInput, "Your post is too repetitive.")
	case content.ReasonSpam:
		return withNotice(models.ErrInvalidInput, "Your post looks like spam.")
	}

	author := viewer(c)
	post := &models.Post{
		Body:           body,
		Timestamp:      time.Now(),
		AuthorId:       author.Id,
		AuthorUsername: author.Username,
		Language:       s.Detector.Guess(body),
	}

	ctx := c.UserContext()
	if err := s.Store.CreatePost(ctx, post); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"post":     post.Id,
		"author":   author.Username,
		"language": post.Language,
	}).Info("Post submitted")

	return c.Status(fiber.StatusCreated).JSON(models.Notice{Notice: i18n.Tr(ctx, "Post submitted")})
}

func (s *server) exportPosts(c *fiber.Ctx) error {
	ctx := c.UserContext()

	_, err := s.Tasks.Launch(ctx, tasks.ExportPosts, i18n.Tr(ctx, "Exporting posts..."), viewer(c))
	switch {
	case errors.Is(err, models.ErrConflict):
		return withNotice(err, "An export task is currently in progress")
	case errors.Is(err, tasks.ErrQueueFull):
		return fiber.NewError(fiber.StatusServiceUnavailable, i18n.Tr(ctx, "Too many tasks are running, please try again later."))
	case err != nil:
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(models.Notice{Notice: i18n.Tr(ctx, "Exporting posts...")})
}

func (s *server) translate(c *fiber.Ctx) error {
	var form translateForm
	if err := c.BodyParser(&form); err != nil {
		return fmt.Errorf("parse form: %w: %w", models.ErrInvalidInput, err)
	}
	if form.Text == "" || form.SrcLang == "" || form.DstLang == "" {
		return withNotice(models.ErrInvalidInput, "Text, source and destination language are required.")
	}

	ctx := c.UserContext()
	text, err := s.Translator.Translate(form.Text, form.SrcLang, form.DstLang)
	switch {
	case errors.Is(err, translate.ErrNotConfigured):
		text = i18n.Tr(ctx, "Error: the translation service is not configured.")
	case err != nil:
		log.WithError(err).Warn("Translation failed")
		text = i18n.Tr(ctx, "Error: the translation service failed.")
	}

	return c.JSON(translation{Text: text})
}
