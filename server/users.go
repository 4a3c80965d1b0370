package server

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"microblog/feeds"
	"microblog/i18n"
	"microblog/models"

	"github.com/gofiber/fiber/v2"
)

type profileForm struct {
	Username string `form:"username" json:"username"`
	AboutMe  string `form:"about_me" json:"about_me"`
}

// lookupUser resolves a username from the path, with a notice when it is unknown
func (s *server) lookupUser(c *fiber.Ctx, username string) (*models.User, error) {
	user, err := s.Store.UserByUsername(c.UserContext(), username)
	if errors.Is(err, models.ErrNotFound) {
		return nil, withNotice(err, "User %s not found.", username)
	}
	return user, err
}

func (s *server) profile(c *fiber.Ctx) (*models.Profile, error) {
	username := c.Params("username")
	profile, err := s.Store.Profile(c.UserContext(), username, viewer(c).Id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, withNotice(err, "User %s not found.", username)
	}
	return profile, err
}

func (s *server) user(c *fiber.Ctx) error {
	profile, err := s.profile(c)
	if err != nil {
		return err
	}

	page, err := pageParam(c)
	if err != nil {
		return err
	}

	result, err := s.Feeds.AssemblePage(c.UserContext(), feeds.OwnStream{Username: profile.Username}, viewer(c), page, s.PostsPerPage)
	if err != nil {
		return err
	}

	next, prev := feeds.BuildNavigation(page, result.HasNext, result.HasPrev, route(c))
	return c.JSON(models.ProfileResponse{
		Profile: *profile,
		Posts:   result.Items,
		NextUrl: feeds.Link(next),
		PrevUrl: feeds.Link(prev),
	})
}

func (s *server) userPopup(c *fiber.Ctx) error {
	profile, err := s.profile(c)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (s *server) currentProfile(c *fiber.Ctx) error {
	user := viewer(c)
	return c.JSON(profileForm{Username: user.Username, AboutMe: user.AboutMe})
}

func (s *server) editProfile(c *fiber.Ctx) error {
	var form profileForm
	if err := c.BodyParser(&form); err != nil {
		return fmt.Errorf("parse form: %w: %w", models.ErrInvalidInput, err)
	}

	form.Username = strings.TrimSpace(form.Username)
	if !validUsername(form.Username) {
		return withNotice(models.ErrInvalidInput, "Please choose a username of at most %d characters.", maxUsernameLength)
	}
	if utf8.RuneCountInString(form.AboutMe) > maxBodyLength {
		return withNotice(models.ErrInvalidInput, "About me can be at most %d characters.", maxBodyLength)
	}

	ctx := c.UserContext()
	err := s.Store.UpdateProfile(ctx, viewer(c).Id, form.Username, form.AboutMe)
	if errors.Is(err, models.ErrConflict) {
		return withNotice(err, "Please use a different username.")
	}
	if err != nil {
		return err
	}

	return c.JSON(models.Notice{Notice: i18n.Tr(ctx, "Profile saved")})
}

func (s *server) follow(c *fiber.Ctx) error {
	user, err := s.lookupUser(c, c.Params("username"))
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	err = s.Store.Follow(ctx, viewer(c).Id, user.Id)
	if errors.Is(err, models.ErrConflict) {
		return withNotice(err, "Cannot follow self.")
	}
	if err != nil {
		return err
	}

	return c.JSON(models.Notice{Notice: i18n.Tr(ctx, "%s followed.", user.Username)})
}

func (s *server) unfollow(c *fiber.Ctx) error {
	user, err := s.lookupUser(c, c.Params("username"))
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	err = s.Store.Unfollow(ctx, viewer(c).Id, user.Id)
	if errors.Is(err, models.ErrConflict) {
		return withNotice(err, "Cannot unfollow self.")
	}
	if err != nil {
		return err
	}

	return c.JSON(models.Notice{Notice: i18n.Tr(ctx, "%s unfollowed.", user.Username)})
}
