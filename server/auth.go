package server

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"microblog/auth"
	"microblog/i18n"
	"microblog/models"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

const maxUsernameLength = 64

type registerForm struct {
	Username  string `form:"username" json:"username"`
	Email     string `form:"email" json:"email"`
	Password  string `form:"password" json:"password"`
	Password2 string `form:"password2" json:"password2"`
}

type loginForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

func validUsername(username string) bool {
	return username != "" &&
		utf8.RuneCountInString(username) <= maxUsernameLength &&
		!strings.ContainsAny(username, "/?#")
}

func (s *server) register(c *fiber.Ctx) error {
	var form registerForm
	if err := c.BodyParser(&form); err != nil {
		return fmt.Errorf("parse form: %w: %w", models.ErrInvalidInput, err)
	}

	form.Username = strings.TrimSpace(form.Username)
	if !validUsername(form.Username) {
		return withNotice(models.ErrInvalidInput, "Please choose a username of at most %d characters.", maxUsernameLength)
	}
	address, err := mail.ParseAddress(form.Email)
	if err != nil {
		return withNotice(models.ErrInvalidInput, "Invalid email address.")
	}
	if form.Password == "" {
		return withNotice(models.ErrInvalidInput, "Please choose a password.")
	}
	if form.Password2 != "" && form.Password2 != form.Password {
		return withNotice(models.ErrInvalidInput, "Passwords do not match.")
	}

	hash, err := s.Hasher.Hash(form.Password)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	user := &models.User{
		Username:     form.Username,
		Email:        address.Address,
		PasswordHash: hash,
	}
	if err := s.Store.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, models.ErrConflict) {
			return err
		}
		if _, lookupErr := s.Store.UserByEmail(ctx, user.Email); lookupErr == nil {
			return withNotice(err, "Please use a different email address.")
		}
		return withNotice(err, "Please use a different username.")
	}

	log.WithField("username", user.Username).Info("Registered user")

	return c.Status(fiber.StatusCreated).JSON(models.Notice{
		Notice: i18n.Tr(ctx, "Congratulations, you are now a registered user!"),
	})
}

func (s *server) login(c *fiber.Ctx) error {
	var form loginForm
	if err := c.BodyParser(&form); err != nil {
		return fmt.Errorf("parse form: %w: %w", models.ErrInvalidInput, err)
	}

	ctx := c.UserContext()
	user, err := s.Store.UserByUsername(ctx, strings.TrimSpace(form.Username))
	if errors.Is(err, models.ErrNotFound) {
		return withNotice(models.ErrUnauthorized, "Invalid username or password")
	}
	if err != nil {
		return err
	}

	if err := s.Hasher.Verify(user.PasswordHash, form.Password); err != nil {
		if !errors.Is(err, auth.ErrMismatch) {
			log.WithFields(log.Fields{"username": user.Username, "error": err}).Warn("Stored password hash is unusable")
		}
		return withNotice(models.ErrUnauthorized, "Invalid username or password")
	}

	sess, err := s.sessions.Get(c)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	// a fresh id on login
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(sessionUserKey, user.Id)
	if err := sess.Save(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	return c.JSON(user)
}

func (s *server) logout(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if err := sess.Destroy(); err != nil {
		return err
	}

	return c.JSON(models.Notice{Notice: i18n.Tr(c.UserContext(), "You have been logged out.")})
}
