package server

import (
	"context"
	"time"

	"microblog/feeds"
	"microblog/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Store is the persistence the routes need
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserById(ctx context.Context, id int64) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, username, aboutMe string) error
	TouchLastSeen(ctx context.Context, id int64, t time.Time) error
	MarkMessagesRead(ctx context.Context, id int64, t time.Time) error

	Follow(ctx context.Context, followerId, followedId int64) error
	Unfollow(ctx context.Context, followerId, followedId int64) error
	Profile(ctx context.Context, username string, viewerId int64) (*models.Profile, error)

	CreatePost(ctx context.Context, post *models.Post) error
	CreateMessage(ctx context.Context, msg *models.Message) error
	UnreadMessageCount(ctx context.Context, userId int64, readAt time.Time) (int, error)

	AddNotification(ctx context.Context, userId int64, name string, payload any) (*models.Notification, error)
	NotificationsSince(ctx context.Context, userId int64, since float64) ([]models.Notification, error)
}

// Launcher starts background tasks
type Launcher interface {
	Launch(ctx context.Context, name string, description string, user *models.User) (*models.Task, error)
}

type Translator interface {
	Translate(text, src, dst string) (string, error)
}

// Detector guesses the language of a post, "" when unsure
type Detector interface {
	Guess(text string) string
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encoded, password string) error
}

type ServerConfig struct {
	Store      Store
	Feeds      *feeds.Assembler
	Tasks      Launcher
	Translator Translator
	Detector   Detector
	Hasher     PasswordHasher

	// Fixed page size of every listing
	PostsPerPage int

	SessionExpiration time.Duration
	CookieSecure      bool

	// Origins allowed to make credentialed cross origin requests, "" disables CORS
	AllowOrigins string

	// Login attempts per client IP and minute
	LoginRateLimit int
}

type server struct {
	*ServerConfig
	sessions *session.Store
}

// Returns a fiber.App instance serving the microblog JSON API
func Server(config *ServerConfig) *fiber.App {
	s := &server{
		ServerConfig: config,
		sessions: session.New(session.Config{
			Expiration:     config.SessionExpiration,
			CookieSecure:   config.CookieSecure,
			CookieHTTPOnly: true,
			CookieSameSite: fiber.CookieSameSiteLaxMode,
		}),
	}

	app := fiber.New(fiber.Config{
		AppName:      "microblog",
		ErrorHandler: s.errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(s.instrument)
	app.Use(compress.New())
	if config.AllowOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     config.AllowOrigins,
			AllowHeaders:     "Cache-Control, Content-Type",
			AllowCredentials: true,
		}))
	}
	app.Use(s.locale)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Post("/auth/register", s.register)
	app.Post("/auth/login", limiter.New(limiter.Config{
		Max:        config.LoginRateLimit,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.ErrTooManyRequests
		},
	}), s.login)
	app.Post("/auth/logout", s.logout)

	// Everything below needs a logged in viewer
	app.Use(s.requireLogin)

	for _, path := range []string{"/", "/index"} {
		app.Get(path, s.index)
		app.Post(path, s.createPost)
	}
	app.Get("/explore", s.explore)
	app.Get("/search", s.search)

	app.Get("/user/:username", s.user)
	app.Get("/user/:username/popup", s.userPopup)
	app.Get("/edit_profile", s.currentProfile)
	app.Post("/edit_profile", s.editProfile)
	app.Post("/follow/:username", s.follow)
	app.Post("/unfollow/:username", s.unfollow)

	app.Post("/send_message/:recipient", s.sendMessage)
	app.Get("/messages", s.messages)
	app.Get("/notifications", s.notifications)

	app.Post("/export_posts", s.exportPosts)
	app.Post("/translate", s.translate)

	log.WithFields(log.Fields{
		"postsPerPage": config.PostsPerPage,
		"origins":      config.AllowOrigins,
	}).Info("Server configured")

	return app
}
