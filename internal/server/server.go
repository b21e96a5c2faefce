// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "playhub/docs" // swagger docs
	"playhub/internal/auth"
	"playhub/internal/bootstrap"
	"playhub/internal/cache"
	"playhub/internal/config"
	"playhub/internal/database"
	"playhub/internal/featureflags"
	"playhub/internal/middleware"
	"playhub/internal/models"
	"playhub/internal/notifications"
	"playhub/internal/repository"
	"playhub/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	notifier       *notifications.Notifier
	gameHub        *notifications.GameHub
	featureFlags   *featureflags.Manager

	gameService     *service.GameService
	reactionService *service.ReactionService
	categoryService *service.CategoryService
	pageService     *service.PageService
	userService     *service.UserService
	adminService    *service.AdminService
}

// NewServer connects to the database and Redis, creates the configured admin
// account and builds a server from them.
func NewServer(cfg *config.Config, opts bootstrap.Options) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(context.Background(), cfg, opts)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil: caching, live events and Redis sessions are then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	gameRepo := repository.NewGameRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("playhub-api"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		gameHub:        notifications.NewGameHub(),
	}

	// A nil *Notifier must not become a non-nil EventPublisher interface.
	var events service.EventPublisher
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		events = server.notifier
	}

	server.gameService = service.NewGameService(gameRepo, events)
	server.reactionService = service.NewReactionService(
		repository.NewReactionRepository(db),
		gameRepo,
		events,
	)
	server.categoryService = service.NewCategoryService(repository.NewCategoryRepository(db))
	server.pageService = service.NewPageService(repository.NewPageRepository(db))
	server.userService = service.NewUserService(repository.NewUserRepository(db), tokens, cfg.PlayerTokenTTL())
	server.adminService = service.NewAdminService(
		adminRepo,
		tokens,
		auth.NewSessionStore(cfg.SessionStore, redisClient, adminRepo),
		cfg.AdminTokenTTL(),
	)

	return server, nil
}

// AdminService exposes admin account management to bootstrap code.
func (s *Server) AdminService() *service.AdminService {
	return s.adminService
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Copies request ID and trace ID into the request context for the logger.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		MaxAge:       86400,
	}))

	// Global rate limiting (300 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Playhub Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", middleware.RateLimit(s.redis, 5, 10*time.Minute, "signup"), s.Signup)
	authGroup.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)

	admin := api.Group("/admin")
	admin.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "admin_login"), s.AdminLogin)
	admin.Post("/logout", s.AdminRequired(), s.AdminLogout)

	games := api.Group("/games", s.OptionalAuth())
	// Specific routes before the generic /:id routes.
	games.Get("/admin/list", s.AdminRequired(), s.ListAdminGames)
	games.Get("/new", s.ListNewGames)
	games.Get("/trending", s.ListTrendingGames)
	games.Get("/", s.ListGames)
	games.Post("/", s.AdminRequired(), s.CreateGame)
	games.Post("/:id/like", s.PlayerRequired(), middleware.RateLimit(s.redis, 60, time.Minute, "reaction"), s.LikeGame)
	games.Post("/:id/dislike", s.PlayerRequired(), middleware.RateLimit(s.redis, 60, time.Minute, "reaction"), s.DislikeGame)
	games.Delete("/:id/reaction", s.PlayerRequired(), s.RemoveReaction)
	games.Get("/:id/reactions", s.GetReactions)
	games.Post("/:id/increment-play-count", middleware.RateLimit(s.redis, 30, time.Minute, "play"), s.IncrementPlayCount)
	games.Get("/:id", s.GetGame)
	games.Patch("/:id", s.AdminRequired(), s.UpdateGame)
	games.Delete("/:id", s.AdminRequired(), s.DeleteGame)

	categories := api.Group("/categories")
	categories.Get("/", s.ListCategories)
	categories.Get("/:id", s.GetCategory)
	categories.Post("/", s.AdminRequired(), s.CreateCategory)
	categories.Patch("/:id", s.AdminRequired(), s.UpdateCategory)
	categories.Delete("/:id", s.AdminRequired(), s.DeleteCategory)

	pages := api.Group("/pages")
	pages.Get("/admin/list", s.AdminRequired(), s.ListAdminPages)
	pages.Get("/admin/:id", s.AdminRequired(), s.GetAdminPage)
	pages.Get("/slug/:slug", s.GetPageBySlug)
	pages.Get("/", s.ListPages)
	pages.Get("/:id", s.GetPage)
	pages.Post("/", s.AdminRequired(), s.CreatePage)
	pages.Patch("/:id", s.AdminRequired(), s.UpdatePage)
	pages.Delete("/:id", s.AdminRequired(), s.DeletePage)

	ws := api.Group("/ws", s.OptionalAuth())
	ws.Get("/games", s.WebSocketGamesHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional, so its
// absence is reported but does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// NewApp builds the Fiber app with every middleware and route registered.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Playhub API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start wires live events and starts listening.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.notifier != nil {
		go func() {
			if err := s.gameHub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring",
					slog.String("hub", s.gameHub.Name()),
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.gameHub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub", slog.String("hub", s.gameHub.Name()), slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
