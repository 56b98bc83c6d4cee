// Package server contains the HTTP and WebSocket handlers of the blog API.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	_ "techsparks/docs" // swagger docs
	"techsparks/internal/cache"
	"techsparks/internal/config"
	"techsparks/internal/database"
	"techsparks/internal/featureflags"
	"techsparks/internal/mailer"
	"techsparks/internal/middleware"
	"techsparks/internal/notifications"
	"techsparks/internal/observability"
	"techsparks/internal/repository"
	"techsparks/internal/service"
	"techsparks/internal/token"

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
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Repositories bundles one storage backend.
type Repositories struct {
	Users      repository.UserRepository
	Categories repository.CategoryRepository
	Posts      repository.PostRepository
	Comments   repository.CommentRepository
}

// GormRepositories builds the relational repositories over db.
func GormRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:      repository.NewUserRepository(db),
		Categories: repository.NewCategoryRepository(db),
		Posts:      repository.NewPostRepository(db),
		Comments:   repository.NewCommentRepository(db),
	}
}

// MongoRepositories builds the document repositories over db.
func MongoRepositories(db *mongo.Database) Repositories {
	return Repositories{
		Users:      repository.NewMongoUserRepository(db),
		Categories: repository.NewMongoCategoryRepository(db),
		Posts:      repository.NewMongoPostRepository(db),
		Comments:   repository.NewMongoCommentRepository(db),
	}
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	mongo          *mongo.Client
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	repos          Repositories
	tokens         *token.Issuer
	notifier       *notifications.Notifier
	limiter        *middleware.RateLimiter
	featureFlags   *featureflags.Manager
	mailer         *mailer.Mailer

	authService     *service.AuthService
	postService     *service.PostService
	categoryService *service.CategoryService
	commentService  *service.CommentService
	imageService    *service.ImageService
}

// NewServer connects to the storage backend selected by cfg.DBDriver and to
// Redis, then wires every service.
func NewServer(cfg *config.Config) (*Server, error) {
	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	if cfg.DBDriver == config.DriverMongo {
		client, mdb, err := database.ConnectMongo(context.Background(), cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err := repository.EnsureMongoIndexes(context.Background(), mdb); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		s := newServer(cfg, MongoRepositories(mdb), redisClient)
		s.mongo = client
		return s, nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using an already-initialized relational
// database and Redis client. Tests use it with sqlite and miniredis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	s := newServer(cfg, GormRepositories(db), redisClient)
	s.db = db
	return s, nil
}

func newServer(cfg *config.Config, repos Repositories, redisClient *redis.Client) *Server {
	s := &Server{
		config:         cfg,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(cfg.ServiceName),
		repos:          repos,
		tokens:         token.NewIssuer(cfg.JWTSecret),
		notifier:       notifications.NewNotifier(redisClient),
		limiter:        middleware.NewRateLimiter(redisClient, cfg.Env),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		mailer:         mailer.New(mailer.WithBreaker(mailer.NewSMTPSender(cfg), mailer.DefaultBreakerSettings)),
	}

	s.imageService = service.NewImageService(cfg)
	s.authService = service.NewAuthService(repos.Users, s.tokens, s.mailer, s.featureFlags)
	s.postService = service.NewPostService(repos.Posts, s.imageService, s.notifier)
	s.categoryService = service.NewCategoryService(repos.Categories, s.notifier)
	s.commentService = service.NewCommentService(repos.Comments, repos.Posts, s.notifier)
	return s
}

// SetMailer replaces the outbound mail transport.
func (s *Server) SetMailer(sender mailer.Sender) {
	s.mailer = mailer.New(sender)
	s.authService = service.NewAuthService(s.repos.Users, s.tokens, s.mailer, s.featureFlags)
}

// NewApp builds the Fiber application with middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "techsparks API",
		ErrorHandler: ErrorHandler(s.config.IsProduction()),
		BodyLimit:    int(s.imageService.MaxUploadBytes()) + 1024*1024,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Span per request; must precede ContextMiddleware so the trace ID is set
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers. Uploaded images are embedded by the frontend origin.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS must run before anything that can short-circuit so error responses
	// still carry the headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later.")
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Blog Api working")
	})

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static("/uploads", s.imageService.Dir(), fiber.Static{
		MaxAge: 86400,
	})

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "techsparks API Metrics",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	identity := middleware.IdentityRequired(s.tokens)
	authed := middleware.AuthRequired(s.tokens, s.repos.Users)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", s.limiter.Limit("register", 5, 10*time.Minute, middleware.FailOpen), s.Register)
	auth.Post("/login", s.limiter.Limit("login", 10, 5*time.Minute, middleware.FailOpen), s.Login)
	auth.Post("/logout", s.Logout)
	auth.Post("/send-verify-otp", identity,
		s.limiter.Limit("send_verify_otp", 3, 15*time.Minute, middleware.FailClosed), s.SendVerifyOTP)
	auth.Post("/verify-account", identity, s.VerifyAccount)
	auth.Get("/is-auth", identity, s.IsAuthenticated)
	auth.Post("/send-reset-otp",
		s.limiter.Limit("send_reset_otp", 3, 15*time.Minute, middleware.FailClosed), s.SendResetOTP)
	auth.Post("/reset-password",
		s.limiter.Limit("reset_password", 10, 15*time.Minute, middleware.FailOpen), s.ResetPassword)

	// User routes
	api.Get("/user/data", identity, s.GetUserData)

	// Post routes
	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/create", authed, s.CreatePost)
	posts.Put("/update/:id", authed, s.UpdatePost)
	posts.Delete("/delete/:id", authed, s.DeletePost)
	posts.Get("/:id", s.GetPost)

	// Category routes
	categories := api.Group("/categories")
	categories.Get("/", s.GetCategories)
	categories.Post("/create", authed, s.CreateCategory)
	categories.Put("/update/:id", authed, s.UpdateCategory)
	categories.Delete("/delete/:id", authed, s.DeleteCategory)
	categories.Get("/:id", s.GetCategory)

	// Comment routes. Specific paths before the generic /:commentId routes.
	comments := api.Group("/comments")
	comments.Get("/post/:postId/live", s.LiveCommentsUpgrade, s.LiveCommentsHandler())
	comments.Get("/post/:postId", s.GetPostComments)
	comments.Get("/:commentId/replies", s.GetCommentReplies)
	comments.Post("/create", authed,
		s.limiter.Limit("create_comment", 20, time.Minute, middleware.FailOpen), s.CreateComment)
	comments.Put("/:commentId", authed, s.UpdateComment)
	comments.Delete("/:commentId", authed, s.DeleteComment)

	// Everything else
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Route %s not found", c.OriginalURL()))
	})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := s.pingDatabase(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
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

func (s *Server) pingDatabase(ctx context.Context) error {
	switch {
	case s.db != nil:
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	case s.mongo != nil:
		return s.mongo.Ping(ctx, nil)
	default:
		return fmt.Errorf("no database configured")
	}
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if err := s.notifier.StartEventSubscriber(ctx, func(_ string, payload string) {
		observability.Logger.Debug("domain event", "payload", payload)
	}); err != nil {
		log.Printf("failed to start event subscriber: %v", err)
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				log.Printf("error closing sql DB: %v", cerr)
			}
		}
	}
	if s.mongo != nil {
		if err := s.mongo.Disconnect(ctx); err != nil {
			log.Printf("error disconnecting mongo: %v", err)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
