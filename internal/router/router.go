package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"feedback-board-api/internal/cache"
	"feedback-board-api/internal/client"
	"feedback-board-api/internal/config"
	"feedback-board-api/internal/database"
	"feedback-board-api/internal/handler"
	"feedback-board-api/internal/metrics"
	"feedback-board-api/internal/middleware"
	"feedback-board-api/internal/repository"
	"feedback-board-api/internal/response"
	"feedback-board-api/internal/service"
	"feedback-board-api/internal/token"
)

const serviceName = "feedback-board-api"

// Config holds router configuration
type Config struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Tokens    *token.Manager
	Events    client.EventPublisher
	BasePath  string
	CORS      config.CORSConfig
	RateLimit config.RateLimitConfig
	CacheTTL  time.Duration
	// HashCost is the bcrypt cost for new passwords; zero means bcrypt.DefaultCost
	HashCost int
}

// Setup builds the engine with every route and returns it wrapped so that
// "/path" and "/path/" resolve to the same route
func Setup(cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Events == nil {
		cfg.Events = client.NewNoOpEventPublisher()
	}

	handler.RegisterJSONFieldNames()

	r := gin.New()
	r.RedirectTrailingSlash = false

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Metrics(cfg.Metrics))

	r.NoRoute(func(c *gin.Context) {
		response.SendError(c, http.StatusNotFound, response.ErrCodeNotFound, "Not found.")
	})

	metricsHandler := gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	r.GET("/metrics", metricsHandler)
	r.GET("/health", healthCheck)
	r.GET("/ready", readyCheck(cfg.DB))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Repositories
	userRepo := repository.NewUserRepository(cfg.DB)
	boardRepo := repository.NewBoardRepository(cfg.DB)
	feedbackRepo := repository.NewFeedbackRepository(cfg.DB)
	commentRepo := repository.NewCommentRepository(cfg.DB)
	tagRepo := repository.NewTagRepository(cfg.DB)
	tx := database.NewTransactor(cfg.DB)
	tagCache := cache.NewTagCache(cfg.Redis, cfg.CacheTTL, cfg.Logger)

	// Services
	authService := service.NewAuthService(userRepo, cfg.Tokens, cfg.HashCost, cfg.Metrics, cfg.Logger)
	userService := service.NewUserService(userRepo, tx, cfg.Logger)
	boardService := service.NewBoardService(boardRepo, userRepo, tx, cfg.Events, cfg.Metrics, cfg.Logger)
	feedbackService := service.NewFeedbackService(feedbackRepo, boardRepo, tagRepo, tx, tagCache, cfg.Events, cfg.Metrics, cfg.Logger)
	commentService := service.NewCommentService(commentRepo, feedbackRepo, boardRepo, cfg.Events, cfg.Metrics, cfg.Logger)
	tagService := service.NewTagService(tagRepo, tx, tagCache, cfg.Logger)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	boardHandler := handler.NewBoardHandler(boardService)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService)
	commentHandler := handler.NewCommentHandler(commentService)
	tagHandler := handler.NewTagHandler(tagService)

	api := r.Group(cfg.BasePath)
	if cfg.BasePath != "" && cfg.BasePath != "/" {
		api.GET("/metrics", metricsHandler)
		api.GET("/health", healthCheck)
		api.GET("/ready", readyCheck(cfg.DB))
	}

	// ============================================================
	// Auth routes (no token, rate limited)
	// ============================================================
	limit := middleware.RateLimit(middleware.NewIPRateLimiter(cfg.RateLimit))
	api.POST("/register", limit, authHandler.Register)
	api.POST("/auth/token", limit, authHandler.ObtainToken)
	api.POST("/auth/token/refresh", limit, authHandler.RefreshToken)

	// Everything else resolves the caller when a token is sent. Services decide
	// whether an anonymous caller is allowed (tag reads are, everything else is not).
	authed := api.Group("")
	authed.Use(middleware.OptionalAuth(authService))

	users := authed.Group("/users")
	{
		users.GET("/me", middleware.AuthWithValidator(authService), userHandler.GetMe)
		users.PATCH("/:id/role", userHandler.ChangeRole)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	boards := authed.Group("/boards")
	{
		boards.GET("", boardHandler.ListBoards)
		boards.POST("", boardHandler.CreateBoard)
		boards.GET("/:id", boardHandler.GetBoard)
		boards.PUT("/:id", boardHandler.UpdateBoard)
		boards.PATCH("/:id", boardHandler.PatchBoard)
		boards.DELETE("/:id", boardHandler.DeleteBoard)
		boards.POST("/:id/add-member", boardHandler.AddMember)
	}

	feedback := authed.Group("/feedback")
	{
		feedback.GET("", feedbackHandler.ListFeedback)
		feedback.POST("", feedbackHandler.CreateFeedback)
		feedback.GET("/:id", feedbackHandler.GetFeedback)
		feedback.PUT("/:id", feedbackHandler.UpdateFeedback)
		feedback.PATCH("/:id", feedbackHandler.PatchFeedback)
		feedback.DELETE("/:id", feedbackHandler.DeleteFeedback)
		feedback.POST("/:id/upvote", feedbackHandler.ToggleUpvote)
		feedback.POST("/:id/move", feedbackHandler.MoveFeedback)
	}

	comments := authed.Group("/comments")
	{
		comments.GET("", commentHandler.ListComments)
		comments.POST("", commentHandler.CreateComment)
		comments.GET("/:id", commentHandler.GetComment)
		comments.PUT("/:id", commentHandler.UpdateComment)
		comments.PATCH("/:id", commentHandler.PatchComment)
		comments.DELETE("/:id", commentHandler.DeleteComment)
	}

	tags := authed.Group("/tags")
	{
		tags.GET("", tagHandler.ListTags)
		tags.POST("", tagHandler.CreateTag)
		tags.GET("/:id", tagHandler.GetTag)
		tags.PUT("/:id", tagHandler.UpdateTag)
		tags.PATCH("/:id", tagHandler.UpdateTag)
		tags.DELETE("/:id", tagHandler.DeleteTag)
	}

	return middleware.StripTrailingSlash(r)
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
}

func readyCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := database.Ping(ctx, db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "service": serviceName})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "service": serviceName})
	}
}
