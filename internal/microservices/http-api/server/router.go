// Package server assembles the HTTP API from its handlers and middleware.
package server

import (
	"time"

	"yamdb/internal/microservices/http-api/handler"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Services is everything the router dispatches to.
type Services struct {
	Auth       service.AuthService
	Users      service.UserService
	Categories service.CategoryService
	Genres     service.GenreService
	Titles     service.TitleService
	Reviews    service.ReviewService
	Comments   service.CommentService
}

// Options tunes the cross-cutting middleware.
type Options struct {
	// CORSOrigins lists allowed browser origins. Empty leaves CORS headers off.
	CORSOrigins []string

	// RateCounter backs the limiter on /auth. Nil disables rate limiting.
	RateCounter    middleware.Counter
	AuthRateLimit  int
	AuthRateWindow time.Duration

	DB    handler.Pinger
	Redis handler.Pinger
}

// NewRouter builds the gin engine serving /api/v1 and /healthz.
func NewRouter(svc Services, opts Options) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	router.Use(
		middleware.RequestID(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: time.RFC3339,
			UTC:        true,
			SkipPaths:  []string{"/healthz"},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}
				if v := c.GetString("request_id"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}
				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}
				return fields
			},
		}),
		ginzap.RecoveryWithZap(zap.L(), true),
	)

	health := handler.NewHealthHandler(opts.DB, opts.Redis)
	router.GET("/healthz", health.Health)

	api := router.Group("/api/v1", middleware.Authenticate(svc.Auth))

	auth := api.Group("/auth")
	if opts.RateCounter != nil {
		auth.Use(middleware.RateLimit(opts.RateCounter, "auth", opts.AuthRateLimit, opts.AuthRateWindow))
	}
	handler.NewAuthHandler(svc.Auth).RegisterRoutes(auth)

	handler.NewUserHandler(svc.Users).RegisterRoutes(api.Group("/users"))
	handler.NewCategoryHandler(svc.Categories).RegisterRoutes(api.Group("/categories"))
	handler.NewGenreHandler(svc.Genres).RegisterRoutes(api.Group("/genres"))
	handler.NewTitleHandler(svc.Titles).RegisterRoutes(api.Group("/titles"))
	handler.NewReviewHandler(svc.Reviews).RegisterRoutes(api.Group("/titles/:title_id/reviews"))
	handler.NewCommentHandler(svc.Comments).RegisterRoutes(api.Group("/titles/:title_id/reviews/:review_id/comments"))

	return router
}
