package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/neibo-app/neibo/internal/handlers"
	"github.com/neibo-app/neibo/internal/middleware"
	"github.com/neibo-app/neibo/internal/tokens"
)

type Deps struct {
	DB            *gorm.DB
	Tokens        *tokens.Service
	AuthHandler   *handlers.AuthHandler
	WalkHandler   *handlers.WalkHandler
	UserHandler   *handlers.UserHandler
	SearchHandler *handlers.SearchHandler
	AIHandler     *handlers.AIHandler

	Redis    *redis.Client
	CacheTTL time.Duration
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health", handlers.Health)

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)

	requireAuth := middleware.RequireAuth(d.Tokens)
	cached := middleware.ReadCache(d.Redis, d.CacheTTL)

	walks := api.Group("/walks")
	walks.GET("", d.WalkHandler.GetWalks, cached)
	walks.GET("/search", d.SearchHandler.SearchWalks)
	walks.GET("/:id", d.WalkHandler.GetWalk, cached)
	walks.GET("/:id/comments", d.WalkHandler.GetComments)
	walks.GET("/:id/reviews", d.WalkHandler.GetReviews)

	walks.POST("", d.WalkHandler.CreateWalk, requireAuth)
	walks.PUT("/:id", d.WalkHandler.UpdateWalk, requireAuth)
	walks.DELETE("/:id", d.WalkHandler.DeleteWalk, requireAuth)
	walks.POST("/:id/comments", d.WalkHandler.CreateComment, requireAuth)
	walks.POST("/:id/reviews", d.WalkHandler.CreateReview, requireAuth)
	walks.POST("/:id/subscribe", d.WalkHandler.Subscribe, requireAuth)

	users := api.Group("/users", requireAuth)
	users.GET("/walks", d.UserHandler.GetOwnWalks)

	ai := api.Group("/ai", requireAuth)
	ai.POST("/create-tour", d.AIHandler.CreateTour)
}
