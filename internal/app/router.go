package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"taxi/internal/handler"
	"taxi/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	UserHandler   *handler.UserHandler
	OrderHandler  *handler.OrderHandler
	DriverHandler *handler.DriverHandler
	RedisClient   *redis.Client
	NewRelicApp   *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Registration and sessions.
		users := v1.Group("/users")
		{
			users.POST("/passengers", deps.UserHandler.RegisterPassenger)
			users.POST("/drivers", deps.UserHandler.RegisterDriver)
		}
		v1.POST("/sessions", deps.UserHandler.Login)

		// Profile routes require a session.
		me := v1.Group("/users/me", middleware.AuthMiddleware())
		{
			me.GET("", deps.UserHandler.GetProfile)
			me.PUT("", deps.UserHandler.UpdateProfile)
			me.DELETE("", deps.UserHandler.DeleteProfile)
		}

		// Order routes.
		orders := v1.Group("/orders")
		{
			orders.POST("/anonymous", deps.OrderHandler.CreateAnonymous)
			orders.POST("/calculate", deps.OrderHandler.Calculate)
			orders.GET("/:id", deps.OrderHandler.Get)
			orders.POST("/:id/cancel", deps.OrderHandler.Cancel)

			authorized := orders.Group("", middleware.AuthMiddleware())
			{
				authorized.POST("", deps.OrderHandler.Create)
				authorized.GET("", deps.OrderHandler.List)
				authorized.GET("/last", deps.OrderHandler.GetLast)
				authorized.POST("/:id/take", deps.OrderHandler.Take)
				authorized.POST("/:id/close", deps.OrderHandler.Close)
			}
		}

		// Driver matching.
		drivers := v1.Group("/drivers", middleware.AuthMiddleware())
		{
			drivers.GET("/orders", deps.DriverHandler.NearbyOrders)
		}
	}

	return router
}
