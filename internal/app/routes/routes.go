package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jdon/coffeechat/internal/app/controllers"
	"github.com/jdon/coffeechat/internal/app/models/dto"
	"github.com/jdon/coffeechat/internal/middleware"
	"github.com/jdon/coffeechat/internal/pkg/websocket"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	coffeeChatController *controllers.CoffeeChatController,
	jobCategoryController *controllers.JobCategoryController,
	eventHandler *websocket.Handler,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	v1.GET("/job-categories", jobCategoryController.ListJobCategories)

	coffeeChats := v1.Group("/coffeechats")

	// Reads are open to anonymous callers; a token only adds viewer flags
	public := coffeeChats.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		public.GET("", coffeeChatController.ListCoffeeChats)
		public.GET("/:id", coffeeChatController.GetCoffeeChat)
	}

	// --- Authenticated routes ---
	authenticated := coffeeChats.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.GET("/guest", coffeeChatController.ListMyAppliedChats)
		authenticated.GET("/host", coffeeChatController.ListMyHostedChats)
		authenticated.GET("/events", eventHandler.HandleConnection)

		authenticated.POST("", coffeeChatController.CreateCoffeeChat)
		authenticated.PUT("/:id", coffeeChatController.UpdateCoffeeChat)
		authenticated.DELETE("/:id", coffeeChatController.DeleteCoffeeChat)

		// Matching workflow
		authenticated.POST("/:id", coffeeChatController.ApplyCoffeeChat)
		authenticated.POST("/:id/confirm", coffeeChatController.ConfirmCoffeeChat)
		authenticated.POST("/:id/reject", coffeeChatController.RejectCoffeeChat)
		authenticated.POST("/:id/cancel", coffeeChatController.CancelCoffeeChat)
		authenticated.POST("/:id/complete", coffeeChatController.CompleteCoffeeChat)
		authenticated.POST("/:id/reopen", coffeeChatController.ReopenCoffeeChat)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{
			"status": "ok",
			"time":   time.Now().UTC(),
		}))
	})

	// Not found handler
	router.NoRoute(func(c *gin.Context) {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Endpoint not found").
			WithDetails(c.Request.Method + " " + c.Request.URL.Path)
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(errorDetail))
	})
}
