package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ntokareva/groupbuy-backend/internal/config"
	"github.com/ntokareva/groupbuy-backend/internal/http/handlers"
	"github.com/ntokareva/groupbuy-backend/internal/http/middleware"
	"github.com/ntokareva/groupbuy-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	cartHandler *handlers.CartHandler,
	progressHandler *handlers.ProgressHandler,
	notificationHandler *handlers.NotificationHandler,
	pushHandler *handlers.PushHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	authGroup.Use(authRateLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// Публичные маршруты
	api.GET("/carts", cartHandler.ListCarts)
	api.GET("/carts/:id", middleware.UUIDValidator("id"), cartHandler.GetCart)
	api.GET("/ws", wsHandler.Handle)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.POST("/carts", cartHandler.CreateCart)
		protected.GET("/carts/my", cartHandler.ListMyCarts)
		protected.GET("/carts/:id/orders", middleware.UUIDValidator("id"), cartHandler.ListCartOrders)
		protected.POST("/carts/:id/orders", middleware.UUIDValidator("id"), cartHandler.PlaceOrder)
		protected.PUT("/orders/:id", middleware.UUIDValidator("id"), cartHandler.UpdateOrder)
		protected.DELETE("/orders/:id", middleware.UUIDValidator("id"), cartHandler.DeleteOrder)

		progress := protected.Group("/carts/:id/progress/:buyerId",
			middleware.UUIDValidator("id"), middleware.UUIDValidator("buyerId"))
		{
			progress.POST("/payment-proof", progressHandler.SubmitPaymentProof)
			progress.PUT("/status", progressHandler.SetStatus)
			progress.POST("/reject-proof", progressHandler.RejectProof)
			progress.POST("/cancel", progressHandler.Cancel)
			progress.POST("/finalize", progressHandler.Finalize)
			progress.POST("/ack", progressHandler.SellerAck)
		}

		protected.POST("/earnings/recompute", progressHandler.RecomputeEarnings)

		protected.GET("/notifications", notificationHandler.ListNotifications)
		protected.GET("/notifications/unread/count", notificationHandler.CountUnread)
		protected.GET("/notifications/:id", notificationHandler.GetNotification)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.DELETE("/notifications/:id", notificationHandler.DeleteNotification)

		protected.PUT("/push/token", pushHandler.RegisterToken)
		protected.DELETE("/push/token", pushHandler.DeleteToken)
	}

	return r
}
