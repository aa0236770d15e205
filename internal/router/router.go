package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cinetalk/internal/handlers"
	"cinetalk/internal/middleware"
	"cinetalk/internal/services"
	"cinetalk/internal/store"
)

// RegisterRoutes wires services and handlers onto the engine. The store
// holds the discussion tree; gormDB holds accounts and reveal flags.
func RegisterRoutes(r *gin.Engine, st store.Store, gormDB *gorm.DB) {
	// Services
	notify := services.NewNotificationService(st)
	feed := services.NewFeedService(st)
	threads := services.NewDiscussionService(st, notify, feed)
	mail := services.NewMailService()
	replies := services.NewReplyService(st, notify, feed, mail)
	reconcile := services.NewReconciler(st)
	spoilers := services.NewSpoilerService(services.NewGormRevealStore(gormDB))

	// Handlers
	authHandler := handlers.NewAuthHandler()
	discussionHandler := handlers.NewDiscussionHandler(threads, feed)
	replyHandler := handlers.NewReplyHandler(replies, reconcile)
	notificationHandler := handlers.NewNotificationHandler(notify)
	feedHandler := handlers.NewFeedHandler(feed)
	spoilerHandler := handlers.NewSpoilerHandler(spoilers)

	r.Use(middleware.LoadUser(notify))

	api := r.Group("/api")

	// Auth
	api.POST("/signup", authHandler.Signup)
	api.POST("/login", authHandler.Login)
	api.POST("/logout", authHandler.Logout)

	// Public reads
	item := api.Group("/items/:itemType/:itemId")
	{
		item.GET("/discussions", discussionHandler.List)
		item.GET("/discussions/stream", discussionHandler.Stream)
		item.GET("/discussions/:discussionId", discussionHandler.Get)
	}
	api.GET("/discussions/:discussionId/replies", replyHandler.List)
	api.GET("/discussions/:discussionId/replies/stream", replyHandler.Stream)
	api.GET("/feed", feedHandler.List)
	api.GET("/feed/stream", feedHandler.Stream)

	// Writes require a session
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/items/:itemType/:itemId/discussions", discussionHandler.Create)
		authorized.PATCH("/items/:itemType/:itemId/discussions/:discussionId", discussionHandler.Edit)
		authorized.DELETE("/items/:itemType/:itemId/discussions/:discussionId", discussionHandler.Delete)
		authorized.POST("/items/:itemType/:itemId/discussions/:discussionId/like", discussionHandler.ToggleLike)

		authorized.POST("/items/:itemType/:itemId/discussions/:discussionId/replies", replyHandler.Create)
		authorized.DELETE("/items/:itemType/:itemId/discussions/:discussionId/replies/:replyId", replyHandler.Delete)
		authorized.PATCH("/discussions/:discussionId/replies/:replyId", replyHandler.Edit)
		authorized.POST("/discussions/:discussionId/replies/:replyId/like", replyHandler.ToggleLike)

		authorized.GET("/notifications", notificationHandler.List)
		authorized.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		authorized.POST("/notifications/:id/read", notificationHandler.Read)
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll)

		authorized.GET("/spoilers/revealed", spoilerHandler.Revealed)
		authorized.POST("/spoilers/reveal", spoilerHandler.Reveal)
	}
}
