package routes

import (
	"support-chat-service/internal/api/handlers"
	"support-chat-service/internal/api/middleware"
	"support-chat-service/internal/auth"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, h *handlers.Handlers, jwtManager *auth.Manager) {
	authMiddleware := middleware.AuthMiddleware(jwtManager)

	api := router.Group("/api/v1")
	{
		docs := api.Group("/documents")
		docs.Use(authMiddleware)
		{
			docs.POST("", h.UploadDocument)
			docs.GET("", h.ListDocuments)
			docs.GET("/:id", h.GetDocument)
			docs.PUT("/:id", h.UpdateDocument)
			docs.DELETE("/:id", h.DeleteDocument)
			docs.POST("/:id/reprocess", h.ReprocessDocument)
		}

		conversations := api.Group("/conversations")
		conversations.Use(authMiddleware)
		{
			conversations.POST("", h.CreateConversation)
			conversations.GET("", h.ListConversations)
			conversations.GET("/:id", h.GetConversation)
			conversations.DELETE("/:id", h.DeleteConversation)
			conversations.DELETE("/:id/messages", h.ClearMessages)
			conversations.POST("/:id/messages", h.SendMessage)
			conversations.POST("/:id/stream", h.StreamMessage)
		}

		faqs := api.Group("/faqs")
		faqs.Use(authMiddleware)
		{
			faqs.POST("", h.CreateFAQ)
			faqs.GET("", h.ListFAQs)
			faqs.GET("/:id", h.GetFAQ)
			faqs.PUT("/:id", h.UpdateFAQ)
			faqs.DELETE("/:id", h.DeleteFAQ)
		}
	}

	router.GET("/healthz", h.Health)
	router.GET("/readyz", h.Ready)
}
