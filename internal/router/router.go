package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-assist/internal/handler"
	"github.com/ashwinyue/next-assist/internal/middleware"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers, tokens middleware.TokenParser, origins []string) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware(origins))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RequireAuth(tokens))
	{
		// Assistant 助手
		assistant := v1.Group("/assistant")
		{
			assistant.POST("/session", h.Assistant.StartSession)
			assistant.GET("/session", h.Assistant.GetSession)
			assistant.DELETE("/session", h.Assistant.EndSession)
			assistant.POST("/messages", h.Assistant.SendMessage)
			assistant.POST("/actions", h.Assistant.HandleAction)
			assistant.POST("/clear", h.Assistant.ClearConversation)
			assistant.POST("/feedback", h.Assistant.Feedback)
			assistant.GET("/menu", h.Assistant.Menu)

			assistant.GET("/config", h.Tenant.GetAssistantConfig)
			assistant.PUT("/config", h.Tenant.UpdateAssistantConfig)

			assistant.GET("/archive", h.Assistant.ListArchive)
			assistant.GET("/archive/:id", h.Assistant.GetArchive)
			assistant.POST("/archive/:id/load", h.Assistant.LoadArchive)
			assistant.DELETE("/archive/:id", h.Assistant.DeleteArchive)
		}
	}

	return r
}
