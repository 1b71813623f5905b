// internal/app/router.go
package app

import (
	eventsHandler "crm-service/internal/handlers/events"
	leadHandler "crm-service/internal/handlers/lead"
	userHandler "crm-service/internal/handlers/user"
	"crm-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	LeadHandler    *leadHandler.LeadHandler
	UserHandler    *userHandler.UserHandler
	WSHandler      *eventsHandler.WebSocketHandler
	AuthMiddleware *middleware.AuthMiddleware
	IntakeLimit    gin.HandlerFunc
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)
	api.GET("/ws/stats", h.AuthMiddleware.Auth(), h.WSHandler.GetStats)

	// ==================== Public Intake ====================
	api.POST("/leads/public", h.IntakeLimit, h.LeadHandler.CreatePublicLead)

	// ==================== Leads ====================
	leads := api.Group("/leads")
	leads.Use(h.AuthMiddleware.Auth())
	{
		leads.GET("", h.LeadHandler.ListLeads)
		leads.GET("/stats", h.LeadHandler.GetStats)
		leads.GET("/:id", h.LeadHandler.GetLead)
		leads.POST("", h.LeadHandler.CreateLead)
		leads.PUT("/:id", h.LeadHandler.UpdateLead)
		leads.PATCH("/:id/status", h.LeadHandler.UpdateStatus)
		leads.DELETE("/:id", h.LeadHandler.DeleteLead)

		leads.POST("/:id/notes", h.LeadHandler.AddNote)
		leads.DELETE("/:id/notes/:noteId", h.LeadHandler.DeleteNote)
	}

	// ==================== Users ====================
	users := api.Group("/users")
	users.Use(h.AuthMiddleware.Auth())
	{
		users.GET("", h.UserHandler.ListUsers)
	}
}
