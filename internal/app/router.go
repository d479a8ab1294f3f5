// internal/app/router.go
package app

import (
	"net/http"

	billingHandler "inboker-service/internal/handlers/billing"
	bookingHandler "inboker-service/internal/handlers/booking"
	catalogHandler "inboker-service/internal/handlers/catalog"
	crmHandler "inboker-service/internal/handlers/crm"
	profileHandler "inboker-service/internal/handlers/profile"
	teamHandler "inboker-service/internal/handlers/team"
	wsHandler "inboker-service/internal/handlers/websocket"
	workspaceHandler "inboker-service/internal/handlers/workspace"
	"inboker-service/internal/middleware"
	"inboker-service/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	ProfileHandler   *profileHandler.ProfileHandler
	WorkspaceHandler *workspaceHandler.WorkspaceHandler
	ServiceHandler   *catalogHandler.ServiceHandler
	TeamHandler      *teamHandler.TeamHandler
	ClientHandler    *crmHandler.ClientHandler
	BookingHandler   *bookingHandler.BookingHandler
	BillingHandler   *billingHandler.BillingHandler
	WSHandler        *wsHandler.WebSocketHandler
	AuthMiddleware   *middleware.AuthMiddleware
	BookingLimit     gin.HandlerFunc
	Metrics          *metrics.Metrics
	Health           gin.HandlerFunc
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Provider Webhooks ====================
	api.POST("/webhooks/stripe", h.BillingHandler.Webhook)

	// ==================== Scheduler ====================
	api.POST("/cron/trial-reminders", h.BillingHandler.TrialReminders)

	// ==================== Public Booking Pages ====================
	public := api.Group("/public/workspaces/:slug")
	{
		public.GET("", h.WorkspaceHandler.Public)
		public.POST("/bookings", h.BookingLimit, h.AuthMiddleware.OptionalAuth(), h.BookingHandler.Create)
	}

	// ==================== Signed-in Users ====================
	me := api.Group("")
	me.Use(h.AuthMiddleware.Auth())
	{
		me.GET("/me", h.ProfileHandler.Me)
		me.PUT("/me", h.ProfileHandler.UpdateMe)
		me.GET("/dashboard", h.ProfileHandler.Dashboard)
		me.GET("/me/bookings", h.BookingHandler.ListMine)
		me.POST("/me/bookings/:id/cancel", h.BookingHandler.CancelMine)
	}

	// ==================== Billing ====================
	billing := api.Group("/billing")
	billing.Use(h.AuthMiddleware.Auth())
	{
		// Role checks for checkout live in the reconciler so the error shape stays {error}.
		billing.POST("/trial", h.BillingHandler.StartTrial)
		billing.POST("/checkout", h.BillingHandler.StartCheckout)
		billing.GET("/subscription", h.BillingHandler.GetSubscription)
		billing.POST("/subscription", h.BillingHandler.ManageSubscription)
	}

	// ==================== Business Owner ====================
	owner := api.Group("")
	owner.Use(h.AuthMiddleware.OwnerOnly()...)
	{
		owner.POST("/workspaces", h.WorkspaceHandler.Create)
		owner.GET("/workspaces", h.WorkspaceHandler.Get)
		owner.PUT("/workspaces", h.WorkspaceHandler.Update)
	}

	ws := api.Group("/workspace")
	ws.Use(h.AuthMiddleware.OwnerOnly()...)
	{
		services := ws.Group("/services")
		{
			services.POST("", h.ServiceHandler.Create)
			services.GET("", h.ServiceHandler.List)
			services.GET("/:id", h.ServiceHandler.Get)
			services.PUT("/:id", h.ServiceHandler.Update)
			services.DELETE("/:id", h.ServiceHandler.Delete)
		}

		staff := ws.Group("/staff")
		{
			staff.POST("", h.TeamHandler.CreateStaff)
			staff.GET("", h.TeamHandler.ListStaff)
			staff.PUT("/:id", h.TeamHandler.UpdateStaff)
			staff.DELETE("/:id", h.TeamHandler.DeleteStaff)
		}

		shifts := ws.Group("/shifts")
		{
			shifts.POST("", h.TeamHandler.CreateShift)
			shifts.GET("", h.TeamHandler.ListShifts)
			shifts.DELETE("/:id", h.TeamHandler.DeleteShift)
		}

		clients := ws.Group("/clients")
		{
			clients.POST("", h.ClientHandler.Create)
			clients.GET("", h.ClientHandler.List)
			clients.GET("/pipeline", h.ClientHandler.Pipeline)
			clients.GET("/:id", h.ClientHandler.Get)
			clients.PUT("/:id", h.ClientHandler.Update)
			clients.PUT("/:id/stage", h.ClientHandler.MoveStage)
			clients.DELETE("/:id", h.ClientHandler.Delete)
		}

		bookings := ws.Group("/bookings")
		{
			bookings.GET("", h.BookingHandler.List)
			bookings.GET("/:id", h.BookingHandler.Get)
			bookings.PUT("/:id/status", h.BookingHandler.UpdateStatus)
		}
	}

	// ==================== Admin ====================
	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware.AdminOnly()...)
	{
		admin.GET("/subscriptions", h.BillingHandler.ListSubscriptions)
		admin.GET("/subscriptions/stats", h.BillingHandler.GetStats)
		admin.GET("/profiles", h.ProfileHandler.List)
		admin.GET("/ws/stats", h.WSHandler.GetStats)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "route not found"})
	})
}
