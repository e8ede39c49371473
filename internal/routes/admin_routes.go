package routes

import (
	"mkopo_loans/internal/controllers"
	"mkopo_loans/internal/middleware"

	"github.com/gin-gonic/gin"
)

func AdminRoutes(r *gin.Engine) {
	admin := r.Group("/admin")

	// The feed authenticates via query token inside the handler because
	// browsers cannot attach headers to a WebSocket handshake.
	admin.GET("/feed", controllers.AdminFeed)

	admin.Use(middleware.RequireAuthWithRole("admin"))
	{
		admin.GET("/loans", controllers.ListLoans)
		admin.POST("/loans/:id/approve", controllers.ApproveLoan)
		admin.POST("/loans/:id/reject", controllers.RejectLoan)
		admin.GET("/users", controllers.ListBorrowers)
	}
}
