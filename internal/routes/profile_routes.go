package routes

import (
	"mkopo_loans/internal/controllers"
	"mkopo_loans/internal/middleware"

	"github.com/gin-gonic/gin"
)

func ProfileRoutes(r *gin.Engine) {
	profile := r.Group("/profile")
	profile.Use(middleware.RequireAuth())
	{
		profile.GET("", controllers.GetMyProfile)
		profile.PUT("", controllers.UpdateMyProfile)
	}
}
