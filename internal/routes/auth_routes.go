package routes

import (
	"mkopo_loans/internal/controllers"

	"github.com/gin-gonic/gin"
)

func AuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", controllers.SignupUser)
		auth.POST("/login", controllers.LoginUser)
		auth.POST("/logout", controllers.LogoutUser)
		auth.POST("/password-reset", controllers.RequestPasswordReset)
		auth.POST("/password-reset/confirm", controllers.ConfirmPasswordReset)
	}
}
