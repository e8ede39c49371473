package routes

import (
	"mkopo_loans/internal/controllers"
	"mkopo_loans/internal/middleware"

	"github.com/gin-gonic/gin"
)

func LoanRoutes(r *gin.Engine) {
	loans := r.Group("/loans")
	loans.Use(middleware.RequireAuth())
	{
		loans.POST("/estimate", controllers.EstimatePayment)
		loans.GET("", controllers.GetMyLoans)
		loans.GET("/:id/payments", controllers.GetLoanPayments)

		// Application wizard
		loans.POST("/application", controllers.StartApplication)
		loans.GET("/application", controllers.GetApplication)
		loans.PUT("/application", controllers.UpdateApplication)
		loans.POST("/application/next", controllers.AdvanceApplication)
		loans.POST("/application/back", controllers.BackApplication)
		loans.POST("/application/submit", controllers.SubmitApplication)
		loans.DELETE("/application", controllers.AbandonApplication)
	}
}
