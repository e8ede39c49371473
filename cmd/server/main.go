package main

import (
	"log"
	"net/http"
	"os"

	"mkopo_loans/internal/config"
	"mkopo_loans/internal/logger"
	"mkopo_loans/internal/middleware"
	"mkopo_loans/internal/routes"

)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	// Select and bind the store driver (memory or Postgres)
	config.InitStores()

	// Setup Gin router (recovery + request logging included)
	r := routes.SetupRouter()

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Server running at :%s", port)
	log.Fatal(http.ListenAndServe("0.0.0.0:"+port, handler))
}
