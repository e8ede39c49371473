package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"mkopo_loans/internal/models"
	"mkopo_loans/internal/stores"
)

var (
	// DB is the globally accessible database handle. Nil when the
	// in-memory store driver is selected.
	DB *gorm.DB
)

// InitStores loads the environment, selects the store driver and binds
// the store handles. STORE_DRIVER=memory keeps everything in process
// memory (development); anything else connects to Postgres via GORM.
func InitStores() {
	// 1) Load .env (if present)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found – relying on env vars")
	}

	if getEnv("STORE_DRIVER", "postgres") == "memory" {
		mem := stores.NewMemoryStore()
		stores.Init(mem, mem, mem, mem)
		log.Println("Using in-memory stores (STORE_DRIVER=memory)")
		seedAdmin()
		return
	}

	// Load environment variables (with defaults)
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "password")
	dbname := getEnv("DB_NAME", "mkopo")
	sslmode := getEnv("DB_SSLMODE", "disable")
	timezone := getEnv("DB_TIMEZONE", "UTC")

	// Build Data Source Name
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		host, user, password, dbname, port, sslmode, timezone,
	)

	// Open GORM connection
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Auto-migrate the schema
	err = db.AutoMigrate(&models.User{}, &models.Profile{}, &models.Loan{}, &models.Payment{})
	if err != nil {
		log.Fatalf("auto-migration failed: %v", err)
	}

	// Assign to global and bind the stores
	DB = db
	g := stores.NewGormStore(db)
	stores.Init(g, g, g, g)
	seedAdmin()
}

// seedAdmin creates the review-console account from ADMIN_EMAIL and
// ADMIN_PASSWORD. No default credentials are shipped: when the
// variables are absent, no admin exists until one is provisioned.
func seedAdmin() {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set – skipping admin seed")
		return
	}

	if _, err := stores.Users.GetByEmail(email); err == nil {
		return // already provisioned
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("could not hash admin password: %v", err)
	}
	_, err = stores.Users.Create(models.User{
		Name:     "Loan Officer",
		Email:    email,
		Password: string(hash),
		Role:     "admin",
	})
	if err != nil {
		log.Fatalf("could not seed admin account: %v", err)
	}
	log.Printf("seeded admin account %s", email)
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

// GetDB returns the initialized DB handle
func GetDB() *gorm.DB {
	return DB
}
