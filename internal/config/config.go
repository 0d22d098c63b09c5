package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all runtime configuration loaded from the environment.
type Config struct {
	Port        string
	MongoURI    string
	DBName      string
	JWTSecret   string
	TokenExpiry time.Duration

	GeminiAPIKey string
	GeminiModel  string

	SMTPHost     string
	SMTPPort     string
	SMTPSender   string
	SMTPPassword string

	SchedulerEnabled bool
	FrontendOrigin   string
}

// LoadConfig reads configuration from a .env file (if present) and the environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, relying on environment variables")
	}

	expiryHours, err := strconv.Atoi(getEnv("TOKEN_EXPIRY_HOURS", "24"))
	if err != nil {
		expiryHours = 24
	}

	schedulerEnabled, err := strconv.ParseBool(getEnv("SCHEDULER_ENABLED", "true"))
	if err != nil {
		schedulerEnabled = true
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:           getEnv("DB_NAME", "fittrack"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		TokenExpiry:      time.Duration(expiryHours) * time.Hour,
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-pro"),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getEnv("SMTP_PORT", "587"),
		SMTPSender:       getEnv("SMTP_SENDER", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SchedulerEnabled: schedulerEnabled,
		FrontendOrigin:   getEnv("FRONTEND_ORIGIN", "http://localhost:3000"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
