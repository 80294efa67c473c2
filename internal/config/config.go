package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	JWTSecret         string // shared secret of the identity provider's HS256 tokens
	MongoURI          string
	DBName            string
	SkipAuth          bool
	Environment       string
	AppId             string
	ProfilesDSN       string // Postgres DSN of the identity provider's profile table, optional
	RedisURL          string // enables cross-instance fan-out of live vote events, optional
	CleanupSchedule   string
	MongoTransactions bool
	AllowedOrigins    string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		JWTSecret:         getEnv("JWT_SECRET", "secret"),
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:            getEnv("DB_NAME", "pikonote"),
		SkipAuth:          getEnv("SKIP_AUTH", "false") == "true",
		Environment:       getEnv("ENVIRONMENT", "development"),
		AppId:             getEnv("APP_ID", "pikonote-backend"),
		ProfilesDSN:       getEnv("PROFILES_DSN", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		CleanupSchedule:   getEnv("CLEANUP_SCHEDULE", "@every 1m"),
		MongoTransactions: getEnv("MONGO_TRANSACTIONS", "true") == "true",
		AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "http://localhost:3000, http://localhost:8081, http://localhost:19006"),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
