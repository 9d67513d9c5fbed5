package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	SkipAuth    bool
	Environment string
	AppId       string
	CORSOrigins string

	// Document backend (Frappe-style REST API)
	BackendURL       string
	BackendAPIKey    string
	BackendAPISecret string
	BackendTimeout   time.Duration

	// Import workflow
	PollInterval         time.Duration
	PollRetryDelay       time.Duration
	PollMaxRetries       int // 0 means retry forever
	SessionTTL           time.Duration
	SessionSweepSchedule string
	MaxUploadMB          int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:      getEnv("DB_NAME", "crm-import"),
		SkipAuth:    getEnv("SKIP_AUTH", "false") == "true",
		Environment: getEnv("ENVIRONMENT", "development"),
		AppId:       getEnv("APP_ID", "crm-import"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000, http://localhost:5173"),

		BackendURL:       getEnv("BACKEND_URL", "http://localhost:8000"),
		BackendAPIKey:    getEnv("BACKEND_API_KEY", ""),
		BackendAPISecret: getEnv("BACKEND_API_SECRET", ""),
		BackendTimeout:   getDuration("BACKEND_TIMEOUT", 60*time.Second),

		PollInterval:         getDuration("POLL_INTERVAL", 2*time.Second),
		PollRetryDelay:       getDuration("POLL_RETRY_DELAY", 5*time.Second),
		PollMaxRetries:       getInt("POLL_MAX_RETRIES", 0),
		SessionTTL:           getDuration("SESSION_TTL", 2*time.Hour),
		SessionSweepSchedule: getEnv("SESSION_SWEEP_SCHEDULE", "*/10 * * * *"),
		MaxUploadMB:          getInt("MAX_UPLOAD_MB", 10),
	}, nil
}

// IsProduction reports whether the service runs with production logging.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s (%q), using %s", key, value, fallback)
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s (%q), using %d", key, value, fallback)
		return fallback
	}
	return n
}
