package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port   string
	JWTKey string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	// Deadline sweep schedule (cron spec) and staleness threshold in days.
	SweepCronSpec  string
	StaleAfterDays int

	// Outbox dispatcher poll interval (cron spec).
	OutboxPollSpec    string
	OutboxMaxAttempts int

	SendgridApiKey string
	EmailSender    string
	EmailFromName  string

	SmsApiUrl string
	SmsApiKey string
	SmsSender string
}

// Load initializes configuration from environment variables or defaults
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	cfg := &Config{
		Port:   getEnv("PORT", "3000"),
		JWTKey: getEnv("JWT_SECRET_KEY", "defaultSecret"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "lms"),
		DBPort:     getEnv("DB_PORT", "5432"),

		SweepCronSpec:  getEnv("SWEEP_CRON_SPEC", "0 9 * * *"),
		StaleAfterDays: getEnvInt("STALE_AFTER_DAYS", 3),

		OutboxPollSpec:    getEnv("OUTBOX_POLL_SPEC", "@every 30s"),
		OutboxMaxAttempts: getEnvInt("OUTBOX_MAX_ATTEMPTS", 5),

		SendgridApiKey: getEnv("SENDGRID_API_KEY", ""),
		EmailSender:    getEnv("EMAIL_SENDER", "no-reply@lessonhub.io"),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "LessonHub"),

		SmsApiUrl: getEnv("SMS_API_URL", ""),
		SmsApiKey: getEnv("SMS_API_KEY", ""),
		SmsSender: getEnv("SMS_SENDER_ID", "LESSON"),
	}

	// Validate critical configuration
	if cfg.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if cfg.SendgridApiKey == "" {
		log.Println("Warning: SENDGRID_API_KEY not set. Missed-lesson emails will fail to send.")
	}

	return cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
