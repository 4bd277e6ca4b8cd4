package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration for both services.
type Config struct {
	CalendarPort string
	ChatPort     string
	Env          string
	LogLevel     string

	// Clinic schedule
	Timezone         string
	WorkingHoursJSON string

	// Google Calendar backend
	CalendarID       string
	CredentialsFile  string
	LookaheadDays    int
	DefaultDuration  int
	DefaultSlotLimit int
	UpstreamTimeout  time.Duration

	// Gemini
	GeminiAPIKey            string
	GeminiExtractorModel    string
	GeminiConversationModel string

	// Chat front-end
	CalendarServiceURL string
	SessionTTL         time.Duration
	RedisAddr          string
	RedisPassword      string

	CORSAllowedOrigins string
	ChatRateLimitRPS   int
	ChatRateLimitBurst int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		CalendarPort: getEnv("CALENDAR_PORT", "5001"),
		ChatPort:     getEnv("CHAT_PORT", "5000"),
		Env:          getEnv("ENV", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		Timezone:         getEnv("CLINIC_TIMEZONE", "Asia/Jerusalem"),
		WorkingHoursJSON: getEnv("WORKING_HOURS_JSON", ""),

		CalendarID:       getEnv("CALENDAR_ID", ""),
		CredentialsFile:  getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		LookaheadDays:    getEnvAsInt("SLOT_LOOKAHEAD_DAYS", 30),
		DefaultDuration:  getEnvAsInt("DEFAULT_SLOT_MINUTES", 30),
		DefaultSlotLimit: getEnvAsInt("DEFAULT_SLOT_LIMIT", 3),
		UpstreamTimeout:  getEnvAsDuration("CALENDAR_TIMEOUT", 20*time.Second),

		GeminiAPIKey:            getEnv("GEMINI_API_KEY", ""),
		GeminiExtractorModel:    getEnv("GEMINI_EXTRACTOR_MODEL", "gemini-2.0-flash"),
		GeminiConversationModel: getEnv("GEMINI_CONVERSATION_MODEL", "gemini-2.0-flash"),

		CalendarServiceURL: getEnv("CALENDAR_SERVICE_URL", "http://localhost:5001"),
		SessionTTL:         getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		ChatRateLimitRPS:   getEnvAsInt("CHAT_RATE_LIMIT_RPS", 2),
		ChatRateLimitBurst: getEnvAsInt("CHAT_RATE_LIMIT_BURST", 5),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
