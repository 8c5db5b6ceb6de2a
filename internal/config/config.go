package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI        string
	DBName          string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// AdminEmails always resolve to role=admin regardless of the stored
	// profile row. Operational recovery hatch.
	AdminEmails []string

	GeminiAPIKey string
	RedisAddr    string

	// ProfileFetchTimeout bounds how long identity resolution waits for the
	// authoritative profile before falling back to session claims.
	ProfileFetchTimeout time.Duration
	// AuthLoadCeiling is the hard ceiling after which resolution returns
	// whatever it has, pending work or not.
	AuthLoadCeiling time.Duration

	SignupCodeTTL time.Duration
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:            getEnvOrDefault("MONGO_URI", ""),
		DBName:              getEnvOrDefault("DB_NAME", "automateiq"),
		JWTSecret:           getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL:      getDurationEnv("ACCESS_TOKEN_TTL", 20, time.Minute),
		RefreshTokenTTL:     getDurationEnv("REFRESH_TOKEN_TTL", 7, 24*time.Hour),
		AdminEmails:         getListEnv("ADMIN_EMAILS", "info@automateiq.xyz,admin@automateiq.xyz"),
		GeminiAPIKey:        getEnvOrDefault("GEMINI_API_KEY", ""),
		RedisAddr:           getEnvOrDefault("REDIS_ADDR", ""),
		ProfileFetchTimeout: getDurationEnv("PROFILE_FETCH_TIMEOUT", 2000, time.Millisecond),
		AuthLoadCeiling:     getDurationEnv("AUTH_LOAD_CEILING", 2500, time.Millisecond),
		SignupCodeTTL:       getDurationEnv("SIGNUP_CODE_TTL", 15, time.Minute),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getListEnv(key, defaultValue string) []string {
	raw := getEnvOrDefault(key, defaultValue)
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.ToLower(strings.TrimSpace(p)); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
