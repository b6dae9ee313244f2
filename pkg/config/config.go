package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort             string
	FirebaseProject        string
	ServiceAccountJSON     string
	ServiceAccountPath     string
	StorageBucket          string
	Environment            string
	JWTSecret              string
	JWTExpiry              int64
	StoreBackend           string // "firestore" or "memory"
	RoomIDScheme           string // "deterministic" or "generated"
	DisplayLocale          string
	DisplayTimezone        string
	SendRatePerMinute      int
	ProfileLookupBatchSize int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:             getEnv("SERVER_PORT", "8080"),
		FirebaseProject:        getEnv("FIREBASE_PROJECT_ID", ""),
		ServiceAccountJSON:     getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath:     getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		StorageBucket:          getEnv("STORAGE_BUCKET", ""),
		Environment:            getEnv("ENVIRONMENT", "development"),
		JWTSecret:              getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiry:              getEnvAsInt64("JWT_EXPIRY", 24*60*60), // 24 hours
		StoreBackend:           getEnv("STORE_BACKEND", "firestore"),
		RoomIDScheme:           getEnv("ROOM_ID_SCHEME", "deterministic"),
		DisplayLocale:          getEnv("DISPLAY_LOCALE", "ko-KR"),
		DisplayTimezone:        getEnv("DISPLAY_TIMEZONE", "Asia/Seoul"),
		SendRatePerMinute:      int(getEnvAsInt64("SEND_RATE_PER_MINUTE", 30)),
		ProfileLookupBatchSize: int(getEnvAsInt64("PROFILE_LOOKUP_CONCURRENCY", 8)),
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
