package chatroomFunctions

import (
	"os"
	"strconv"

	"github.com/chatroomFunctions/pushNotification"
	"github.com/chatroomFunctions/videoRelay"
	"github.com/joho/godotenv"
)

type Config struct {
	ProjectID       string
	DatabaseURL     string
	CredentialsFile string

	MuxTokenID     string
	MuxTokenSecret string
	MuxAssetsURL   string

	PushConcurrency int
	LogLevel        string
}

// LoadConfig reads configuration from the environment, after loading a .env
// file when one is present.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		ProjectID:       os.Getenv("GOOGLE_CLOUD_PROJECT"),
		DatabaseURL:     os.Getenv("FIREBASE_DATABASE_URL"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_FILE"),
		MuxTokenID:      os.Getenv("MUX_TOKEN_ID"),
		MuxTokenSecret:  os.Getenv("MUX_TOKEN_SECRET"),
		MuxAssetsURL:    getEnv("MUX_ASSETS_URL", videoRelay.DefaultAssetsURL),
		PushConcurrency: pushNotification.DefaultConcurrency,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	if cfg.DatabaseURL == "" && cfg.ProjectID != "" {
		cfg.DatabaseURL = "https://" + cfg.ProjectID + ".firebaseio.com"
	}

	if concurrency, err := strconv.Atoi(os.Getenv("PUSH_CONCURRENCY")); err == nil && concurrency > 0 {
		cfg.PushConcurrency = concurrency
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
