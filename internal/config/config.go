package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    string
	Environment string
	DatabaseURL string

	JWTSecret string

	GeminiAPIKey  string
	PixabayAPIKey string

	RazorpayKeyID     string
	RazorpayKeySecret string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	AppName      string

	OTPExpiryMinutes  int
	CORSAllowedOrigin string
}

// Load reads .env (if present) and the environment. Every secret the server
// needs is checked here so a missing key fails at startup instead of on the
// first request that happens to need it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		Environment:       getEnv("APP_ENV", "development"),
		DatabaseURL:       getEnv("DATABASE_URL", "novamind.db"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		PixabayAPIKey:     getEnv("PIXABAY_API_KEY", ""),
		RazorpayKeyID:     getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
		SMTPHost:          getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:          getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:          getEnv("SMTP_USER", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		AppName:           getEnv("APP_NAME", "NovaMind"),
		OTPExpiryMinutes:  getEnvAsInt("OTP_EXPIRY_MINUTES", 10),
		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "*"),
	}

	required := []struct {
		name  string
		value string
	}{
		{"JWT_SECRET", cfg.JWTSecret},
		{"GEMINI_API_KEY", cfg.GeminiAPIKey},
		{"PIXABAY_API_KEY", cfg.PixabayAPIKey},
		{"RAZORPAY_KEY_ID", cfg.RazorpayKeyID},
		{"RAZORPAY_KEY_SECRET", cfg.RazorpayKeySecret},
		{"SMTP_USER", cfg.SMTPUser},
		{"SMTP_PASSWORD", cfg.SMTPPassword},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, fmt.Errorf("%s environment variable is required", r.name)
		}
	}

	return cfg, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
