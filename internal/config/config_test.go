package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("GEMINI_API_KEY", "g")
	t.Setenv("PIXABAY_API_KEY", "p")
	t.Setenv("RAZORPAY_KEY_ID", "rk")
	t.Setenv("RAZORPAY_KEY_SECRET", "rs")
	t.Setenv("SMTP_USER", "mail@example.com")
	t.Setenv("SMTP_PASSWORD", "pw")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "novamind.db", cfg.DatabaseURL)
	assert.Equal(t, 10, cfg.OTPExpiryMinutes)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, "*", cfg.CORSAllowedOrigin)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("OTP_EXPIRY_MINUTES", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 5, cfg.OTPExpiryMinutes)
}

func TestLoadFailsOnMissingSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}
