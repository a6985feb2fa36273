package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-chatbot/internal/infrastructure/config"
)

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := config.FromEnv(lookupFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, "minishop-chatbot", cfg.ServiceName)
	assert.Equal(t, ":4000", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "sessionId", cfg.Session.CookieName)
	assert.False(t, cfg.Session.CookieSecure)
	assert.Equal(t, config.PaymentModePaystack, cfg.Payment.Mode)
	assert.Equal(t, "https://api.paystack.co", cfg.Paystack.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Payment.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.Payment.ReplayTTL)
	assert.False(t, cfg.PaymentConfigured())
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := config.FromEnv(lookupFrom(map[string]string{
		"PORT":                  "8081",
		"PAYMENT_MODE":          "NONE",
		"BASE_URL":              "https://shop.example.com/",
		"PAYSTACK_SECRET_KEY":   "sk_test_x",
		"PAYSTACK_TIMEOUT":      "3s",
		"SESSION_COOKIE_SECURE": "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.HTTP.Addr)
	assert.Equal(t, config.PaymentModeNone, cfg.Payment.Mode)
	assert.Equal(t, "https://shop.example.com", cfg.Payment.CallbackBaseURL)
	assert.Equal(t, 3*time.Second, cfg.Payment.Timeout)
	assert.True(t, cfg.Session.CookieSecure)
	assert.True(t, cfg.PaymentConfigured())
}

func TestFromEnvHTTPAddrWinsOverPort(t *testing.T) {
	cfg, err := config.FromEnv(lookupFrom(map[string]string{"PORT": "1", "HTTP_ADDR": "127.0.0.1:9000"}))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
}

func TestFromEnvInvalid(t *testing.T) {
	_, err := config.FromEnv(lookupFrom(map[string]string{
		"PAYSTACK_TIMEOUT":      "soon",
		"SESSION_COOKIE_SECURE": "maybe",
		"PAYMENT_MODE":          "cash",
		"PAYMENT_REPLAY_TTL":    "-1m",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYSTACK_TIMEOUT")
	assert.Contains(t, err.Error(), "SESSION_COOKIE_SECURE")
	assert.Contains(t, err.Error(), "PAYMENT_MODE")
	assert.Contains(t, err.Error(), "PAYMENT_REPLAY_TTL")
}

func TestLoadReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SERVICE_NAME=from-dotenv\n"), 0o600))

	t.Setenv("SERVICE_NAME", "")
	require.NoError(t, os.Unsetenv("SERVICE_NAME"))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.ServiceName)
}

func TestLoadMissingFileIsFine(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}
