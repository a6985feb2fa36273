// Package config loads runtime settings from the environment. A .env file in
// the working directory is read first when present; real environment
// variables always win over it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type PaymentMode string

const (
	PaymentModePaystack PaymentMode = "paystack"
	PaymentModeNone     PaymentMode = "none"
)

type Config struct {
	ServiceName string
	Env         string
	LogLevel    string
	LogFile     string

	HTTP     HTTP
	Session  Session
	Payment  Payment
	Paystack Paystack
}

type HTTP struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type Session struct {
	CookieName   string
	CookieSecure bool
}

type Payment struct {
	Mode PaymentMode
	// CallbackBaseURL is the public origin the gateway redirects to, e.g.
	// https://shop.example.com. The callback path is appended to it.
	CallbackBaseURL string
	CustomerEmail   string
	Timeout         time.Duration
	// ReplayTTL is how long a settled callback outcome is remembered, so a
	// reloaded callback page shows the same result.
	ReplayTTL time.Duration
}

type Paystack struct {
	BaseURL   string
	SecretKey string
}

// PaymentConfigured reports whether both the credential and the callback address
// needed to open a transaction are present.
func (c Config) PaymentConfigured() bool {
	return c.Paystack.SecretKey != "" && c.Payment.CallbackBaseURL != ""
}

// Load reads the configuration, seeding the environment from the given .env
// files (default ".env"). Missing .env files are not an error.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, which behaves like os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	r := reader{lookup: lookup}

	addr := r.str("HTTP_ADDR", "")
	if addr == "" {
		addr = ":" + r.str("PORT", "4000")
	}

	cfg := Config{
		ServiceName: r.str("SERVICE_NAME", "minishop-chatbot"),
		Env:         r.str("ENV", "dev"),
		LogLevel:    r.str("LOG_LEVEL", "info"),
		LogFile:     r.str("LOG_FILE", ""),
		HTTP: HTTP{
			Addr:            addr,
			ShutdownTimeout: r.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Session: Session{
			CookieName:   r.str("SESSION_COOKIE_NAME", "sessionId"),
			CookieSecure: r.boolean("SESSION_COOKIE_SECURE", false),
		},
		Payment: Payment{
			Mode:            PaymentMode(strings.ToLower(r.str("PAYMENT_MODE", string(PaymentModePaystack)))),
			CallbackBaseURL: strings.TrimSuffix(r.str("CALLBACK_BASE_URL", r.str("BASE_URL", "")), "/"),
			CustomerEmail:   r.str("PAYSTACK_CUSTOMER_EMAIL", "customer@example.com"),
			Timeout:         r.duration("PAYSTACK_TIMEOUT", 10*time.Second),
			ReplayTTL:       r.duration("PAYMENT_REPLAY_TTL", 15*time.Minute),
		},
		Paystack: Paystack{
			BaseURL:   strings.TrimSuffix(r.str("PAYSTACK_BASE_URL", "https://api.paystack.co"), "/"),
			SecretKey: r.str("PAYSTACK_SECRET_KEY", ""),
		},
	}

	switch cfg.Payment.Mode {
	case PaymentModePaystack, PaymentModeNone:
	default:
		r.fail("PAYMENT_MODE", fmt.Errorf("unknown mode %q", cfg.Payment.Mode))
	}
	if cfg.Payment.Timeout <= 0 {
		r.fail("PAYSTACK_TIMEOUT", errors.New("must be positive"))
	}
	if cfg.Payment.ReplayTTL <= 0 {
		r.fail("PAYMENT_REPLAY_TTL", errors.New("must be positive"))
	}

	if len(r.errs) > 0 {
		return Config{}, errors.Join(r.errs...)
	}
	return cfg, nil
}

type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) str(key, def string) string {
	if v, ok := r.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return d
}

func (r *reader) boolean(key string, def bool) bool {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return b
}

func (r *reader) fail(key string, err error) {
	r.errs = append(r.errs, fmt.Errorf("config: %s: %w", key, err))
}
