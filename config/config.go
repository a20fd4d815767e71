package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// TTL refresh policies for conversation keys.
const (
	// TTLRefreshSliding re-arms the expiry on every write (sliding window).
	TTLRefreshSliding = "sliding"
	// TTLRefreshOnCreate arms the expiry only when the key has none yet.
	TTLRefreshOnCreate = "on-create"
)

// Config carries everything the process needs. Construct it directly in tests;
// FromEnv fills it from the environment for the server.
type Config struct {
	// RedisAddr is the store endpoint: a redis:// / rediss:// URL or a plain
	// host:port. Required.
	RedisAddr string

	// KeyVersion namespaces every derived key. Bump it to cut over to a new
	// key layout without touching old data.
	KeyVersion string

	// ConversationTTL expires message history and metadata. Zero means no
	// expiry. ModelTTL expires the model selection, falling back to
	// ConversationTTL when zero.
	ConversationTTL time.Duration
	ModelTTL        time.Duration

	// TTLRefresh is TTLRefreshSliding or TTLRefreshOnCreate.
	TTLRefresh string

	HTTPPort  string
	JWTSecret string
}

// FromEnv reads configuration from the environment. REDIS_ADDR, REDIS_URI and
// REDIS_URL are accepted in that order.
func FromEnv() Config {
	cfg := Config{
		RedisAddr:       envFirst("REDIS_ADDR", "REDIS_URI", "REDIS_URL"),
		KeyVersion:      os.Getenv("KEY_VERSION"),
		ConversationTTL: envSeconds("CONVERSATION_TTL_SECONDS"),
		ModelTTL:        envSeconds("MODEL_TTL_SECONDS"),
		TTLRefresh:      os.Getenv("TTL_REFRESH"),
		HTTPPort:        os.Getenv("PORT"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
	}
	return cfg.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.KeyVersion == "" {
		c.KeyVersion = "v1"
	}
	if c.TTLRefresh == "" {
		c.TTLRefresh = TTLRefreshSliding
	}
	if c.HTTPPort == "" {
		c.HTTPPort = "8080"
	}
	return c
}

// Validate fails fast on a broken configuration instead of at first use.
func (c Config) Validate() error {
	if c.RedisAddr == "" {
		return errors.New("redis address is not set (REDIS_ADDR, REDIS_URI, or REDIS_URL)")
	}
	switch c.TTLRefresh {
	case TTLRefreshSliding, TTLRefreshOnCreate:
	default:
		return fmt.Errorf("unknown TTL_REFRESH value %q", c.TTLRefresh)
	}
	return nil
}

func envFirst(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func envSeconds(name string) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
