package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// UserCacheConfig defines settings for the Redis cache in front of the
// public user lookup performed on every authenticated request. When Enabled
// is false or no Redis client is configured, lookups go straight to the store.
type UserCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadUserCacheConfig reads environment variables to build a
// UserCacheConfig. Defaults are used when variables are not set.
func LoadUserCacheConfig() UserCacheConfig {
	cfg := UserCacheConfig{
		Enabled: envBool("USER_CACHE_ENABLED", true),
		TTL:     envDur("USER_CACHE_TTL", 30*time.Second),
		Prefix:  envStr("USER_CACHE_PREFIX", "accounts"),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	return cfg
}

// Lenient readers for optional settings: a bad value falls back to d.

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}
