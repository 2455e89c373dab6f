package utils

import (
	"os"
	"strconv"
	"sync"
)

// envCache stores previously fetched non-empty environment variable values so
// repeat lookups avoid the relatively expensive syscall interaction.
var envCache sync.Map // map[string]string

// getEnv retrieves the value for key from the cache or the environment.
// Only non-empty values are cached.
func getEnv(key string) (string, bool) {
	if v, ok := envCache.Load(key); ok {
		return v.(string), true
	}
	if v := os.Getenv(key); v != "" {
		envCache.Store(key, v)
		return v, true
	}
	return "", false
}

// ClearEnvCache removes any cached value for key. Used in tests where
// environment variables are modified between calls.
func ClearEnvCache(key string) {
	envCache.Delete(key)
}

// EnvString returns the environment variable's value or def if unset/empty.
func EnvString(key, def string) string {
	if v, ok := getEnv(key); ok {
		return v
	}
	return def
}

// EnvInt returns the environment variable parsed as an int, or def if unset
// or unparseable.
func EnvInt(key string, def int) int {
	v, ok := getEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
