package internal

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

func Env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("missing env: %s", key)
	}
	return v
}

// EnvAs parses key with parse. Unset keys yield def; malformed values are
// logged and yield def as well.
func EnvAs[T any](key string, def T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		log.Printf("invalid %s: %q, using default", key, raw)
		return def
	}
	return v
}

func EnvInt(key string, def int) int {
	return EnvAs(key, def, strconv.Atoi)
}

func EnvBool(key string, def bool) bool {
	return EnvAs(key, def, strconv.ParseBool)
}

func EnvDuration(key string, def time.Duration) time.Duration {
	return EnvAs(key, def, time.ParseDuration)
}
