package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultLimit  = 5
	DefaultWindow = time.Minute
	DefaultPrefix = "sniply:ratelimit:"
)

// Limiter is a fixed-window counter kept in redis. The first hit of a window
// starts its expiry; hits past Limit are rejected until the key expires.
type Limiter struct {
	Client *redis.Client
	Prefix string
	Limit  int
	Window time.Duration
}

// hit increments the window counter and returns {count, remaining ms}.
var hit = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

func (l *Limiter) settings() (prefix string, limit int, window time.Duration) {
	prefix, limit, window = l.Prefix, l.Limit, l.Window
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return prefix, limit, window
}

// Allow reports whether key may proceed and, when it may not, how long until
// the window resets. A nil Client allows everything.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l.Client == nil {
		return true, 0, nil
	}
	prefix, limit, window := l.settings()

	reply, err := hit.Run(ctx, l.Client, []string{prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("ratelimit %s: %w", key, err)
	}
	return verdict(reply, limit)
}

func verdict(reply []int64, limit int) (bool, time.Duration, error) {
	if len(reply) != 2 {
		return false, 0, fmt.Errorf("ratelimit: unexpected script reply %v", reply)
	}
	count, ttl := reply[0], max(reply[1], 0)
	if count <= int64(limit) {
		return true, 0, nil
	}
	return false, time.Duration(ttl) * time.Millisecond, nil
}
