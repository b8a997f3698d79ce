// Package ratelimit is a Redis fixed-window counter keyed by client.
package ratelimit

import (
	"context"
	"strconv"
	"time"

	"loan-intake/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// Result describes one Allow decision.
type Result struct {
	Allowed    bool
	Count      int64
	Remaining  int64
	RetryAfter time.Duration
}

type Limiter struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
	prefix string
	now    func() time.Time
	logger logger.Logger
}

func New(client redis.Cmdable, limit int, window time.Duration, log logger.Logger) *Limiter {
	return &Limiter{
		client: client,
		limit:  int64(limit),
		window: window,
		prefix: "ratelimit:",
		now:    time.Now,
		logger: log.WithFields(map[string]interface{}{"component": "ratelimit"}),
	}
}

// Key is the Redis key for subject in the window containing t.
func (l *Limiter) Key(subject string, t time.Time) string {
	bucket := t.UnixNano() / int64(l.window)
	return l.prefix + subject + ":" + strconv.FormatInt(bucket, 10)
}

// Allow counts one hit for subject. Backend errors fail open.
func (l *Limiter) Allow(ctx context.Context, subject string) Result {
	now := l.now()
	key := l.Key(subject, now)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("rate limiter unavailable, allowing request", map[string]interface{}{
			"subject": subject,
			"error":   err,
		})
		return Result{Allowed: true, Remaining: l.limit}
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			l.logger.Warn("rate limiter expire failed", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		}
	}

	res := Result{Count: count, Remaining: l.limit - count}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if count <= l.limit {
		res.Allowed = true
		return res
	}

	windowEnd := time.Unix(0, (now.UnixNano()/int64(l.window)+1)*int64(l.window))
	res.RetryAfter = windowEnd.Sub(now)
	return res
}
