package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/timeoff/internal/config"
	"go.uber.org/zap"
)

const keyLoginAttempts = "timeoff:login:%s:%s"

// LoginLimiter throttles password attempts per client address and email.
// A nil limiter allows everything.
type LoginLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
	log    *zap.Logger
}

func NewLoginLimiter(bucket *TokenBucket, cfg config.Config, log *zap.Logger) *LoginLimiter {
	if bucket == nil || cfg.LoginAttemptsPerMinute <= 0 {
		return nil
	}
	return &LoginLimiter{
		bucket: bucket,
		rate:   float64(cfg.LoginAttemptsPerMinute) / 60,
		burst:  cfg.LoginAttemptsPerMinute,
		log:    log.Named("ratelimit.login"),
	}
}

// Allow reports whether another attempt may be made and, if not, how long
// the caller should wait. Redis failures let the attempt through.
func (l *LoginLimiter) Allow(ctx context.Context, clientIP, email string) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	res, err := l.bucket.Allow(ctx, loginKey(clientIP, email), l.rate, l.burst)
	if err != nil {
		l.log.Warn("login rate limit check failed", zap.Error(err))
		return true, 0
	}
	return res.Allowed, res.RetryAfter
}

func loginKey(clientIP, email string) string {
	return fmt.Sprintf(keyLoginAttempts, strings.TrimSpace(clientIP), strings.ToLower(strings.TrimSpace(email)))
}
