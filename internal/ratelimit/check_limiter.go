package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/briarworks/briarkeep/internal/config"
)

const (
	keyCheckCaller = "entitlement:check:%s"
	keyIngestLock  = "subscription:ingest:%s:%s"
)

// CheckLimiter throttles entitlement lookups per API key and serializes
// subscription ingest per provider record. A nil limiter (rate limiting
// disabled) allows everything.
type CheckLimiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker

	checkRate  float64
	checkBurst int
	lockTTL    time.Duration
}

func NewCheckLimiter(cfg config.Config) (*CheckLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.CheckRate <= 0 || limitCfg.CheckBurst <= 0 {
		return nil, errors.New("check rate limit must be positive")
	}
	if limitCfg.IngestLockTTLSeconds <= 0 {
		return nil, errors.New("ingest lock ttl must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &CheckLimiter{
		enabled:    true,
		bucket:     NewTokenBucket(client),
		locker:     NewLocker(client),
		checkRate:  limitCfg.CheckRate,
		checkBurst: limitCfg.CheckBurst,
		lockTTL:    time.Duration(limitCfg.IngestLockTTLSeconds) * time.Second,
	}, nil
}

func (l *CheckLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowCheck rate-limits entitlement resolution for one caller key.
func (l *CheckLimiter) AllowCheck(ctx context.Context, callerID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyCheckCaller, strings.TrimSpace(callerID)), l.checkRate, l.checkBurst)
}

// TryLockIngest claims the ingest lock for one provider subscription.
func (l *CheckLimiter) TryLockIngest(ctx context.Context, provider, providerSubscriptionID string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	key := fmt.Sprintf(keyIngestLock, strings.TrimSpace(provider), strings.TrimSpace(providerSubscriptionID))
	return l.locker.TryLock(ctx, key, l.lockTTL)
}

func (l *CheckLimiter) ReleaseIngest(ctx context.Context, provider, providerSubscriptionID, token string) error {
	if !l.Enabled() {
		return nil
	}
	key := fmt.Sprintf(keyIngestLock, strings.TrimSpace(provider), strings.TrimSpace(providerSubscriptionID))
	return l.locker.Release(ctx, key, token)
}
