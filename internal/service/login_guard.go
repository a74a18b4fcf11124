package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginGuardPolicy shapes the escalating cooldown applied to repeated
// credential failures. Attempts beyond FreeAttempts pay BaseDelay growing by
// Multiplier per failure, capped at MaxDelay; a quiet ResetWindow clears the
// counter.
type LoginGuardPolicy struct {
	FreeAttempts int
	BaseDelay    time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	ResetWindow  time.Duration
}

func DefaultLoginGuardPolicy() LoginGuardPolicy {
	return LoginGuardPolicy{
		FreeAttempts: 3,
		BaseDelay:    2 * time.Second,
		Multiplier:   2,
		MaxDelay:     5 * time.Minute,
		ResetWindow:  15 * time.Minute,
	}
}

// RedisLoginGuard tracks credential failures per phone number and per client
// IP. It only throttles the login path before the password check runs; it never
// changes which error the check itself returns.
type RedisLoginGuard struct {
	client redis.UniversalClient
	prefix string
	policy LoginGuardPolicy
}

func NewRedisLoginGuard(client redis.UniversalClient, prefix string, policy LoginGuardPolicy) *RedisLoginGuard {
	if prefix == "" {
		prefix = "login_guard"
	}
	if policy.Multiplier < 1 {
		policy.Multiplier = 1
	}
	return &RedisLoginGuard{client: client, prefix: prefix, policy: policy}
}

// Check returns the remaining cooldown for the identity/IP pair, zero when
// the attempt may proceed.
func (g *RedisLoginGuard) Check(ctx context.Context, phoneNumber, ip string) (time.Duration, error) {
	if g.client == nil {
		return 0, nil
	}
	var max time.Duration
	for _, key := range g.keys(phoneNumber, ip) {
		remaining, err := g.remainingCooldown(ctx, key)
		if err != nil {
			return 0, err
		}
		if remaining > max {
			max = remaining
		}
	}
	return max, nil
}

// RegisterFailure records a failed credential check and returns the cooldown
// now in force.
func (g *RedisLoginGuard) RegisterFailure(ctx context.Context, phoneNumber, ip string) (time.Duration, error) {
	if g.client == nil {
		return 0, nil
	}
	var max time.Duration
	for _, key := range g.keys(phoneNumber, ip) {
		cooldown, err := g.registerFailureKey(ctx, key)
		if err != nil {
			return 0, err
		}
		if cooldown > max {
			max = cooldown
		}
	}
	return max, nil
}

// Reset clears the failure state after a successful login.
func (g *RedisLoginGuard) Reset(ctx context.Context, phoneNumber, ip string) error {
	if g.client == nil {
		return nil
	}
	return g.client.Del(ctx, g.keys(phoneNumber, ip)...).Err()
}

func (g *RedisLoginGuard) registerFailureKey(ctx context.Context, key string) (time.Duration, error) {
	now := time.Now()
	state, err := g.client.HGetAll(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	failures, lastFailure, _, err := parseGuardState(state)
	if err != nil {
		return 0, err
	}
	if g.policy.ResetWindow > 0 && !lastFailure.IsZero() && now.Sub(lastFailure) > g.policy.ResetWindow {
		failures = 0
	}
	failures++

	var cooldown time.Duration
	if failures > g.policy.FreeAttempts {
		cooldown = g.policy.BaseDelay
		for i := g.policy.FreeAttempts + 1; i < failures; i++ {
			cooldown = time.Duration(float64(cooldown) * g.policy.Multiplier)
			if g.policy.MaxDelay > 0 && cooldown >= g.policy.MaxDelay {
				cooldown = g.policy.MaxDelay
				break
			}
		}
		if g.policy.MaxDelay > 0 && cooldown > g.policy.MaxDelay {
			cooldown = g.policy.MaxDelay
		}
	}

	fields := map[string]any{
		"failures":          failures,
		"last_failure_ms":   now.UnixMilli(),
		"cooldown_until_ms": now.Add(cooldown).UnixMilli(),
	}
	if err := g.client.HSet(ctx, key, fields).Err(); err != nil {
		return 0, err
	}
	ttl := g.policy.ResetWindow + g.policy.MaxDelay
	if ttl <= 0 {
		ttl = time.Hour
	}
	if err := g.client.Expire(ctx, key, ttl).Err(); err != nil {
		return 0, err
	}
	return cooldown, nil
}

func (g *RedisLoginGuard) remainingCooldown(ctx context.Context, key string) (time.Duration, error) {
	state, err := g.client.HGetAll(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if len(state) == 0 {
		return 0, nil
	}
	_, _, cooldownUntil, err := parseGuardState(state)
	if err != nil {
		return 0, err
	}
	remaining := time.Until(cooldownUntil)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (g *RedisLoginGuard) keys(phoneNumber, ip string) []string {
	keys := []string{g.stateKey("id", normalizeGuardIdentity(phoneNumber))}
	if ip != "" {
		keys = append(keys, g.stateKey("ip", ip))
	}
	return keys
}

func (g *RedisLoginGuard) stateKey(kind, value string) string {
	return fmt.Sprintf("%s:%s:%s", g.prefix, kind, value)
}

func normalizeGuardIdentity(v string) string {
	return strings.TrimSpace(strings.ToLower(v))
}

func parseGuardState(state map[string]string) (failures int, lastFailure, cooldownUntil time.Time, err error) {
	if raw, ok := state["failures"]; ok && raw != "" {
		failures, err = strconv.Atoi(raw)
		if err != nil {
			return 0, time.Time{}, time.Time{}, fmt.Errorf("parse failures: %w", err)
		}
	}
	if raw, ok := state["last_failure_ms"]; ok && raw != "" {
		ms, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			return 0, time.Time{}, time.Time{}, fmt.Errorf("parse last_failure_ms: %w", perr)
		}
		lastFailure = time.UnixMilli(ms)
	}
	if raw, ok := state["cooldown_until_ms"]; ok && raw != "" {
		ms, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			return 0, time.Time{}, time.Time{}, fmt.Errorf("parse cooldown_until_ms: %w", perr)
		}
		cooldownUntil = time.UnixMilli(ms)
	}
	return failures, lastFailure, cooldownUntil, nil
}
