package cache

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gatekey/gatekey/internal/testutil"
)

// setupCache connects to the test Redis and flushes it.
// Skips if REDIS_URL is not set.
func setupCache(t *testing.T) (*Cache, context.Context) {
	t.Helper()

	redisURL := testutil.RequireEnv(t, "REDIS_URL")
	ctx := context.Background()

	c, err := New(ctx, redisURL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Close()
	})

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("FlushRedis: %v", err)
	}

	return c, ctx
}

func TestRevokeAndCheckToken(t *testing.T) {
	c, ctx := setupCache(t)

	tokenID := ulid.Make().String()

	revoked, err := c.IsTokenRevoked(ctx, tokenID)
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if revoked {
		t.Error("token revoked before RevokeToken")
	}

	if err := c.RevokeToken(ctx, tokenID, time.Minute); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}

	revoked, err = c.IsTokenRevoked(ctx, tokenID)
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if !revoked {
		t.Error("token not revoked after RevokeToken")
	}
}

func TestRevokeExpiredTokenIsNoop(t *testing.T) {
	c, ctx := setupCache(t)

	tokenID := ulid.Make().String()

	if err := c.RevokeToken(ctx, tokenID, -time.Second); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}

	revoked, err := c.IsTokenRevoked(ctx, tokenID)
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if revoked {
		t.Error("expired token landed on the blocklist")
	}
}

func TestBlocklistEntryExpires(t *testing.T) {
	c, ctx := setupCache(t)

	tokenID := ulid.Make().String()

	if err := c.RevokeToken(ctx, tokenID, 100*time.Millisecond); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	revoked, err := c.IsTokenRevoked(ctx, tokenID)
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if revoked {
		t.Error("blocklist entry outlived the token")
	}
}

func TestCheckAuthRateLimit(t *testing.T) {
	c, ctx := setupCache(t)

	// Burst of 3, negligible refill within the test.
	const rpm = 1
	const burst = 3
	ip := "203.0.113.7"

	for i := 0; i < burst; i++ {
		result, err := c.CheckAuthRateLimit(ctx, ip, rpm, burst)
		if err != nil {
			t.Fatalf("CheckAuthRateLimit: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("request %d denied within burst", i+1)
		}
	}

	result, err := c.CheckAuthRateLimit(ctx, ip, rpm, burst)
	if err != nil {
		t.Fatalf("CheckAuthRateLimit: %v", err)
	}
	if result.Allowed {
		t.Error("request allowed after burst exhausted")
	}
	if result.RetryAfter <= 0 {
		t.Error("RetryAfter not set on denial")
	}
}

func TestCheckAuthRateLimitPerIP(t *testing.T) {
	c, ctx := setupCache(t)

	const rpm = 1
	const burst = 1

	if result, err := c.CheckAuthRateLimit(ctx, "203.0.113.7", rpm, burst); err != nil || !result.Allowed {
		t.Fatalf("first ip first request: allowed=%v err=%v", result.Allowed, err)
	}
	if result, err := c.CheckAuthRateLimit(ctx, "203.0.113.7", rpm, burst); err != nil || result.Allowed {
		t.Fatalf("first ip second request: allowed=%v err=%v", result.Allowed, err)
	}

	// A different client is unaffected.
	if result, err := c.CheckAuthRateLimit(ctx, "198.51.100.2", rpm, burst); err != nil || !result.Allowed {
		t.Fatalf("second ip first request: allowed=%v err=%v", result.Allowed, err)
	}
}

func TestCheckAuthRateLimitZeroRateUnlimited(t *testing.T) {
	c, ctx := setupCache(t)

	for i := 0; i < 10; i++ {
		result, err := c.CheckAuthRateLimit(ctx, "203.0.113.7", 0, 0)
		if err != nil {
			t.Fatalf("CheckAuthRateLimit: %v", err)
		}
		if !result.Allowed {
			t.Fatal("zero rate should be unlimited")
		}
	}
}
