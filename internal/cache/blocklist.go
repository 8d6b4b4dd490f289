package cache

import (
	"context"
	"fmt"
	"time"
)

// blocklistPrefix is the Redis key prefix for revoked token ids.
const blocklistPrefix = "session:revoked:"

// RevokeToken marks a token id (jti) as revoked until its natural
// expiry. The key carries the token's remaining lifetime so the
// blocklist never outgrows the set of still-valid tokens.
func (c *Cache) RevokeToken(ctx context.Context, tokenID string, remaining time.Duration) error {
	if remaining <= 0 {
		// Already expired; nothing to revoke.
		return nil
	}

	key := blocklistPrefix + tokenID
	if err := c.client.Set(ctx, key, "1", remaining).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

// IsTokenRevoked reports whether a token id is on the blocklist.
// Redis errors are returned so the caller can decide the failure
// posture; session verification fails closed.
func (c *Cache) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	key := blocklistPrefix + tokenID

	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}

	return n > 0, nil
}
