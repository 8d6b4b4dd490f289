// Package audit provides the authentication audit trail: event capture
// to a Redis stream and asynchronous persistence to the store.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gatekey/gatekey/internal/metrics"
)

const (
	// StreamKey is the Redis stream for auth events.
	StreamKey = "stream:auth_events"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:auth_events:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond
)

// AuthEventPayload is the compressed event format for the Redis stream.
type AuthEventPayload struct {
	Type       string `json:"t"`
	ProfileID  string `json:"pid,omitempty"`
	EmailHash  string `json:"eh"`
	IPHash     string `json:"ih,omitempty"`
	RequestID  string `json:"rid,omitempty"`
	OccurredAt int64  `json:"at"` // Unix milliseconds
}

// Publisher enqueues auth events to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new audit event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "audit.publisher"),
		metrics: recorder,
	}
}

// Publish adds an auth event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event AuthEventPayload) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true, // ~MAXLEN for performance
		ID:     "*",  // Auto-generate ID
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()

	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// PublishAsync publishes without blocking the caller.
// Errors are logged but not returned; a dropped audit event must never
// fail the request that produced it.
func (p *Publisher) PublishAsync(event AuthEventPayload) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish auth event",
				"type", event.Type,
				"error", err,
			)
			p.metrics.IncAuditEventPublished("dropped")
			return
		}

		p.logger.Debug("auth event published",
			"type", event.Type,
			"stream_id", streamID,
		)
		p.metrics.IncAuditEventPublished("success")
	}()
}

// HashEmail creates a stable, irreversible account correlator.
// SHA256 over a fixed prefix, truncated to 16 hex chars. Stable on
// purpose: failed logins against one account must correlate across
// days to be useful. The input is normalized the same way the store
// normalizes emails, so casing differences do not split the trail.
func HashEmail(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	hash := sha256.Sum256([]byte("gatekey:email:" + normalized))
	return hex.EncodeToString(hash[:])[:16]
}

// HashClientIP creates a privacy-safe client correlator.
func HashClientIP(ip string) string {
	if ip == "" {
		return ""
	}
	hash := sha256.Sum256([]byte("gatekey:ip:" + ip))
	return hex.EncodeToString(hash[:])[:16]
}
