package audit

import (
	"fmt"

	"github.com/gatekey/gatekey/internal/model"
)

const (
	hashLength      = 16
	maxRequestIDLen = 64
	maxProfileIDLen = 40
)

// ValidateAuthEventPayload validates auth event payload fields.
func ValidateAuthEventPayload(payload AuthEventPayload) error {
	if !isValidEventType(payload.Type) {
		return fmt.Errorf("unknown event type: %q", payload.Type)
	}
	if payload.EmailHash == "" {
		return fmt.Errorf("email_hash is required")
	}
	if len(payload.EmailHash) != hashLength || !isHex(payload.EmailHash) {
		return fmt.Errorf("email_hash must be %d hex chars", hashLength)
	}
	if payload.IPHash != "" && (len(payload.IPHash) != hashLength || !isHex(payload.IPHash)) {
		return fmt.Errorf("ip_hash must be %d hex chars", hashLength)
	}
	if len(payload.ProfileID) > maxProfileIDLen {
		return fmt.Errorf("profile_id too long")
	}
	if len(payload.RequestID) > maxRequestIDLen {
		return fmt.Errorf("request_id too long")
	}
	if payload.OccurredAt <= 0 {
		return fmt.Errorf("occurred_at must be set")
	}
	return nil
}

func isValidEventType(eventType string) bool {
	for _, allowed := range model.ValidAuthEventTypes {
		if eventType == allowed {
			return true
		}
	}
	return false
}

func isHex(value string) bool {
	for i := 0; i < len(value); i++ {
		ch := value[i]
		if (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F') {
			continue
		}
		return false
	}
	return true
}
