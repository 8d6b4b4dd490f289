package audit

import (
	"strings"
	"testing"
	"time"

	"github.com/gatekey/gatekey/internal/model"
)

func TestValidateAuthEventPayload(t *testing.T) {
	valid := AuthEventPayload{
		Type:       model.AuthEventLoginSucceeded,
		ProfileID:  "01J0000000000000000000TEST",
		EmailHash:  "0123456789abcdef",
		IPHash:     "fedcba9876543210",
		RequestID:  "req-1",
		OccurredAt: time.Now().UnixMilli(),
	}

	if err := ValidateAuthEventPayload(valid); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}

	cases := []struct {
		name    string
		payload AuthEventPayload
	}{
		{"unknown_type", AuthEventPayload{Type: "login.weird", EmailHash: "0123456789abcdef", OccurredAt: 1}},
		{"missing_email_hash", AuthEventPayload{Type: model.AuthEventLoginFailed, OccurredAt: 1}},
		{"email_hash_wrong_length", AuthEventPayload{Type: model.AuthEventLoginFailed, EmailHash: "abc", OccurredAt: 1}},
		{"email_hash_not_hex", AuthEventPayload{Type: model.AuthEventLoginFailed, EmailHash: "not-hexadecimal!", OccurredAt: 1}},
		{"ip_hash_not_hex", AuthEventPayload{Type: model.AuthEventLoginFailed, EmailHash: "0123456789abcdef", IPHash: "zzzzzzzzzzzzzzzz", OccurredAt: 1}},
		{"profile_id_too_long", AuthEventPayload{Type: model.AuthEventRegistered, EmailHash: "0123456789abcdef", ProfileID: strings.Repeat("x", 41), OccurredAt: 1}},
		{"request_id_too_long", AuthEventPayload{Type: model.AuthEventRegistered, EmailHash: "0123456789abcdef", RequestID: strings.Repeat("x", 65), OccurredAt: 1}},
		{"missing_occurred_at", AuthEventPayload{Type: model.AuthEventRegistered, EmailHash: "0123456789abcdef"}},
	}

	for _, tc := range cases {
		if err := ValidateAuthEventPayload(tc.payload); err == nil {
			t.Fatalf("expected error for %s", tc.name)
		}
	}
}

func TestValidateAuthEventPayload_IPHashOptional(t *testing.T) {
	payload := AuthEventPayload{
		Type:       model.AuthEventLoginFailed,
		EmailHash:  "0123456789abcdef",
		OccurredAt: time.Now().UnixMilli(),
	}

	if err := ValidateAuthEventPayload(payload); err != nil {
		t.Fatalf("payload without ip_hash should be valid, got %v", err)
	}
}
