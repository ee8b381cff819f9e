package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"
)

const testWebhookSecret = "whsec_test_secret"

func signStripePayload(t *testing.T, payload []byte, secret string, at time.Time) string {
	t.Helper()

	timestamp := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", timestamp, payload)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeGatewayVerifyEvent(t *testing.T) {
	gateway := NewStripeGateway(StripeGatewayConfig{WebhookSecret: testWebhookSecret})

	payload := []byte(`{
		"id": "evt_100",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_test_abc", "object": "checkout.session"}}
	}`)

	event, err := gateway.VerifyEvent(payload, signStripePayload(t, payload, testWebhookSecret, time.Now()))
	if err != nil {
		t.Fatalf("verify event: %v", err)
	}
	if event.ID != "evt_100" {
		t.Fatalf("expected event id evt_100, got %q", event.ID)
	}
	if event.Type != "checkout.session.completed" {
		t.Fatalf("unexpected event type %q", event.Type)
	}
	if event.SessionID != "cs_test_abc" {
		t.Fatalf("expected session id cs_test_abc, got %q", event.SessionID)
	}
}

func TestStripeGatewayRejectsTamperedPayload(t *testing.T) {
	gateway := NewStripeGateway(StripeGatewayConfig{WebhookSecret: testWebhookSecret})

	payload := []byte(`{"id":"evt_100","type":"checkout.session.completed","data":{"object":{"id":"cs_test_abc"}}}`)
	signature := signStripePayload(t, payload, testWebhookSecret, time.Now())

	tampered := []byte(`{"id":"evt_100","type":"checkout.session.completed","data":{"object":{"id":"cs_test_xyz"}}}`)
	if _, err := gateway.VerifyEvent(tampered, signature); err == nil {
		t.Fatalf("tampered payload must not verify")
	}
}

func TestStripeGatewayRejectsWrongSecret(t *testing.T) {
	gateway := NewStripeGateway(StripeGatewayConfig{WebhookSecret: testWebhookSecret})

	payload := []byte(`{"id":"evt_100","type":"checkout.session.completed","data":{"object":{"id":"cs_test_abc"}}}`)
	signature := signStripePayload(t, payload, "whsec_other_secret", time.Now())

	if _, err := gateway.VerifyEvent(payload, signature); err == nil {
		t.Fatalf("signature from another secret must not verify")
	}
}

func TestStripeGatewayKeepsNonCompletionSessionEmpty(t *testing.T) {
	gateway := NewStripeGateway(StripeGatewayConfig{WebhookSecret: testWebhookSecret})

	payload := []byte(`{"id":"evt_200","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123"}}}`)
	event, err := gateway.VerifyEvent(payload, signStripePayload(t, payload, testWebhookSecret, time.Now()))
	if err != nil {
		t.Fatalf("verify event: %v", err)
	}
	if event.SessionID != "" {
		t.Fatalf("non-completion event should carry no session id, got %q", event.SessionID)
	}
}
