package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ibitsola/Tekhnologia/internal/domain/model"
	pgrepo "github.com/ibitsola/Tekhnologia/internal/repo/postgres"
	paymentsvc "github.com/ibitsola/Tekhnologia/internal/services/payments"
)

type webhookPurchaseStore struct {
	purchases map[string]*model.Purchase
}

func (s *webhookPurchaseStore) CreatePending(_ context.Context, resourceID, userID int64, sessionID string) (model.Purchase, error) {
	purchase := &model.Purchase{ID: int64(len(s.purchases) + 1), ResourceID: resourceID, UserID: userID, SessionID: sessionID}
	s.purchases[sessionID] = purchase
	return *purchase, nil
}

func (s *webhookPurchaseStore) MarkPaidBySession(_ context.Context, sessionID string) (model.Purchase, bool, error) {
	purchase, ok := s.purchases[sessionID]
	if !ok {
		return model.Purchase{}, false, pgrepo.ErrPurchaseNotFound
	}
	if purchase.Paid {
		return *purchase, false, nil
	}
	purchase.Paid = true
	return *purchase, true, nil
}

type webhookGateway struct {
	secret string
	events map[string]paymentsvc.Event
}

func (g *webhookGateway) CreateSession(_ context.Context, _ paymentsvc.SessionInput) (paymentsvc.SessionResult, error) {
	return paymentsvc.SessionResult{}, fmt.Errorf("not used")
}

func (g *webhookGateway) VerifyEvent(payload []byte, signature string) (paymentsvc.Event, error) {
	if signature != g.secret {
		return paymentsvc.Event{}, fmt.Errorf("signature mismatch")
	}
	event, ok := g.events[string(payload)]
	if !ok {
		return paymentsvc.Event{}, fmt.Errorf("unknown payload")
	}
	return event, nil
}

func newWebhookHandlerForTest() (*WebhookHandler, *webhookPurchaseStore, *webhookGateway) {
	store := &webhookPurchaseStore{purchases: make(map[string]*model.Purchase)}
	gateway := &webhookGateway{secret: "whsec-test", events: make(map[string]paymentsvc.Event)}
	svc := paymentsvc.NewService(paymentsvc.Dependencies{
		Purchases: store,
		Gateway:   gateway,
	})
	return NewWebhookHandler(svc), store, gateway
}

func performWebhookRequest(h *WebhookHandler, payload, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewBufferString(payload))
	req.Header.Set("Stripe-Signature", signature)
	rec := httptest.NewRecorder()
	h.Stripe(rec, req)
	return rec
}

func TestWebhookHandlerRejectsBadSignature(t *testing.T) {
	h, _, gateway := newWebhookHandlerForTest()
	gateway.events["{}"] = paymentsvc.Event{ID: "evt_1", Type: "checkout.session.completed", SessionID: "cs_1"}

	rec := performWebhookRequest(h, "{}", "wrong")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "BAD_SIGNATURE" {
		t.Fatalf("unexpected error code %q", payload.Code)
	}
}

func TestWebhookHandlerAcknowledgesUnknownSession(t *testing.T) {
	h, _, gateway := newWebhookHandlerForTest()
	gateway.events["{}"] = paymentsvc.Event{ID: "evt_1", Type: "checkout.session.completed", SessionID: "cs_unknown"}

	rec := performWebhookRequest(h, "{}", gateway.secret)
	if rec.Code != http.StatusOK {
		t.Fatalf("unknown session should still be acknowledged, got %d", rec.Code)
	}
}

func TestWebhookHandlerAppliesAndReplays(t *testing.T) {
	h, store, gateway := newWebhookHandlerForTest()
	if _, err := store.CreatePending(context.Background(), 5, 10, "cs_1"); err != nil {
		t.Fatalf("seed pending purchase: %v", err)
	}
	gateway.events["{}"] = paymentsvc.Event{ID: "evt_1", Type: "checkout.session.completed", SessionID: "cs_1"}

	rec := performWebhookRequest(h, "{}", gateway.secret)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !store.purchases["cs_1"].Paid {
		t.Fatalf("purchase should be paid after delivery")
	}

	var payload struct {
		Applied    bool `json:"applied"`
		Idempotent bool `json:"idempotent"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.Applied || payload.Idempotent {
		t.Fatalf("first delivery should apply, got %+v", payload)
	}

	replay := performWebhookRequest(h, "{}", gateway.secret)
	if replay.Code != http.StatusOK {
		t.Fatalf("replay should be acknowledged, got %d", replay.Code)
	}
	if err := json.Unmarshal(replay.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode replay response: %v", err)
	}
	if payload.Applied || !payload.Idempotent {
		t.Fatalf("replay should be idempotent, got %+v", payload)
	}
}
