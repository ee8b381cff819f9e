package handlers

import (
	"errors"
	"io"
	"net/http"

	paymentsvc "github.com/ibitsola/Tekhnologia/internal/services/payments"
	httperrors "github.com/ibitsola/Tekhnologia/internal/transport/http/errors"
)

const maxWebhookPayloadSize = 1 << 20 // 1 MiB

type WebhookHandler struct {
	payments *paymentsvc.Service
}

func NewWebhookHandler(payments *paymentsvc.Service) *WebhookHandler {
	return &WebhookHandler{payments: payments}
}

// Stripe handles provider event deliveries. Anything other than 2xx makes
// the provider retry, so only signature and payload problems are rejected.
func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil {
		writeInternal(w, "PAYMENTS_SERVICE_UNAVAILABLE", "payments service is unavailable")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookPayloadSize))
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "unreadable webhook payload")
		return
	}

	result, err := h.payments.HandleEvent(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, paymentsvc.ErrBadSignature):
			writeBadRequest(w, "BAD_SIGNATURE", "webhook signature verification failed")
		case errors.Is(err, paymentsvc.ErrMalformedEvent):
			writeBadRequest(w, "MALFORMED_EVENT", "event is missing a checkout session")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to process webhook")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, map[string]bool{
		"received":   true,
		"applied":    result.Applied,
		"idempotent": result.AlreadyProcessed,
	})
}
