package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/ibitsola/Tekhnologia/internal/services/auth"
	paymentsvc "github.com/ibitsola/Tekhnologia/internal/services/payments"
	"github.com/ibitsola/Tekhnologia/internal/transport/http/dto"
	httperrors "github.com/ibitsola/Tekhnologia/internal/transport/http/errors"
)

type CheckoutHandler struct {
	payments *paymentsvc.Service
}

func NewCheckoutHandler(payments *paymentsvc.Service) *CheckoutHandler {
	return &CheckoutHandler{payments: payments}
}

func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.payments == nil {
		writeInternal(w, "PAYMENTS_SERVICE_UNAVAILABLE", "payments service is unavailable")
		return
	}

	resourceID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid resource id")
		return
	}

	result, err := h.payments.CreateCheckout(r.Context(), identity.UserID, resourceID)
	if err != nil {
		switch {
		case errors.Is(err, paymentsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid checkout payload")
		case errors.Is(err, paymentsvc.ErrResourceNotFound):
			writeNotFound(w, "RESOURCE_NOT_FOUND", "resource not found")
		case errors.Is(err, paymentsvc.ErrResourceIsFree):
			writeBadRequest(w, "RESOURCE_IS_FREE", "resource does not require payment")
		case errors.Is(err, paymentsvc.ErrNotPriced):
			writeBadRequest(w, "RESOURCE_NOT_PRICED", "resource has no price configured")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to create checkout session")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CheckoutCreateResponse{
		PurchaseID: result.PurchaseID,
		SessionID:  result.SessionID,
		URL:        result.URL,
	})
}
