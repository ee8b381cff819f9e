package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	pgrepo "github.com/ibitsola/Tekhnologia/internal/repo/postgres"
	authsvc "github.com/ibitsola/Tekhnologia/internal/services/auth"
	ledgersvc "github.com/ibitsola/Tekhnologia/internal/services/ledger"
	"github.com/ibitsola/Tekhnologia/internal/transport/http/dto"
	httperrors "github.com/ibitsola/Tekhnologia/internal/transport/http/errors"
)

type LedgerHandler struct {
	service *ledgersvc.Service
}

func NewLedgerHandler(service *ledgersvc.Service) *LedgerHandler {
	return &LedgerHandler{service: service}
}

func (h *LedgerHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "LEDGER_SERVICE_UNAVAILABLE", "ledger service is unavailable")
		return
	}

	entries, err := h.service.ListAll(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list purchases")
		return
	}

	httperrors.Write(w, http.StatusOK, ledgerListResponse(entries))
}

func (h *LedgerHandler) ListPaid(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "LEDGER_SERVICE_UNAVAILABLE", "ledger service is unavailable")
		return
	}

	entries, err := h.service.ListPaid(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list purchases")
		return
	}

	httperrors.Write(w, http.StatusOK, ledgerListResponse(entries))
}

// ListMine returns the caller's own settled purchases.
func (h *LedgerHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "LEDGER_SERVICE_UNAVAILABLE", "ledger service is unavailable")
		return
	}

	entries, err := h.service.ListPaidByUser(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list purchases")
		return
	}

	httperrors.Write(w, http.StatusOK, ledgerListResponse(entries))
}

func (h *LedgerHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "LEDGER_SERVICE_UNAVAILABLE", "ledger service is unavailable")
		return
	}

	purchaseID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid purchase id")
		return
	}

	purchase, err := h.service.MarkPaid(r.Context(), purchaseID)
	if err != nil {
		switch {
		case errors.Is(err, ledgersvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid purchase id")
		case errors.Is(err, ledgersvc.ErrPurchaseNotFound):
			writeNotFound(w, "PURCHASE_NOT_FOUND", "purchase not found")
		case errors.Is(err, ledgersvc.ErrAlreadyPaid):
			writeConflict(w, "ALREADY_PAID", "purchase is already paid")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to mark purchase paid")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.LedgerMarkPaidResponse{
		PurchaseID: purchase.ID,
		Paid:       purchase.Paid,
	})
}

func (h *LedgerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "LEDGER_SERVICE_UNAVAILABLE", "ledger service is unavailable")
		return
	}

	purchaseID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid purchase id")
		return
	}

	var req dto.LedgerDeleteRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
			return
		}
	}

	if err := h.service.Delete(r.Context(), purchaseID, req.ConfirmationCode); err != nil {
		switch {
		case errors.Is(err, ledgersvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid purchase id")
		case errors.Is(err, ledgersvc.ErrPurchaseNotFound):
			writeNotFound(w, "PURCHASE_NOT_FOUND", "purchase not found")
		case errors.Is(err, ledgersvc.ErrConfirmationRequired):
			httperrors.Write(w, http.StatusForbidden, httperrors.APIError{
				Code:    "CONFIRMATION_REQUIRED",
				Message: "deleting a paid purchase requires a valid confirmation code",
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to delete purchase")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ConfirmSetup provisions a new deletion-confirmation secret for the calling
// operator and returns it with a QR code for authenticator apps.
func (h *LedgerHandler) ConfirmSetup(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "LEDGER_SERVICE_UNAVAILABLE", "ledger service is unavailable")
		return
	}

	accountName := strings.TrimSpace(r.URL.Query().Get("account_name"))
	if accountName == "" {
		accountName = "operator-" + strconv.FormatInt(identity.UserID, 10)
	}

	setup, err := h.service.EnrollConfirmation(accountName)
	if err != nil {
		switch {
		case errors.Is(err, ledgersvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "account_name is required")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to provision confirmation")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.LedgerConfirmSetupResponse{
		Secret:    setup.Secret,
		OTPURL:    setup.OTPURL,
		QRDataURL: setup.QRDataURL,
	})
}

func ledgerListResponse(entries []pgrepo.LedgerEntry) dto.LedgerListResponse {
	items := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.LedgerEntryResponse{
			ID:            entry.ID,
			ResourceID:    entry.ResourceID,
			ResourceTitle: entry.ResourceTitle,
			PriceCents:    entry.PriceCents,
			UserID:        entry.UserID,
			SessionID:     entry.SessionID,
			Paid:          entry.Paid,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return dto.LedgerListResponse{Purchases: items}
}
