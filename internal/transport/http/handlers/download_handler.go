package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	authsvc "github.com/ibitsola/Tekhnologia/internal/services/auth"
	downloadsvc "github.com/ibitsola/Tekhnologia/internal/services/downloads"
)

type DownloadHandler struct {
	service *downloadsvc.Service
}

func NewDownloadHandler(service *downloadsvc.Service) *DownloadHandler {
	return &DownloadHandler{service: service}
}

func (h *DownloadHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "DOWNLOADS_SERVICE_UNAVAILABLE", "downloads service is unavailable")
		return
	}

	resourceID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid resource id")
		return
	}

	download, err := h.service.Resolve(r.Context(), identity.UserID, resourceID)
	if err != nil {
		switch {
		case errors.Is(err, downloadsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid download request")
		case errors.Is(err, downloadsvc.ErrResourceNotFound):
			writeNotFound(w, "RESOURCE_NOT_FOUND", "resource not found")
		case errors.Is(err, downloadsvc.ErrPaymentRequired):
			writeBadRequest(w, "PAYMENT_REQUIRED", "resource requires a completed purchase")
		case errors.Is(err, downloadsvc.ErrFileNotFound):
			writeNotFound(w, "FILE_NOT_FOUND", "resource file is missing")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to resolve download")
		}
		return
	}

	if download.RedirectURL != "" {
		http.Redirect(w, r, download.RedirectURL, http.StatusFound)
		return
	}

	contentType := download.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(download.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(download.Data)
}
