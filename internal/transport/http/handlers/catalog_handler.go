package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ibitsola/Tekhnologia/internal/domain/model"
	pgrepo "github.com/ibitsola/Tekhnologia/internal/repo/postgres"
	authsvc "github.com/ibitsola/Tekhnologia/internal/services/auth"
	catalogsvc "github.com/ibitsola/Tekhnologia/internal/services/catalog"
	"github.com/ibitsola/Tekhnologia/internal/transport/http/dto"
	httperrors "github.com/ibitsola/Tekhnologia/internal/transport/http/errors"
)

const maxResourceUploadSize = 100 << 20 // 100 MiB

type CatalogHandler struct {
	service *catalogsvc.Service
}

func NewCatalogHandler(service *catalogsvc.Service) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	var filter pgrepo.ResourceFilter
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		filter.Category = &category
	}
	if rawFree := strings.TrimSpace(r.URL.Query().Get("is_free")); rawFree != "" {
		free, err := strconv.ParseBool(rawFree)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "is_free must be a boolean")
			return
		}
		filter.IsFree = &free
	}

	resources, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to list resources")
		return
	}

	items := make([]dto.ResourceResponse, 0, len(resources))
	for _, resource := range resources {
		items = append(items, resourceResponse(resource))
	}

	httperrors.Write(w, http.StatusOK, dto.ResourceListResponse{Resources: items})
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	resourceID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid resource id")
		return
	}

	resource, err := h.service.Get(r.Context(), resourceID)
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, resourceResponse(resource))
}

func (h *CatalogHandler) Upload(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxResourceUploadSize)
	if err := r.ParseMultipartForm(maxResourceUploadSize); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "file is required")
		return
	}
	defer file.Close()

	if header == nil || header.Size <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "file is empty")
		return
	}

	in := catalogsvc.UploadInput{
		Title:       r.FormValue("title"),
		UploadedBy:  strconv.FormatInt(identity.UserID, 10),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
		Size:        header.Size,
	}
	if category := strings.TrimSpace(r.FormValue("category")); category != "" {
		in.Category = &category
	}
	if rawFree := strings.TrimSpace(r.FormValue("is_free")); rawFree != "" {
		free, parseErr := strconv.ParseBool(rawFree)
		if parseErr != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "is_free must be a boolean")
			return
		}
		in.IsFree = free
	}
	if rawPrice := strings.TrimSpace(r.FormValue("price_cents")); rawPrice != "" {
		price, parseErr := strconv.ParseInt(rawPrice, 10, 64)
		if parseErr != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "price_cents must be an integer")
			return
		}
		in.PriceCents = &price
	}
	if external := strings.TrimSpace(r.FormValue("external_url")); external != "" {
		in.ExternalURL = &external
	}

	resource, err := h.service.Upload(r.Context(), in)
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, resourceResponse(resource))
}

func (h *CatalogHandler) Edit(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	resourceID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid resource id")
		return
	}

	var req dto.ResourceEditRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	resource, err := h.service.Edit(r.Context(), resourceID, catalogsvc.EditInput{
		Title:       req.Title,
		Category:    req.Category,
		IsFree:      req.IsFree,
		PriceCents:  req.PriceCents,
		ExternalURL: req.ExternalURL,
	})
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, resourceResponse(resource))
}

func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	resourceID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid resource id")
		return
	}

	if err := h.service.Delete(r.Context(), resourceID); err != nil {
		handleCatalogError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func handleCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalogsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid catalog request")
	case errors.Is(err, catalogsvc.ErrResourceNotFound):
		writeNotFound(w, "RESOURCE_NOT_FOUND", "resource not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "catalog operation failed")
	}
}

func resourceResponse(resource model.Resource) dto.ResourceResponse {
	return dto.ResourceResponse{
		ID:          resource.ID,
		Title:       resource.Title,
		FileName:    resource.FileName,
		ContentType: resource.ContentType,
		Category:    resource.Category,
		IsFree:      resource.IsFree,
		PriceCents:  resource.PriceCents,
		ExternalURL: resource.ExternalURL,
		CreatedAt:   resource.CreatedAt,
	}
}
