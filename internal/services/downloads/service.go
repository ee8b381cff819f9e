package downloads

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ibitsola/Tekhnologia/internal/domain/model"
	catalogsvc "github.com/ibitsola/Tekhnologia/internal/services/catalog"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrResourceNotFound = errors.New("resource not found")
	ErrPaymentRequired  = errors.New("payment required")
	ErrFileNotFound     = errors.New("resource file not found")
)

type Catalog interface {
	Get(ctx context.Context, resourceID int64) (model.Resource, error)
	FetchFile(ctx context.Context, resource model.Resource) ([]byte, error)
}

type EntitlementStore interface {
	HasPaid(ctx context.Context, resourceID, userID int64) (bool, error)
}

type Service struct {
	catalog      Catalog
	entitlements EntitlementStore
	logger       *zap.Logger
}

// Download is either inline file bytes or a redirect to an external URL,
// never both.
type Download struct {
	FileName    string
	ContentType string
	Data        []byte
	RedirectURL string
}

func NewService(catalog Catalog, entitlements EntitlementStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:      catalog,
		entitlements: entitlements,
		logger:       logger,
	}
}

// Resolve authorizes and resolves a download. Free resources are open to any
// authenticated user; paid resources require a settled purchase. Pending
// purchases grant nothing.
func (s *Service) Resolve(ctx context.Context, userID, resourceID int64) (Download, error) {
	if userID <= 0 || resourceID <= 0 {
		return Download{}, ErrValidation
	}
	if s.catalog == nil || s.entitlements == nil {
		return Download{}, fmt.Errorf("downloads dependencies are not configured")
	}

	resource, err := s.catalog.Get(ctx, resourceID)
	if err != nil {
		if errors.Is(err, catalogsvc.ErrResourceNotFound) {
			return Download{}, ErrResourceNotFound
		}
		return Download{}, fmt.Errorf("find resource: %w", err)
	}

	if !resource.IsFree {
		paid, err := s.entitlements.HasPaid(ctx, resourceID, userID)
		if err != nil {
			return Download{}, fmt.Errorf("check entitlement: %w", err)
		}
		if !paid {
			s.logger.Info("download denied",
				zap.Int64("resource_id", resourceID),
				zap.Int64("user_id", userID),
			)
			return Download{}, ErrPaymentRequired
		}
	}

	if resource.ExternalURL != nil && *resource.ExternalURL != "" {
		return Download{RedirectURL: *resource.ExternalURL}, nil
	}

	data, err := s.catalog.FetchFile(ctx, resource)
	if err != nil {
		if errors.Is(err, catalogsvc.ErrFileNotFound) {
			return Download{}, ErrFileNotFound
		}
		return Download{}, fmt.Errorf("fetch file: %w", err)
	}

	return Download{
		FileName:    resource.FileName,
		ContentType: resource.ContentType,
		Data:        data,
	}, nil
}
