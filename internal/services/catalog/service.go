package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ibitsola/Tekhnologia/internal/domain/model"
	pgrepo "github.com/ibitsola/Tekhnologia/internal/repo/postgres"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrResourceNotFound = errors.New("resource not found")
	ErrFileNotFound     = errors.New("resource file not found")
)

const defaultCacheTTL = 5 * time.Minute

type Store interface {
	List(ctx context.Context, filter pgrepo.ResourceFilter) ([]model.Resource, error)
	FindByID(ctx context.Context, resourceID int64) (model.Resource, error)
	Insert(ctx context.Context, resource model.Resource) (model.Resource, error)
	Update(ctx context.Context, resourceID int64, update pgrepo.ResourceUpdate) (model.Resource, error)
	Delete(ctx context.Context, resourceID int64) error
}

type ListCache interface {
	Get(ctx context.Context, filterKey string) ([]model.Resource, bool, error)
	Set(ctx context.Context, filterKey string, resources []model.Resource, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	store    Store
	cache    ListCache
	storage  ObjectStorage
	cacheTTL time.Duration
	logger   *zap.Logger
}

type Dependencies struct {
	Store    Store
	Cache    ListCache
	Storage  ObjectStorage
	CacheTTL time.Duration
	Logger   *zap.Logger
}

type UploadInput struct {
	Title       string
	Category    *string
	IsFree      bool
	PriceCents  *int64
	ExternalURL *string
	UploadedBy  string
	FileName    string
	ContentType string
	Body        io.Reader
	Size        int64
}

type EditInput struct {
	Title       string
	Category    *string
	IsFree      bool
	PriceCents  *int64
	ExternalURL *string
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &Service{
		store:    deps.Store,
		cache:    deps.Cache,
		storage:  deps.Storage,
		cacheTTL: ttl,
		logger:   logger,
	}
}

func (s *Service) List(ctx context.Context, filter pgrepo.ResourceFilter) ([]model.Resource, error) {
	if s.store == nil {
		return nil, fmt.Errorf("resource store is nil")
	}

	key := filterCacheKey(filter)
	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			return cached, nil
		}
	}

	resources, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resources, s.cacheTTL); err != nil {
			s.logger.Warn("cache catalog list", zap.Error(err))
		}
	}

	return resources, nil
}

func (s *Service) Get(ctx context.Context, resourceID int64) (model.Resource, error) {
	if resourceID <= 0 {
		return model.Resource{}, ErrValidation
	}
	if s.store == nil {
		return model.Resource{}, fmt.Errorf("resource store is nil")
	}

	resource, err := s.store.FindByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrResourceNotFound) {
			return model.Resource{}, ErrResourceNotFound
		}
		return model.Resource{}, fmt.Errorf("find resource: %w", err)
	}

	return resource, nil
}

// Upload stores the file first and inserts the catalog row after, removing
// the object again if the insert fails.
func (s *Service) Upload(ctx context.Context, in UploadInput) (model.Resource, error) {
	if s.store == nil || s.storage == nil {
		return model.Resource{}, fmt.Errorf("catalog dependencies are not configured")
	}
	if strings.TrimSpace(in.Title) == "" || in.Body == nil || in.Size <= 0 {
		return model.Resource{}, ErrValidation
	}
	if err := validatePricing(in.IsFree, in.PriceCents); err != nil {
		return model.Resource{}, err
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return model.Resource{}, fmt.Errorf("ensure bucket: %w", err)
	}

	fileName := path.Base(strings.TrimSpace(in.FileName))
	if fileName == "" || fileName == "." || fileName == "/" {
		return model.Resource{}, ErrValidation
	}
	objectKey := uuid.NewString() + "_" + fileName

	contentType := strings.TrimSpace(in.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.storage.Put(ctx, objectKey, in.Body, in.Size, contentType); err != nil {
		return model.Resource{}, fmt.Errorf("put object: %w", err)
	}

	resource, err := s.store.Insert(ctx, model.Resource{
		Title:       strings.TrimSpace(in.Title),
		FileKey:     objectKey,
		FileName:    fileName,
		ContentType: contentType,
		Category:    in.Category,
		IsFree:      in.IsFree,
		PriceCents:  in.PriceCents,
		ExternalURL: in.ExternalURL,
		UploadedBy:  in.UploadedBy,
	})
	if err != nil {
		_ = s.storage.Delete(ctx, objectKey)
		return model.Resource{}, fmt.Errorf("insert resource: %w", err)
	}

	s.invalidateLists(ctx)

	s.logger.Info("resource uploaded",
		zap.Int64("resource_id", resource.ID),
		zap.String("file_key", objectKey),
	)

	return resource, nil
}

func (s *Service) Edit(ctx context.Context, resourceID int64, in EditInput) (model.Resource, error) {
	if resourceID <= 0 || strings.TrimSpace(in.Title) == "" {
		return model.Resource{}, ErrValidation
	}
	if s.store == nil {
		return model.Resource{}, fmt.Errorf("resource store is nil")
	}
	if err := validatePricing(in.IsFree, in.PriceCents); err != nil {
		return model.Resource{}, err
	}

	resource, err := s.store.Update(ctx, resourceID, pgrepo.ResourceUpdate{
		Title:       strings.TrimSpace(in.Title),
		Category:    in.Category,
		IsFree:      in.IsFree,
		PriceCents:  in.PriceCents,
		ExternalURL: in.ExternalURL,
	})
	if err != nil {
		if errors.Is(err, pgrepo.ErrResourceNotFound) {
			return model.Resource{}, ErrResourceNotFound
		}
		return model.Resource{}, fmt.Errorf("update resource: %w", err)
	}

	s.invalidateLists(ctx)

	return resource, nil
}

func (s *Service) Delete(ctx context.Context, resourceID int64) error {
	if resourceID <= 0 {
		return ErrValidation
	}
	if s.store == nil {
		return fmt.Errorf("resource store is nil")
	}

	resource, err := s.store.FindByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrResourceNotFound) {
			return ErrResourceNotFound
		}
		return fmt.Errorf("find resource: %w", err)
	}

	if err := s.store.Delete(ctx, resourceID); err != nil {
		if errors.Is(err, pgrepo.ErrResourceNotFound) {
			return ErrResourceNotFound
		}
		return fmt.Errorf("delete resource: %w", err)
	}

	if s.storage != nil && resource.FileKey != "" {
		if err := s.storage.Delete(ctx, resource.FileKey); err != nil {
			s.logger.Warn("delete resource object",
				zap.String("file_key", resource.FileKey),
				zap.Error(err),
			)
		}
	}

	s.invalidateLists(ctx)

	return nil
}

// FetchFile resolves the stored bytes for a resource. Entitlement checks are
// the caller's concern.
func (s *Service) FetchFile(ctx context.Context, resource model.Resource) ([]byte, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("object storage is nil")
	}
	if resource.FileKey == "" {
		return nil, ErrFileNotFound
	}

	data, err := s.storage.Get(ctx, resource.FileKey)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("fetch object: %w", err)
	}

	return data, nil
}

func (s *Service) invalidateLists(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate catalog cache", zap.Error(err))
	}
}

func validatePricing(isFree bool, priceCents *int64) error {
	if isFree {
		if priceCents != nil {
			return ErrValidation
		}
		return nil
	}
	if priceCents == nil || *priceCents <= 0 {
		return ErrValidation
	}
	return nil
}

func filterCacheKey(filter pgrepo.ResourceFilter) string {
	category := "*"
	if filter.Category != nil && strings.TrimSpace(*filter.Category) != "" {
		category = strings.TrimSpace(*filter.Category)
	}
	free := "*"
	if filter.IsFree != nil {
		if *filter.IsFree {
			free = "1"
		} else {
			free = "0"
		}
	}
	return category + "|" + free
}
