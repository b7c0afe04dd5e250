package product

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/admin/internal/apperr"
	"github.com/storefront/admin/internal/cleanup"
	"github.com/storefront/admin/internal/storage"
)

// ResourceType tags cleanup tasks created for product images.
const ResourceType = "product"

const imageFolder = "products"

// Store is the persistence the product service needs.
type Store interface {
	Create(ctx context.Context, p Product) (*Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, f ListFilter) ([]Product, error)
	Update(ctx context.Context, p Product) (*Product, error)
	Delete(ctx context.Context, id string) (*Product, error)
}

// ImageStore uploads, signs and deletes product images.
type ImageStore interface {
	Upload(ctx context.Context, data []byte, originalName, mimeType, folder string) (string, error)
	SignedURL(ctx context.Context, key string) (string, error)
	DeleteMany(ctx context.Context, keys []string) storage.DeleteResult
}

// CleanupQueue takes over keys whose deletion failed.
type CleanupQueue interface {
	Enqueue(ctx context.Context, resourceType, resourceID string, fileKeys []string) (*cleanup.Task, error)
}

// File is an uploaded image.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// Service contains business logic for the product catalog.
type Service struct {
	store  Store
	images ImageStore
	queue  CleanupQueue
	log    *zap.Logger
	now    func() time.Time
}

// NewService creates a new product Service.
func NewService(store Store, images ImageStore, queue CleanupQueue, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, images: images, queue: queue, log: log, now: time.Now}
}

// Create uploads files and stores the product. Uploaded images are released
// again when anything after the upload fails.
func (s *Service) Create(ctx context.Context, in Input, files []File) (*View, error) {
	if len(files) > MaxImages {
		return nil, apperr.Validation("a product can have at most %d images", MaxImages)
	}
	// Validate before touching object storage.
	p, err := NewProduct(in, nil, s.now())
	if err != nil {
		return nil, err
	}

	keys, err := s.upload(ctx, files)
	if err != nil {
		return nil, err
	}
	p.Images = keys

	created, err := s.store.Create(ctx, p)
	if err != nil {
		s.release(ctx, p.SKU, keys)
		if errors.Is(err, ErrAlreadyExists) {
			return nil, apperr.Conflict("a product with this name already exists")
		}
		return nil, apperr.Internal(err, "failed to create product")
	}
	s.log.Info("product created", zap.String("product_id", created.ID), zap.Int("images", len(keys)))
	return s.view(ctx, created), nil
}

// Get returns a product with signed image URLs.
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	p, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, p), nil
}

// List returns products matching f.
func (s *Service) List(ctx context.Context, f ListFilter) ([]View, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("invalid status %q", f.Status)
	}
	products, err := s.store.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list products")
	}
	views := make([]View, 0, len(products))
	for i := range products {
		views = append(views, *s.view(ctx, &products[i]))
	}
	return views, nil
}

// Update applies in. When files are given they replace the current images and
// the old ones are released after the update is stored.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput, files []File) (*View, error) {
	if len(files) > MaxImages {
		return nil, apperr.Validation("a product can have at most %d images", MaxImages)
	}
	current, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := current.Apply(in)
	if err != nil {
		return nil, err
	}

	var newKeys []string
	if len(files) > 0 {
		if newKeys, err = s.upload(ctx, files); err != nil {
			return nil, err
		}
		next.Images = newKeys
	}

	updated, err := s.store.Update(ctx, next)
	if err != nil {
		s.release(ctx, id, newKeys)
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, apperr.NotFound("product not found")
		case errors.Is(err, ErrAlreadyExists):
			return nil, apperr.Conflict("a product with this name already exists")
		}
		return nil, apperr.Internal(err, "failed to update product")
	}

	if len(newKeys) > 0 {
		s.release(ctx, id, current.Images)
	}
	return s.view(ctx, updated), nil
}

// SetStatus activates or deactivates a product.
func (s *Service) SetStatus(ctx context.Context, id string, status Status) (*View, error) {
	if !status.Valid() {
		return nil, apperr.Validation("status must be one of: active, inactive")
	}
	return s.Update(ctx, id, UpdateInput{Status: &status}, nil)
}

// AdjustStock moves stock by delta, refusing to go below zero.
func (s *Service) AdjustStock(ctx context.Context, id string, delta int) (*View, error) {
	current, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := current.WithStockDelta(delta)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.Update(ctx, next)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("product not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to update stock")
	}
	return s.view(ctx, updated), nil
}

// Delete removes the product record, then its images. Image failures never
// fail the call; leftover keys are queued for cleanup.
func (s *Service) Delete(ctx context.Context, id string) error {
	p, err := s.store.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("product not found")
	}
	if err != nil {
		return apperr.Internal(err, "failed to delete product")
	}
	s.release(ctx, p.ID, p.Images)
	s.log.Info("product deleted", zap.String("product_id", p.ID))
	return nil
}

func (s *Service) get(ctx context.Context, id string) (*Product, error) {
	p, err := s.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("product not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load product")
	}
	return p, nil
}

// upload stores every file or none: on the first failure the keys written so
// far are released.
func (s *Service) upload(ctx context.Context, files []File) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, f := range files {
		key, err := s.images.Upload(ctx, f.Data, f.Name, f.MimeType, imageFolder)
		if err != nil {
			s.release(ctx, "unsaved", keys)
			if errors.Is(err, storage.ErrUnsupportedType) || errors.Is(err, storage.ErrFileTooLarge) {
				return nil, apperr.Validation("%s: %s", f.Name, err.Error())
			}
			return nil, apperr.Internal(err, "failed to upload image")
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// release deletes keys and queues whatever could not be deleted. It runs to
// completion even if the request is cancelled, since the keys are no longer
// referenced by any product.
func (s *Service) release(ctx context.Context, resourceID string, keys []string) {
	if len(keys) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	res := s.images.DeleteMany(ctx, keys)
	if res.Success {
		return
	}
	if _, err := s.queue.Enqueue(ctx, ResourceType, resourceID, res.FailedKeys); err != nil {
		s.log.Error("enqueue image cleanup failed",
			zap.String("resource_id", resourceID),
			zap.Strings("keys", res.FailedKeys),
			zap.Error(err),
		)
	}
}

// view signs image URLs. A signing failure yields an empty URL list.
func (s *Service) view(ctx context.Context, p *Product) *View {
	v := &View{Product: *p, ImageURLs: make([]string, 0, len(p.Images))}
	for _, key := range p.Images {
		u, err := s.images.SignedURL(ctx, key)
		if err != nil {
			s.log.Warn("sign image url failed", zap.String("key", key), zap.Error(err))
			v.ImageURLs = []string{}
			break
		}
		v.ImageURLs = append(v.ImageURLs, u)
	}
	return v
}
