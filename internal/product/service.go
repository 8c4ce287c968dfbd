package product

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"inventory-api/internal/logging"
)

var (
	ErrMissingFields = errors.New("please fill in all fields")
	ErrImageUpload   = errors.New("image could not be uploaded")
	ErrNoObjectStore = errors.New("image storage is not configured")
)

// ObjectStore is the remote binary store for product images.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// ImageUpload describes an incoming image file.
type ImageUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// CreateInput carries the fields for a new product.
type CreateInput struct {
	Name        string
	SKU         string
	Category    string
	Quantity    int64
	Price       float64
	Description string
}

// UpdateInput is a partial product update. A nil field keeps the stored value.
type UpdateInput struct {
	Name        *string
	SKU         *string
	Category    *string
	Quantity    *int64
	Price       *float64
	Description *string
}

// Service implements the product operations with per-owner authorization.
type Service struct {
	store  Store
	images ObjectStore
	logger *logging.Logger
}

func NewService(store Store, images ObjectStore, logger *logging.Logger) *Service {
	return &Service{store: store, images: images, logger: logger}
}

// verifyOwnership is the shared authorization primitive: a product may only
// be read or mutated by the identity recorded as its owner. Both checks run
// before any mutation.
func verifyOwnership(p *Product, requesterID uuid.UUID) error {
	if p == nil {
		return ErrNotFound
	}
	if p.UserID != requesterID {
		return ErrNotOwner
	}
	return nil
}

// Create validates input, uploads the optional image and persists the product.
// Quantity and price are required alongside name and category; a zero value
// counts as absent.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput, img *ImageUpload) (*Product, error) {
	if in.Name == "" || in.Category == "" || in.Quantity == 0 || in.Price == 0 {
		return nil, ErrMissingFields
	}

	image, err := s.uploadImage(ctx, img)
	if err != nil {
		return nil, err
	}

	p := &Product{
		UserID:      userID,
		Name:        in.Name,
		SKU:         in.SKU,
		Category:    in.Category,
		Quantity:    in.Quantity,
		Price:       in.Price,
		Description: in.Description,
		Image:       image,
	}

	created, err := s.store.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return created, nil
}

// List returns the requester's products, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Product, error) {
	products, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Get returns a single product after the ownership check.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Product, error) {
	p, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies a partial update after the ownership check. A new image
// replaces the stored one; the previous binary is removed best effort.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, in UpdateInput, img *ImageUpload) (*Product, error) {
	p, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.SKU != nil {
		p.SKU = *in.SKU
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Description != nil {
		p.Description = *in.Description
	}

	if img != nil {
		image, err := s.uploadImage(ctx, img)
		if err != nil {
			return nil, err
		}
		s.deleteImage(ctx, p.Image)
		p.Image = image
	}

	updated, err := s.store.Update(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return updated, nil
}

// Delete removes a product after the ownership check. The stored image is
// deleted best effort: a failure is logged and never blocks the delete.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	p, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return err
	}

	s.deleteImage(ctx, p.Image)

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return nil
}

func (s *Service) getOwned(ctx context.Context, userID, id uuid.UUID) (*Product, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if err := verifyOwnership(p, userID); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) uploadImage(ctx context.Context, img *ImageUpload) (Image, error) {
	if img == nil {
		return Image{}, nil
	}
	if s.images == nil {
		return Image{}, ErrNoObjectStore
	}

	key := fmt.Sprintf("products/%s", uuid.New())
	url, err := s.images.Upload(ctx, key, img.ContentType, img.Body)
	if err != nil {
		s.logger.Error("image upload failed", "key", key, "error", err)
		return Image{}, ErrImageUpload
	}

	return Image{
		FileName: img.FileName,
		FilePath: url,
		Key:      key,
		FileType: img.ContentType,
		FileSize: formatFileSize(img.Size),
	}, nil
}

// deleteImage is an explicit non-transactional compensating action, not a
// two-phase commit: failures are logged and the primary operation proceeds.
func (s *Service) deleteImage(ctx context.Context, image Image) {
	if image.Key == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, image.Key); err != nil {
		s.logger.Warn("failed to delete product image", "key", image.Key, "error", err)
	}
}
