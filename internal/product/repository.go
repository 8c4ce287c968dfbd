package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"inventory-api/internal/database"
)

var (
	ErrNotFound = errors.New("product not found")
	ErrNotOwner = errors.New("user not authorized")
)

// Store is the persistence boundary for products. The bun repository is the
// canonical implementation; CachingStore decorates it with Redis.
type Store interface {
	Create(ctx context.Context, p *Product) (*Product, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Update(ctx context.Context, p *Product) (*Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repository handles product persistence in Postgres.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new product.
func (r *Repository) Create(ctx context.Context, p *Product) (*Product, error) {
	dbProduct := mapModelToDBProduct(p)

	_, err := r.db.NewInsert().
		Model(dbProduct).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return mapDBProductToModel(dbProduct), nil
}

// ListByUser returns every product owned by the user, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Product, error) {
	var dbProducts []database.Product
	err := r.db.NewSelect().
		Model(&dbProducts).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]Product, 0, len(dbProducts))
	for i := range dbProducts {
		products = append(products, *mapDBProductToModel(&dbProducts[i]))
	}
	return products, nil
}

// GetByID retrieves a product by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	dbProduct := new(database.Product)
	err := r.db.NewSelect().
		Model(dbProduct).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return mapDBProductToModel(dbProduct), nil
}

// Update persists the full state of a product.
func (r *Repository) Update(ctx context.Context, p *Product) (*Product, error) {
	dbProduct := mapModelToDBProduct(p)

	result, err := r.db.NewUpdate().
		Model(dbProduct).
		Set("name = ?", dbProduct.Name).
		Set("sku = ?", dbProduct.SKU).
		Set("category = ?", dbProduct.Category).
		Set("quantity = ?", dbProduct.Quantity).
		Set("price = ?", dbProduct.Price).
		Set("description = ?", dbProduct.Description).
		Set("image_file_name = ?", dbProduct.ImageFileName).
		Set("image_file_path = ?", dbProduct.ImageFilePath).
		Set("image_key = ?", dbProduct.ImageKey).
		Set("image_file_type = ?", dbProduct.ImageFileType).
		Set("image_file_size = ?", dbProduct.ImageFileSize).
		Set("updated_at = NOW()").
		Where("id = ?", dbProduct.ID).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, p.ID)
}

// Delete removes a product.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.Product)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func mapModelToDBProduct(p *Product) *database.Product {
	return &database.Product{
		ID:            p.ID,
		UserID:        p.UserID,
		Name:          p.Name,
		SKU:           p.SKU,
		Category:      p.Category,
		Quantity:      p.Quantity,
		Price:         p.Price,
		Description:   p.Description,
		ImageFileName: p.Image.FileName,
		ImageFilePath: p.Image.FilePath,
		ImageKey:      p.Image.Key,
		ImageFileType: p.Image.FileType,
		ImageFileSize: p.Image.FileSize,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func mapDBProductToModel(dbp *database.Product) *Product {
	return &Product{
		ID:          dbp.ID,
		UserID:      dbp.UserID,
		Name:        dbp.Name,
		SKU:         dbp.SKU,
		Category:    dbp.Category,
		Quantity:    dbp.Quantity,
		Price:       dbp.Price,
		Description: dbp.Description,
		Image: Image{
			FileName: dbp.ImageFileName,
			FilePath: dbp.ImageFilePath,
			Key:      dbp.ImageKey,
			FileType: dbp.ImageFileType,
			FileSize: dbp.ImageFileSize,
		},
		CreatedAt: dbp.CreatedAt,
		UpdatedAt: dbp.UpdatedAt,
	}
}
