package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rajatverma/kirana/app/models"
	"github.com/rajatverma/kirana/app/repositories"
	"github.com/rajatverma/kirana/pkg/cache"
	"github.com/rajatverma/kirana/pkg/logger"
)

const (
	productCachePrefix = "products:"
	productCacheTTL    = 5 * time.Minute
)

// CategoryStore is the persistence surface for categories.
type CategoryStore interface {
	Create(ctx context.Context, c *models.Category) error
	All(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Category, error)
}

// CatalogProductStore extends the order-side product reads with the
// write operations the catalog endpoints need.
type CatalogProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	Search(ctx context.Context, term string, category primitive.ObjectID) ([]models.Product, error)
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
}

// ProductInput is the create/update request body for products. Price and
// countInStock skip the required rule: zero is a legal value for both
// (free items, sold-out listings), and required treats numeric zero as
// absent.
type ProductInput struct {
	Title        string   `json:"title"        validate:"required"`
	Price        float64  `json:"price"        validate:"gte=0"`
	Category     string   `json:"category"     validate:"required"`
	CountInStock int      `json:"countInStock" validate:"gte=0"`
	Description  string   `json:"description"  validate:"nullable"`
	Images       []string `json:"images"       validate:"nullable"`
}

// ListProductsQuery selects and filters the product listing.
type ListProductsQuery struct {
	Search   string
	Category string
}

// CatalogService implements category and product management.
type CatalogService struct {
	categories CategoryStore
	products   CatalogProductStore
}

func NewCatalogService(categories CategoryStore, products CatalogProductStore) *CatalogService {
	return &CatalogService{categories: categories, products: products}
}

// CreateCategory adds a new category. Names shorter than three
// characters after trimming are rejected.
func (s *CatalogService) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		return models.Category{}, newError(KindValidation, "categoryNameValidation")
	}

	c := models.Category{Name: name}
	if err := s.categories.Create(ctx, &c); err != nil {
		return models.Category{}, internalError(err)
	}
	return c, nil
}

// ListCategories returns every category.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	cats, err := s.categories.All(ctx)
	if err != nil {
		return nil, internalError(err)
	}
	if len(cats) == 0 {
		return nil, newError(KindNotFound, "noCategories")
	}
	return cats, nil
}

// CreateProduct adds a product after checking the category exists.
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (models.Product, error) {
	catID, err := primitive.ObjectIDFromHex(in.Category)
	if err != nil {
		return models.Product{}, newError(KindValidation, "categoryNotFound")
	}
	if _, err := s.categories.FindByID(ctx, catID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Product{}, newError(KindValidation, "categoryNotFound")
		}
		return models.Product{}, internalError(err)
	}

	p := models.Product{
		Title:        in.Title,
		Price:        in.Price,
		Category:     catID,
		CountInStock: in.CountInStock,
		Description:  in.Description,
		Images:       in.Images,
	}
	if err := s.products.Create(ctx, &p); err != nil {
		return models.Product{}, internalError(err)
	}

	s.invalidateProductCache(ctx)
	return p, nil
}

// ListProducts returns products matching the optional search term and
// category filter. Results are served from the cache when possible.
func (s *CatalogService) ListProducts(ctx context.Context, q ListProductsQuery) ([]models.Product, error) {
	var catID primitive.ObjectID
	if q.Category != "" {
		id, err := primitive.ObjectIDFromHex(q.Category)
		if err != nil {
			return nil, newError(KindValidation, "categoryNotFound")
		}
		catID = id
	}

	key := fmt.Sprintf("%ssearch=%s&category=%s", productCachePrefix, q.Search, q.Category)
	var cached []models.Product
	if cache.Get(ctx, key, &cached) {
		if len(cached) == 0 {
			return nil, newError(KindNotFound, "noProducts")
		}
		return cached, nil
	}

	products, err := s.products.Search(ctx, q.Search, catID)
	if err != nil {
		return nil, internalError(err)
	}
	cache.Set(ctx, key, products, productCacheTTL)

	if len(products) == 0 {
		return nil, newError(KindNotFound, "noProducts")
	}
	return products, nil
}

// GetProduct returns a single product and bumps its view counter.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Product{}, newError(KindNotFound, "productNotFound")
	}

	p, err := s.products.FindByID(ctx, oid)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Product{}, newError(KindNotFound, "productNotFound")
	}
	if err != nil {
		return models.Product{}, internalError(err)
	}

	if err := s.products.IncrementViews(ctx, oid); err != nil {
		logger.WithCtx(ctx).Warn("view counter update failed", "product_id", id, "error", err)
	}
	return p, nil
}

// UpdateProduct replaces the mutable fields of an existing product.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Product{}, newError(KindNotFound, "productNotFound")
	}
	catID, err := primitive.ObjectIDFromHex(in.Category)
	if err != nil {
		return models.Product{}, newError(KindValidation, "categoryNotFound")
	}
	if _, err := s.categories.FindByID(ctx, catID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Product{}, newError(KindValidation, "categoryNotFound")
		}
		return models.Product{}, internalError(err)
	}

	p, err := s.products.FindByID(ctx, oid)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Product{}, newError(KindNotFound, "productNotFound")
	}
	if err != nil {
		return models.Product{}, internalError(err)
	}

	p.Title = in.Title
	p.Price = in.Price
	p.Category = catID
	p.CountInStock = in.CountInStock
	p.Description = in.Description
	if in.Images != nil {
		p.Images = in.Images
	}

	if err := s.products.Update(ctx, &p); err != nil {
		return models.Product{}, internalError(err)
	}

	s.invalidateProductCache(ctx)
	return p, nil
}

// DeleteProduct removes a product.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return newError(KindNotFound, "productNotFound")
	}

	if err := s.products.Delete(ctx, oid); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return newError(KindNotFound, "productNotFound")
		}
		return internalError(err)
	}

	s.invalidateProductCache(ctx)
	return nil
}

func (s *CatalogService) invalidateProductCache(ctx context.Context) {
	if err := cache.DelPrefix(ctx, productCachePrefix); err != nil {
		logger.WithCtx(ctx).Warn("product cache invalidation failed", "error", err)
	}
}
