package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/oozye1/florist-sub000/internal/assistant"
	"github.com/oozye1/florist-sub000/internal/domain"
	"github.com/oozye1/florist-sub000/internal/repository"
	apperrors "github.com/oozye1/florist-sub000/pkg/errors"
	"github.com/oozye1/florist-sub000/pkg/slug"
)

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name          string           `json:"name" validate:"required,min=2,max=200"`
	Description   string           `json:"description"`
	Category      string           `json:"category"`
	Tags          []string         `json:"tags"`
	Price         int64            `json:"price" validate:"required,gte=0"`
	StockQuantity int              `json:"stock_quantity" validate:"gte=0"`
	ImageURLs     []string         `json:"image_urls" validate:"dive,url"`
	Variants      []domain.Variant `json:"variants"`
}

// UpdateProductInput holds the parameters for updating a product. Nil fields
// are left unchanged.
type UpdateProductInput struct {
	Name          *string           `json:"name" validate:"omitempty,min=2,max=200"`
	Description   *string           `json:"description"`
	Category      *string           `json:"category"`
	Tags          *[]string         `json:"tags"`
	Price         *int64            `json:"price" validate:"omitempty,gte=0"`
	StockQuantity *int              `json:"stock_quantity" validate:"omitempty,gte=0"`
	ImageURLs     *[]string         `json:"image_urls"`
	Variants      *[]domain.Variant `json:"variants"`
	IsActive      *bool             `json:"is_active"`
}

// CatalogService implements the business logic for the product catalogue.
type CatalogService struct {
	products  repository.ProductRepository
	assistant assistant.Provider
	logger    *slog.Logger
}

// NewCatalogService creates a new catalogue service.
func NewCatalogService(products repository.ProductRepository, assistantProvider assistant.Provider, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		products:  products,
		assistant: assistantProvider,
		logger:    logger,
	}
}

// CreateProduct creates a new product with a slug derived from its name.
// Slug collisions get a short random suffix rather than failing.
func (s *CatalogService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("product name is required")
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	for _, v := range input.Variants {
		if v.Price < 0 {
			return nil, apperrors.InvalidInput("variant price must not be negative")
		}
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:            uuid.New().String(),
		Name:          input.Name,
		Slug:          slug.Generate(input.Name),
		Description:   input.Description,
		Category:      input.Category,
		Tags:          input.Tags,
		Price:         input.Price,
		Currency:      "GBP",
		StockQuantity: input.StockQuantity,
		ImageURLs:     input.ImageURLs,
		Variants:      input.Variants,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for i := range product.Variants {
		if product.Variants[i].ID == "" {
			product.Variants[i].ID = slug.Generate(product.Variants[i].Name)
		}
	}

	err := s.products.Create(ctx, product)
	if errors.Is(err, apperrors.ErrAlreadyExists) {
		product.Slug = slug.GenerateWithSuffix(input.Name)
		err = s.products.Create(ctx, product)
	}
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("slug", product.Slug),
	)

	return product, nil
}

// GetProduct retrieves a product by ID.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	return s.products.GetByID(ctx, id)
}

// GetProductBySlug retrieves a product by its URL slug. Inactive products are
// reported as gone rather than not found so storefront links degrade cleanly.
func (s *CatalogService) GetProductBySlug(ctx context.Context, productSlug string) (*domain.Product, error) {
	if productSlug == "" {
		return nil, apperrors.InvalidInput("product slug is required")
	}

	product, err := s.products.GetBySlug(ctx, productSlug)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apperrors.Gone("product is no longer available")
	}
	return product, nil
}

// ListProducts returns products matching the filter with the total count.
func (s *CatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	return s.products.List(ctx, filter)
}

// UpdateProduct applies a partial update to a product.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil && *input.Name != product.Name {
		product.Name = *input.Name
		product.Slug = slug.Generate(*input.Name)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Tags != nil {
		product.Tags = *input.Tags
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, apperrors.InvalidInput("price must not be negative")
		}
		product.Price = *input.Price
	}
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			return nil, apperrors.InvalidInput("stock quantity must not be negative")
		}
		product.StockQuantity = *input.StockQuantity
	}
	if input.ImageURLs != nil {
		product.ImageURLs = *input.ImageURLs
	}
	if input.Variants != nil {
		product.Variants = *input.Variants
		for i := range product.Variants {
			if product.Variants[i].ID == "" {
				product.Variants[i].ID = slug.Generate(product.Variants[i].Name)
			}
		}
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "product updated", slog.String("product_id", product.ID))
	return product, nil
}

// DeactivateProduct hides a product from the storefront without deleting it;
// existing orders keep referencing it.
func (s *CatalogService) DeactivateProduct(ctx context.Context, id string) error {
	active := false
	_, err := s.UpdateProduct(ctx, id, UpdateProductInput{IsActive: &active})
	return err
}

// AutofillProduct asks the assistant to draft listing copy from a product
// photo. Nothing is persisted; the suggestion goes back to the admin for
// review.
func (s *CatalogService) AutofillProduct(ctx context.Context, imageURL, hint string) (*assistant.Suggestion, error) {
	if imageURL == "" {
		return nil, apperrors.InvalidInput("image url is required")
	}

	suggestion, err := s.assistant.Suggest(ctx, &assistant.SuggestInput{
		ImageURL: imageURL,
		Hint:     hint,
	})
	if err != nil {
		return nil, fmt.Errorf("autofill product: %w", err)
	}

	s.logger.InfoContext(ctx, "product autofill generated",
		slog.String("provider", s.assistant.Name()),
		slog.String("category", suggestion.Category),
	)

	return suggestion, nil
}
