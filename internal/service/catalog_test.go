package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	assistantmock "github.com/oozye1/florist-sub000/internal/assistant/mock"
	"github.com/oozye1/florist-sub000/internal/domain"
	apperrors "github.com/oozye1/florist-sub000/pkg/errors"
)

func newCatalogTestService(products *mockProductRepository) *CatalogService {
	return NewCatalogService(products, assistantmock.NewProvider(), newTestLogger())
}

func TestCreateProduct_GeneratesSlug(t *testing.T) {
	products := new(mockProductRepository)
	svc := newCatalogTestService(products)
	ctx := context.Background()

	products.On("Create", ctx, mock.AnythingOfType("*domain.Product")).Return(nil)

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:          "Spring Bouquet",
		Price:         2500,
		StockQuantity: 10,
		Variants: []domain.Variant{
			{Name: "Deluxe", Price: 4500},
		},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, "spring-bouquet", product.Slug)
	assert.Equal(t, "GBP", product.Currency)
	assert.True(t, product.IsActive)
	// Variants without an explicit ID get one derived from their name.
	require.Len(t, product.Variants, 1)
	assert.Equal(t, "deluxe", product.Variants[0].ID)

	products.AssertExpectations(t)
}

func TestCreateProduct_SlugCollisionGetsSuffix(t *testing.T) {
	products := new(mockProductRepository)
	svc := newCatalogTestService(products)
	ctx := context.Background()

	products.On("Create", ctx, mock.AnythingOfType("*domain.Product")).
		Return(apperrors.AlreadyExists("product", "slug", "spring-bouquet")).Once()
	products.On("Create", ctx, mock.AnythingOfType("*domain.Product")).
		Return(nil).Once()

	product, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Spring Bouquet", Price: 2500})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(product.Slug, "spring-bouquet-"))

	products.AssertExpectations(t)
}

func TestCreateProduct_NegativePrice(t *testing.T) {
	svc := newCatalogTestService(new(mockProductRepository))

	product, err := svc.CreateProduct(context.Background(), CreateProductInput{Name: "Broken", Price: -1})

	assert.Nil(t, product)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestGetProductBySlug_Active(t *testing.T) {
	products := new(mockProductRepository)
	svc := newCatalogTestService(products)
	ctx := context.Background()

	products.On("GetBySlug", ctx, "spring-bouquet").Return(newTestProduct(), nil)

	product, err := svc.GetProductBySlug(ctx, "spring-bouquet")

	require.NoError(t, err)
	assert.Equal(t, "prod-1", product.ID)
}

func TestGetProductBySlug_InactiveIsGone(t *testing.T) {
	products := new(mockProductRepository)
	svc := newCatalogTestService(products)
	ctx := context.Background()

	product := newTestProduct()
	product.IsActive = false
	products.On("GetBySlug", ctx, "spring-bouquet").Return(product, nil)

	got, err := svc.GetProductBySlug(ctx, "spring-bouquet")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrGone)
}

func TestUpdateProduct_NameChangeRegeneratesSlug(t *testing.T) {
	products := new(mockProductRepository)
	svc := newCatalogTestService(products)
	ctx := context.Background()

	products.On("GetByID", ctx, "prod-1").Return(newTestProduct(), nil)
	products.On("Update", ctx, mock.AnythingOfType("*domain.Product")).Return(nil)

	name := "Summer Bouquet"
	product, err := svc.UpdateProduct(ctx, "prod-1", UpdateProductInput{Name: &name})

	require.NoError(t, err)
	assert.Equal(t, "Summer Bouquet", product.Name)
	assert.Equal(t, "summer-bouquet", product.Slug)
}

func TestUpdateProduct_PartialLeavesRestAlone(t *testing.T) {
	products := new(mockProductRepository)
	svc := newCatalogTestService(products)
	ctx := context.Background()

	products.On("GetByID", ctx, "prod-1").Return(newTestProduct(), nil)
	products.On("Update", ctx, mock.AnythingOfType("*domain.Product")).Return(nil)

	stock := 3
	product, err := svc.UpdateProduct(ctx, "prod-1", UpdateProductInput{StockQuantity: &stock})

	require.NoError(t, err)
	assert.Equal(t, 3, product.StockQuantity)
	assert.Equal(t, "Spring Bouquet", product.Name)
	assert.Equal(t, int64(2500), product.Price)
}

func TestUpdateProduct_NegativePrice(t *testing.T) {
	products := new(mockProductRepository)
	svc := newCatalogTestService(products)
	ctx := context.Background()

	products.On("GetByID", ctx, "prod-1").Return(newTestProduct(), nil)

	price := int64(-100)
	product, err := svc.UpdateProduct(ctx, "prod-1", UpdateProductInput{Price: &price})

	assert.Nil(t, product)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestDeactivateProduct(t *testing.T) {
	products := new(mockProductRepository)
	svc := newCatalogTestService(products)
	ctx := context.Background()

	products.On("GetByID", ctx, "prod-1").Return(newTestProduct(), nil)
	products.On("Update", ctx, mock.MatchedBy(func(p *domain.Product) bool {
		return !p.IsActive
	})).Return(nil)

	require.NoError(t, svc.DeactivateProduct(ctx, "prod-1"))

	products.AssertExpectations(t)
}

func TestAutofillProduct(t *testing.T) {
	svc := newCatalogTestService(new(mockProductRepository))

	suggestion, err := svc.AutofillProduct(context.Background(), "https://example.com/peonies.jpg", "Peony Bundle")

	require.NoError(t, err)
	assert.Equal(t, "Peony Bundle", suggestion.Name)
	assert.NotEmpty(t, suggestion.Description)
	assert.NotZero(t, suggestion.Price)
}

func TestAutofillProduct_MissingImage(t *testing.T) {
	svc := newCatalogTestService(new(mockProductRepository))

	suggestion, err := svc.AutofillProduct(context.Background(), "", "")

	assert.Nil(t, suggestion)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
