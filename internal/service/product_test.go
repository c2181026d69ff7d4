package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellpoint/pos-backend/internal/cache"
	"github.com/sellpoint/pos-backend/internal/models"
)

func TestProductService_GetProductByID_ReadThrough(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createProduct(t, "widget", 9.99, 4)

	got, err := env.Products.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "widget", got.Name)
	require.True(t, env.Cache.Has(cache.ProductKey(p.ID)))

	// a direct store write is invisible until the entry is invalidated
	require.NoError(t, env.DB.Model(&models.Product{}).Where("id = ?", p.ID).Update("price", 19.99).Error)

	got, err = env.Products.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 9.99, got.Price)

	env.Cache.Delete(cache.ProductKey(p.ID))
	got, err = env.Products.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 19.99, got.Price)
}

func TestProductService_GetProductByID_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.Products.GetProductByID(context.Background(), 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "42")
}

func TestProductService_GetAllProducts_CachesList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createProduct(t, "one", 1, 1)

	products, err := env.Products.GetAllProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)

	env.createProduct(t, "two", 2, 2)

	products, err = env.Products.GetAllProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1, "direct insert must stay invisible while the list is cached")

	// a service-level create invalidates the list
	_, err = env.Products.CreateProduct(ctx, CreateProductRequest{Name: "three", Price: 3, Stock: 3})
	require.NoError(t, err)

	products, err = env.Products.GetAllProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 3)
}

func TestProductService_CreateProduct_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateProductRequest
	}{
		{name: "empty name", req: CreateProductRequest{Price: 1, Stock: 1}},
		{name: "negative price", req: CreateProductRequest{Name: "x", Price: -1, Stock: 1}},
		{name: "negative stock", req: CreateProductRequest{Name: "x", Price: 1, Stock: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Products.CreateProduct(ctx, tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	require.EqualValues(t, 0, env.countRows(t, &models.Product{}))
}

func TestProductService_UpdateProduct_PatchesAndInvalidates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createProduct(t, "widget", 5, 10)

	_, err := env.Products.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	_, err = env.Products.GetAllProducts(ctx)
	require.NoError(t, err)

	newPrice := 7.5
	updated, err := env.Products.UpdateProduct(ctx, p.ID, UpdateProductRequest{Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, 7.5, updated.Price)
	assert.Equal(t, "widget", updated.Name)

	assert.False(t, env.Cache.Has(cache.ProductKey(p.ID)))
	assert.False(t, env.Cache.Has(cache.AllProductsKey))

	got, err := env.Products.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7.5, got.Price)
}

func TestProductService_UpdateProduct_NotFound(t *testing.T) {
	env := newTestEnv(t)

	name := "ghost"
	_, err := env.Products.UpdateProduct(context.Background(), 99, UpdateProductRequest{Name: &name})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductService_DeleteProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.createProduct(t, "widget", 5, 10)
	_, err := env.Products.GetProductByID(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, env.Products.DeleteProduct(ctx, p.ID))
	assert.False(t, env.Cache.Has(cache.ProductKey(p.ID)))
	require.EqualValues(t, 0, env.countRows(t, &models.Product{}))

	err = env.Products.DeleteProduct(ctx, p.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductService_ListPaymentMethods_Seeded(t *testing.T) {
	env := newTestEnv(t)

	methods, err := env.Products.ListPaymentMethods(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, methods)

	names := make([]string, 0, len(methods))
	for _, m := range methods {
		require.True(t, m.IsActive)
		names = append(names, m.Name)
	}
	assert.Contains(t, names, "cash")
	assert.Contains(t, names, "credit card")
}

func TestProductService_SearchProducts_RequiresQuery(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.Products.SearchProducts(context.Background(), "", 0, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProductService_SearchProducts_UnavailableWithoutCluster(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.Products.SearchProducts(context.Background(), "widget", 0, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}
