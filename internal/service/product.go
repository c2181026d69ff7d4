package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sellpoint/pos-backend/internal/cache"
	"github.com/sellpoint/pos-backend/internal/logging"
	"github.com/sellpoint/pos-backend/internal/models"
	"github.com/sellpoint/pos-backend/internal/mykafka"
	"github.com/sellpoint/pos-backend/internal/repo"
	"github.com/sellpoint/pos-backend/internal/service/search"
)

// ProductService is the read-through cached product path. The checkout
// engine deliberately bypasses it: cached stock may be arbitrarily stale.
type ProductService struct {
	Repo     *repo.GormRepo
	Cache    *cache.Cache
	Producer *mykafka.Producer
	Search   *search.Index
}

type CreateProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
}

func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	if v, ok := s.Cache.Get(cache.AllProductsKey); ok {
		if products, ok := v.([]models.Product); ok {
			return products, nil
		}
	}

	products, err := s.Repo.GetProducts(ctx)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(cache.AllProductsKey, products)
	return products, nil
}

func (s *ProductService) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	key := cache.ProductKey(id)
	if v, ok := s.Cache.Get(key); ok {
		if p, ok := v.(models.Product); ok {
			return &p, nil
		}
	}

	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, err
	}
	s.Cache.Set(key, *p)
	return p, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must be >= 0", ErrValidation)
	}

	prod := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}
	if err := s.Repo.CreateProduct(ctx, &prod); err != nil {
		return nil, err
	}

	s.Cache.Delete(cache.AllProductsKey)
	s.afterCatalogChange(ctx, prod, "product_created")
	return &prod, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id uint, req UpdateProductRequest) (*models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("%w: name required", ErrValidation)
		}
		prod.Name = *req.Name
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
		prod.Price = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, fmt.Errorf("%w: stock must be >= 0", ErrValidation)
		}
		prod.Stock = *req.Stock
	}

	if err := s.Repo.SaveProduct(ctx, prod); err != nil {
		return nil, err
	}

	s.Cache.Delete(cache.AllProductsKey)
	s.Cache.Delete(cache.ProductKey(id))
	s.afterCatalogChange(ctx, *prod, "product_updated")
	return prod, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return err
	}

	s.Cache.Delete(cache.AllProductsKey)
	s.Cache.Delete(cache.ProductKey(id))

	l := logging.FromContext(ctx)
	if err := s.Search.DeleteProduct(ctx, id); err != nil {
		l.Warn("search_delete_failed", "product_id", id, "error", err)
	}
	event := map[string]any{"type": "product_deleted", "productID": id}
	if err := s.Producer.PublishEvent(ctx, mykafka.TopicProductEvents, fmt.Sprint(id), event); err != nil {
		l.Warn("event_publish_failed", "topic", mykafka.TopicProductEvents, "error", err)
	}
	return nil
}

func (s *ProductService) SearchProducts(ctx context.Context, query string, from, size int) (int64, []models.Product, error) {
	if query == "" {
		return 0, nil, fmt.Errorf("%w: query required", ErrValidation)
	}
	if s.Search == nil || s.Search.ES == nil {
		return 0, nil, fmt.Errorf("%w: search is not configured", ErrUnavailable)
	}
	return s.Search.Search(ctx, query, from, size)
}

func (s *ProductService) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	return s.Repo.ListPaymentMethods(ctx)
}

// afterCatalogChange fans a committed catalog write out to the event bus and
// the search index. Both are best effort.
func (s *ProductService) afterCatalogChange(ctx context.Context, prod models.Product, eventType string) {
	l := logging.FromContext(ctx)

	if err := s.Search.IndexProduct(ctx, prod); err != nil {
		l.Warn("search_index_failed", "product_id", prod.ID, "error", err)
	}

	event := map[string]any{
		"type":      eventType,
		"productID": prod.ID,
		"name":      prod.Name,
	}
	if err := s.Producer.PublishEvent(ctx, mykafka.TopicProductEvents, fmt.Sprint(prod.ID), event); err != nil {
		l.Warn("event_publish_failed", "topic", mykafka.TopicProductEvents, "error", err)
	}
}
