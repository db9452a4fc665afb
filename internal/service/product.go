package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flicky/storefront/internal/dto"
	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/repository"
)

const productCacheTTL = 60 * time.Second

// ProductService is the catalog. redisClient is optional; when set, single
// product reads are cached and every write invalidates the entry.
type ProductService struct {
	productRepo repository.ProductRepository
	redisClient *redis.Client
}

func NewProductService(productRepo repository.ProductRepository, redisClient *redis.Client) *ProductService {
	return &ProductService{productRepo: productRepo, redisClient: redisClient}
}

func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*model.Product, error) {
	if req.Price.IsNegative() || req.Stock < 0 {
		return nil, ErrInvalidProduct
	}
	product := &model.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Image:       req.Image,
		Price:       req.Price,
		Stock:       req.Stock,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.invalidateCache(ctx, product.ID)
	return product, nil
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	cacheKey := productCacheKey(id)

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Bytes(); err == nil {
			var p model.Product
			if json.Unmarshal(cached, &p) == nil {
				return &p, nil
			}
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(product); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, productCacheTTL)
		}
	}
	return product, nil
}

// List returns the whole catalog in insertion order.
func (s *ProductService) List(ctx context.Context) ([]model.Product, error) {
	return s.query(ctx, repository.ProductQuery{})
}

// ListByCategory matches the tag exactly, ignoring case. An empty tag matches nothing.
func (s *ProductService) ListByCategory(ctx context.Context, category string) ([]model.Product, error) {
	if category == "" {
		return []model.Product{}, nil
	}
	return s.query(ctx, repository.ProductQuery{Category: category})
}

// Search matches query case-insensitively against name and description.
func (s *ProductService) Search(ctx context.Context, query string) ([]model.Product, error) {
	return s.query(ctx, repository.ProductQuery{Search: query})
}

func (s *ProductService) ListPaged(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 20
	}
	offset := math.MaxInt
	if req.Page-1 <= math.MaxInt/req.Limit {
		offset = (req.Page - 1) * req.Limit
	}
	products, total, err := s.productRepo.List(ctx, repository.ProductQuery{
		Search:   req.Search,
		Category: req.Category,
		Sort:     req.Sort,
		Order:    req.Order,
		Limit:    req.Limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return &dto.ProductListResponse{
		Products: dto.NewProductResponses(products),
		Total:    total,
		Page:     req.Page,
		Limit:    req.Limit,
	}, nil
}

func (s *ProductService) Update(ctx context.Context, id string, req dto.UpdateProductRequest) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Image != nil {
		product.Image = *req.Image
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if product.Price.IsNegative() || product.Stock < 0 {
		return nil, ErrInvalidProduct
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidateCache(ctx, id)
	return product, nil
}

// Delete removes the product and returns the removed record.
func (s *ProductService) Delete(ctx context.Context, id string) (*model.Product, error) {
	removed, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("delete product: %w", err)
	}
	s.invalidateCache(ctx, id)
	return removed, nil
}

func (s *ProductService) query(ctx context.Context, q repository.ProductQuery) ([]model.Product, error) {
	products, _, err := s.productRepo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *ProductService) invalidateCache(ctx context.Context, id string) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, productCacheKey(id))
	}
}

func productCacheKey(id string) string { return "product:" + id }
