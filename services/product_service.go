package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lindawangwe/mama-uncle-stores/apperrors"
	"github.com/lindawangwe/mama-uncle-stores/models"
	"github.com/lindawangwe/mama-uncle-stores/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ProductCacher is the read-through cache in front of the catalog.
type ProductCacher interface {
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
	SetProduct(ctx context.Context, product *models.Product)
	GetFeatured(ctx context.Context) ([]models.Product, error)
	SetFeatured(ctx context.Context, products []models.Product)
	InvalidateProduct(ctx context.Context, productID string)
}

type ProductCreateRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Image       string  `json:"image" binding:"omitempty,url"`
	Category    string  `json:"category" binding:"required"`
	Stock       int     `json:"stock" binding:"gte=0"`
	IsFeatured  bool    `json:"isFeatured"`
}

type ProductPage struct {
	Products   []models.Product `json:"products"`
	Page       int              `json:"page"`
	PerPage    int              `json:"perPage"`
	Total      int64            `json:"total"`
	TotalPages int64            `json:"totalPages"`
}

// ProductService is the catalog. Stock is read here and by the cart, never
// written by either.
type ProductService interface {
	ListProducts(ctx context.Context, page, perPage int) (*ProductPage, error)
	GetFeatured(ctx context.Context) ([]models.Product, error)
	Search(ctx context.Context, query string) ([]models.Product, error)
	ListByCategory(ctx context.Context, category string) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, req ProductCreateRequest) (*models.Product, error)
	ToggleFeatured(ctx context.Context, id string) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type productServiceImpl struct {
	repo   repository.ProductRepo
	cache  ProductCacher
	logger *zap.Logger
}

func NewProductService(repo repository.ProductRepo, cache ProductCacher, logger *zap.Logger) ProductService {
	if logger == nil {
		logger = zap.L()
	}
	return &productServiceImpl{repo: repo, cache: cache, logger: logger}
}

func (s *productServiceImpl) ListProducts(ctx context.Context, page, perPage int) (*ProductPage, error) {
	params := repository.ProductListParams{Page: page, PerPage: perPage}
	products, err := s.repo.Find(ctx, params)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, params)
	if err != nil {
		return nil, err
	}

	var totalPages int64
	if perPage > 0 {
		totalPages = (total + int64(perPage) - 1) / int64(perPage)
	}
	return &ProductPage{
		Products:   products,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func (s *productServiceImpl) GetFeatured(ctx context.Context) ([]models.Product, error) {
	if s.cache != nil {
		cached, err := s.cache.GetFeatured(ctx)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn("Featured cache read failed", zap.Error(err))
		}
	}

	featured := true
	products, err := s.repo.Find(ctx, repository.ProductListParams{Featured: &featured})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetFeatured(ctx, products)
	}
	return products, nil
}

func (s *productServiceImpl) Search(ctx context.Context, query string) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.Validation("Search query is required")
	}
	return s.repo.Find(ctx, repository.ProductListParams{Search: query})
}

func (s *productServiceImpl) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	if category == "" {
		return nil, apperrors.Validation("Category is required")
	}
	return s.repo.Find(ctx, repository.ProductListParams{Category: category})
}

func (s *productServiceImpl) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	pid, err := parseProductID(id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.GetProduct(ctx, pid.Hex())
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn("Product cache read failed", zap.String("product_id", pid.Hex()), zap.Error(err))
		}
	}

	product, err := s.repo.FindByID(ctx, pid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Product not found")
	}
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetProduct(ctx, product)
	}
	return product, nil
}

func (s *productServiceImpl) CreateProduct(ctx context.Context, req ProductCreateRequest) (*models.Product, error) {
	product := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Image:       req.Image,
		Category:    strings.TrimSpace(req.Category),
		Stock:       req.Stock,
		IsFeatured:  req.IsFeatured,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.invalidate(ctx, product.ID)
	s.logger.Info("Product created", zap.String("product_id", product.ID.Hex()), zap.String("name", product.Name))
	return product, nil
}

func (s *productServiceImpl) ToggleFeatured(ctx context.Context, id string) (*models.Product, error) {
	pid, err := parseProductID(id)
	if err != nil {
		return nil, err
	}
	current, err := s.repo.FindByID(ctx, pid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Product not found")
	}
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.SetFeatured(ctx, pid, !current.IsFeatured)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Product not found")
	}
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, pid)
	return updated, nil
}

// DeleteProduct removes a product. Cart entries that reference it become
// stale and are pruned by the owning cart's next mutation.
func (s *productServiceImpl) DeleteProduct(ctx context.Context, id string) error {
	pid, err := parseProductID(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, pid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Product not found")
		}
		return err
	}
	s.invalidate(ctx, pid)
	s.logger.Info("Product deleted", zap.String("product_id", pid.Hex()))
	return nil
}

func (s *productServiceImpl) invalidate(ctx context.Context, id primitive.ObjectID) {
	if s.cache != nil {
		s.cache.InvalidateProduct(ctx, id.Hex())
	}
}
