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

// CartService owns the principal's embedded cart.
type CartService interface {
	List(ctx context.Context, userID primitive.ObjectID) ([]models.CartLine, error)
	Add(ctx context.Context, userID primitive.ObjectID, productID, size string, quantity int) error
	Remove(ctx context.Context, userID primitive.ObjectID, productID, size string) error
	UpdateQuantity(ctx context.Context, userID primitive.ObjectID, productID string, quantity int, size string) error
	Clear(ctx context.Context, userID primitive.ObjectID) error
	ValidateStock(ctx context.Context, userID primitive.ObjectID) (*models.StockValidation, error)
}

type cartServiceImpl struct {
	users    repository.UserRepo
	products repository.ProductRepo
	locker   CartLocker
	logger   *zap.Logger
}

func NewCartService(users repository.UserRepo, products repository.ProductRepo, locker CartLocker, logger *zap.Logger) CartService {
	if logger == nil {
		logger = zap.L()
	}
	return &cartServiceImpl{
		users:    users,
		products: products,
		locker:   locker,
		logger:   logger,
	}
}

// List joins the cart against the catalog. Entries whose product has been
// deleted are left out of the result but stay in storage.
func (s *cartServiceImpl) List(ctx context.Context, userID primitive.ObjectID) ([]models.CartLine, error) {
	items, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	lines := []models.CartLine{}
	if len(items) == 0 {
		return lines, nil
	}

	byID, err := s.productsFor(ctx, items)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, models.CartLine{
			ProductID:    product.ID,
			Name:         product.Name,
			Price:        product.Price,
			Image:        product.Image,
			Stock:        product.Stock,
			SelectedSize: item.Size,
			Quantity:     item.Quantity,
			InStock:      product.Stock >= item.Quantity,
		})
	}
	return lines, nil
}

// Add merges quantity into the (product, size) entry, validating the summed
// quantity against current stock. Repeated calls accumulate.
func (s *cartServiceImpl) Add(ctx context.Context, userID primitive.ObjectID, productID, size string, quantity int) error {
	pid, err := parseProductID(productID)
	if err != nil {
		return err
	}
	if quantity < 1 {
		return apperrors.Validation("Quantity must be at least 1")
	}
	size = normalizeSize(size)

	return s.withCartLock(ctx, userID, func() error {
		product, err := s.findProduct(ctx, pid)
		if err != nil {
			return err
		}
		if product.Stock < quantity {
			return apperrors.InsufficientStock("Not enough stock available", productID, size, quantity, product.Stock)
		}

		items, err := s.loadCart(ctx, userID)
		if err != nil {
			return err
		}

		if idx := indexOf(items, pid, size); idx >= 0 {
			merged := items[idx].Quantity + quantity
			if product.Stock < merged {
				return apperrors.InsufficientStock("Adding this quantity exceeds available stock", productID, size, merged, product.Stock)
			}
			items[idx].Quantity = merged
		} else {
			items = append(items, models.CartItem{ProductID: pid, Size: size, Quantity: quantity})
		}

		items, err = s.pruneStale(ctx, userID, items)
		if err != nil {
			return err
		}
		return s.saveCart(ctx, userID, items)
	})
}

// Remove deletes the (product, size) entry. A missing entry is not an error.
func (s *cartServiceImpl) Remove(ctx context.Context, userID primitive.ObjectID, productID, size string) error {
	pid, err := parseProductID(productID)
	if err != nil {
		return err
	}
	size = normalizeSize(size)

	return s.withCartLock(ctx, userID, func() error {
		items, err := s.loadCart(ctx, userID)
		if err != nil {
			return err
		}

		kept := make([]models.CartItem, 0, len(items))
		for _, item := range items {
			if !item.Matches(pid, size) {
				kept = append(kept, item)
			}
		}

		// removal must not depend on the catalog being readable
		if pruned, err := s.pruneStale(ctx, userID, kept); err != nil {
			s.logger.Warn("Skipping stale cart entry pruning",
				zap.String("user_id", userID.Hex()),
				zap.Error(err),
			)
		} else {
			kept = pruned
		}
		if len(kept) == len(items) {
			return nil
		}
		return s.saveCart(ctx, userID, kept)
	})
}

// UpdateQuantity overwrites the stored quantity. quantity <= 0 removes the entry.
func (s *cartServiceImpl) UpdateQuantity(ctx context.Context, userID primitive.ObjectID, productID string, quantity int, size string) error {
	pid, err := parseProductID(productID)
	if err != nil {
		return err
	}
	size = normalizeSize(size)

	return s.withCartLock(ctx, userID, func() error {
		items, err := s.loadCart(ctx, userID)
		if err != nil {
			return err
		}

		idx := indexOf(items, pid, size)
		if idx < 0 {
			return apperrors.NotFound("Product not found in cart")
		}

		if quantity <= 0 {
			items = append(items[:idx], items[idx+1:]...)
		} else {
			product, err := s.findProduct(ctx, pid)
			if err != nil {
				return err
			}
			if product.Stock < quantity {
				return apperrors.InsufficientStock("Not enough stock available", productID, size, quantity, product.Stock)
			}
			items[idx].Quantity = quantity
		}

		items, err = s.pruneStale(ctx, userID, items)
		if err != nil {
			return err
		}
		return s.saveCart(ctx, userID, items)
	})
}

func (s *cartServiceImpl) Clear(ctx context.Context, userID primitive.ObjectID) error {
	return s.withCartLock(ctx, userID, func() error {
		return s.saveCart(ctx, userID, []models.CartItem{})
	})
}

// ValidateStock reports every entry whose quantity exceeds current stock.
// It never mutates the cart; entries for deleted products are reported with
// nothing available.
func (s *cartServiceImpl) ValidateStock(ctx context.Context, userID primitive.ObjectID) (*models.StockValidation, error) {
	items, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return &models.StockValidation{Valid: true}, nil
	}

	byID, err := s.productsFor(ctx, items)
	if err != nil {
		return nil, err
	}

	var invalid []models.StockViolation
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if ok && product.Stock >= item.Quantity {
			continue
		}
		violation := models.StockViolation{
			ProductID: item.ProductID,
			Name:      "Unknown Product",
			Requested: item.Quantity,
			Size:      item.Size,
		}
		if ok {
			violation.Name = product.Name
			violation.Available = product.Stock
		}
		invalid = append(invalid, violation)
	}

	if len(invalid) > 0 {
		return &models.StockValidation{Valid: false, InvalidItems: invalid}, nil
	}
	return &models.StockValidation{Valid: true}, nil
}

func (s *cartServiceImpl) withCartLock(ctx context.Context, userID primitive.ObjectID, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, userID.Hex())
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

func (s *cartServiceImpl) loadCart(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	items, err := s.users.FindCart(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthorized("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	for i := range items {
		items[i].Size = normalizeSize(items[i].Size)
	}
	return items, nil
}

func (s *cartServiceImpl) saveCart(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) error {
	if err := s.users.SaveCart(ctx, userID, items); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.Unauthorized("User not found")
		}
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *cartServiceImpl) findProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return product, nil
}

func (s *cartServiceImpl) productsFor(ctx context.Context, items []models.CartItem) (map[primitive.ObjectID]models.Product, error) {
	seen := make(map[primitive.ObjectID]bool, len(items))
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}
	byID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}

// pruneStale drops entries whose product no longer exists.
func (s *cartServiceImpl) pruneStale(ctx context.Context, userID primitive.ObjectID, items []models.CartItem) ([]models.CartItem, error) {
	if len(items) == 0 {
		return items, nil
	}
	byID, err := s.productsFor(ctx, items)
	if err != nil {
		return nil, err
	}

	kept := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		if _, ok := byID[item.ProductID]; ok {
			kept = append(kept, item)
			continue
		}
		s.logger.Info("Pruning cart entry for deleted product",
			zap.String("user_id", userID.Hex()),
			zap.String("product_id", item.ProductID.Hex()),
			zap.String("size", item.Size),
		)
	}
	return kept, nil
}

func parseProductID(raw string) (primitive.ObjectID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return primitive.NilObjectID, apperrors.Validation("Product ID is required")
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperrors.Validation("Invalid product ID")
	}
	return id, nil
}

func normalizeSize(size string) string {
	if size = strings.TrimSpace(size); size == "" {
		return models.DefaultSize
	}
	return size
}

func indexOf(items []models.CartItem, productID primitive.ObjectID, size string) int {
	for i, item := range items {
		if item.Matches(productID, size) {
			return i
		}
	}
	return -1
}
