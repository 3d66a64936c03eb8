package repository

import (
	"context"
	"errors"

	"github.com/lindawangwe/mama-uncle-stores/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("document not found")

// ErrDuplicate is returned when an insert violates a unique index.
var ErrDuplicate = errors.New("duplicate document")

// UserRepo loads principals and persists their embedded cart.
type UserRepo interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindCart(ctx context.Context, id primitive.ObjectID) ([]models.CartItem, error)
	SaveCart(ctx context.Context, id primitive.ObjectID, items []models.CartItem) error
}

// ProductListParams selects a page of the catalog.
type ProductListParams struct {
	Category string
	Featured *bool
	Search   string
	Page     int
	PerPage  int
}

// ProductRepo is the catalog store.
type ProductRepo interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	Find(ctx context.Context, params ProductListParams) ([]models.Product, error)
	Count(ctx context.Context, params ProductListParams) (int64, error)
	Create(ctx context.Context, product *models.Product) error
	SetFeatured(ctx context.Context, id primitive.ObjectID, featured bool) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// OrderRepo stores immutable orders. There is deliberately no update method.
type OrderRepo interface {
	Create(ctx context.Context, order *models.Order) error
	FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	EnsureIndexes(ctx context.Context) error
}
