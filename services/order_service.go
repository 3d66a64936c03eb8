package services

import (
	"context"
	"errors"

	"github.com/lindawangwe/mama-uncle-stores/apperrors"
	"github.com/lindawangwe/mama-uncle-stores/models"
	"github.com/lindawangwe/mama-uncle-stores/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderService reads back the principal's orders.
type OrderService interface {
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	GetForUser(ctx context.Context, userID primitive.ObjectID, orderID string) (*models.Order, error)
}

type orderServiceImpl struct {
	repo repository.OrderRepo
}

func NewOrderService(repo repository.OrderRepo) OrderService {
	return &orderServiceImpl{repo: repo}
}

func (s *orderServiceImpl) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.repo.FindByUser(ctx, userID)
}

// GetForUser hides other users' orders behind the same 404 as a missing one.
func (s *orderServiceImpl) GetForUser(ctx context.Context, userID primitive.ObjectID, orderID string) (*models.Order, error) {
	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, apperrors.Validation("Invalid order ID")
	}
	order, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && order.User != userID) {
		return nil, apperrors.NotFound("Order not found")
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}
