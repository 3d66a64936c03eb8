package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lindawangwe/mama-uncle-stores/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	// password hashes stay in the auth service's hands
	opts := options.FindOne().SetProjection(bson.M{"password": 0})
	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user %s: %w", id.Hex(), err)
	}
	return &user, nil
}

// FindCart re-reads only the cart attribute so that mutations start from the
// stored state rather than the copy loaded by the auth middleware.
func (r *UserRepository) FindCart(ctx context.Context, id primitive.ObjectID) ([]models.CartItem, error) {
	opts := options.FindOne().SetProjection(bson.M{"cart_items": 1})
	var doc struct {
		CartItems []models.CartItem `bson:"cart_items"`
	}
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find cart for user %s: %w", id.Hex(), err)
	}
	return doc.CartItems, nil
}

func (r *UserRepository) SaveCart(ctx context.Context, id primitive.ObjectID, items []models.CartItem) error {
	if items == nil {
		items = []models.CartItem{}
	}
	update := bson.M{"$set": bson.M{
		"cart_items": items,
		"updated_at": time.Now().UTC(),
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("save cart for user %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
