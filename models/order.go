package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order is written once, when the payment provider confirms a session as paid.
type Order struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	User            primitive.ObjectID `json:"user" bson:"user"`
	Products        []OrderLine        `json:"products" bson:"products"`
	TotalAmount     float64            `json:"totalAmount" bson:"total_amount"`
	StripeSessionID string             `json:"stripeSessionId" bson:"stripe_session_id"`
	CreatedAt       time.Time          `json:"createdAt" bson:"created_at"`
}

type OrderLine struct {
	Product  primitive.ObjectID `json:"product" bson:"product"`
	Quantity int                `json:"quantity" bson:"quantity"`
	Price    float64            `json:"price" bson:"price"`
}

// OrderCreatedEvent is published after an order has been recorded.
type OrderCreatedEvent struct {
	Event           string      `json:"event"`
	OrderID         string      `json:"orderId"`
	UserID          string      `json:"userId"`
	TotalAmount     float64     `json:"totalAmount"`
	StripeSessionID string      `json:"stripeSessionId"`
	Products        []OrderLine `json:"products"`
	Timestamp       time.Time   `json:"timestamp"`
}
