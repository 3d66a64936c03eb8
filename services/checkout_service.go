package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lindawangwe/mama-uncle-stores/apperrors"
	"github.com/lindawangwe/mama-uncle-stores/models"
	"github.com/lindawangwe/mama-uncle-stores/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	metadataUserID   = "userId"
	metadataProducts = "products"

	sessionStatusExpired = "expired"
)

var errSessionNotFound = apperrors.NotFound("Checkout session not found")

// OrderEventPublisher announces recorded orders.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, event models.OrderCreatedEvent) error
}

// CheckoutService builds provider sessions and records orders once the
// provider confirms payment. It holds no pending-order state: the session
// metadata is the only record between creation and confirmation.
type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, userID primitive.ObjectID, products []models.CheckoutProduct) (*models.CheckoutSessionResult, error)
	HandleCheckoutSuccess(ctx context.Context, userID primitive.ObjectID, sessionID string) (*models.CheckoutOutcome, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type CheckoutConfig struct {
	Currency  string
	ClientURL string
}

type checkoutServiceImpl struct {
	gateway   PaymentGateway
	orders    repository.OrderRepo
	publisher OrderEventPublisher
	cfg       CheckoutConfig
	logger    *zap.Logger
}

func NewCheckoutService(gateway PaymentGateway, orders repository.OrderRepo, publisher OrderEventPublisher, cfg CheckoutConfig, logger *zap.Logger) CheckoutService {
	if logger == nil {
		logger = zap.L()
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &checkoutServiceImpl{
		gateway:   gateway,
		orders:    orders,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// CreateCheckoutSession emits one provider line item per input line; lines
// are not merged by product.
func (s *checkoutServiceImpl) CreateCheckoutSession(ctx context.Context, userID primitive.ObjectID, products []models.CheckoutProduct) (*models.CheckoutSessionResult, error) {
	if len(products) == 0 {
		return nil, apperrors.Validation("Invalid or empty products array")
	}

	var total int64
	lineItems := make([]SessionLineItem, 0, len(products))
	compact := make([]models.SessionProduct, 0, len(products))
	for i, p := range products {
		if p.Quantity < 0 {
			return nil, apperrors.Validation(fmt.Sprintf("products[%d]: quantity must be positive", i))
		}
		if p.Quantity == 0 {
			p.Quantity = 1
		}
		if p.Price < 0 {
			return nil, apperrors.Validation(fmt.Sprintf("products[%d]: price must not be negative", i))
		}
		if p.Name == "" {
			return nil, apperrors.Validation(fmt.Sprintf("products[%d]: name is required", i))
		}
		// the id must survive the round trip through the session metadata
		if _, err := primitive.ObjectIDFromHex(p.Identifier()); err != nil {
			return nil, apperrors.Validation(fmt.Sprintf("products[%d]: product id is required", i))
		}

		amount := ToMinorUnits(p.Price)
		total += amount * int64(p.Quantity)

		lineItems = append(lineItems, SessionLineItem{
			Name:       p.Name,
			Image:      p.Image,
			UnitAmount: amount,
			Quantity:   int64(p.Quantity),
		})
		compact = append(compact, models.SessionProduct{
			ID:       p.Identifier(),
			Quantity: p.Quantity,
			Price:    p.Price,
		})
	}

	encoded, err := json.Marshal(compact)
	if err != nil {
		return nil, fmt.Errorf("encode session products: %w", err)
	}

	sess, err := s.gateway.CreateSession(ctx, CreateSessionRequest{
		Currency:   s.cfg.Currency,
		LineItems:  lineItems,
		SuccessURL: s.cfg.ClientURL + "/purchase-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.cfg.ClientURL + "/purchase-cancel",
		Metadata: map[string]string{
			metadataUserID:   userID.Hex(),
			metadataProducts: string(encoded),
		},
	})
	if err != nil {
		return nil, apperrors.Upstream("Error processing checkout", err)
	}

	s.logger.Info("Checkout session created",
		zap.String("session_id", sess.ID),
		zap.String("user_id", userID.Hex()),
		zap.Int64("amount_minor", total),
		zap.Int("lines", len(lineItems)),
	)

	return &models.CheckoutSessionResult{
		SessionID:   sess.ID,
		URL:         sess.URL,
		TotalAmount: FromMinorUnits(total),
	}, nil
}

// HandleCheckoutSuccess records the order for a paid session. Sessions that
// are not paid yield a pending or failed outcome and no order. A session
// created for another user is reported as not found.
func (s *checkoutServiceImpl) HandleCheckoutSuccess(ctx context.Context, userID primitive.ObjectID, sessionID string) (*models.CheckoutOutcome, error) {
	if sessionID == "" {
		return nil, apperrors.Validation("Session ID is required")
	}

	existing, err := s.orders.FindBySessionID(ctx, sessionID)
	if err == nil {
		if existing.User != userID {
			return nil, errSessionNotFound
		}
		return &models.CheckoutOutcome{
			Status:        models.CheckoutStatusPaid,
			PaymentStatus: models.CheckoutStatusPaid,
			OrderID:       existing.ID.Hex(),
			Duplicate:     true,
		}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("look up order for session: %w", err)
	}

	sess, err := s.gateway.GetSession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Upstream("Error retrieving checkout session", err)
	}
	if sess.Metadata[metadataUserID] != userID.Hex() {
		s.logger.Warn("Checkout session confirmed by another user",
			zap.String("session_id", sessionID),
			zap.String("user_id", userID.Hex()),
		)
		return nil, errSessionNotFound
	}
	return s.recordSession(ctx, sess)
}

// HandleWebhook verifies a provider callback and records the order for
// completed, paid checkout sessions. Other event types are acknowledged.
func (s *checkoutServiceImpl) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ConstructWebhookEvent(payload, signature)
	if err != nil {
		s.logger.Warn("Webhook signature verification failed", zap.Error(err))
		return apperrors.Validation("Invalid webhook")
	}

	s.logger.Info("Processing webhook",
		zap.String("event_type", event.Type),
		zap.String("event_id", event.ID),
	)

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		if event.Session == nil {
			return apperrors.Validation("Webhook event carries no checkout session")
		}
		outcome, err := s.recordSession(ctx, event.Session)
		if err != nil {
			return err
		}
		s.logger.Info("Webhook checkout processed",
			zap.String("session_id", event.Session.ID),
			zap.String("status", outcome.Status),
			zap.String("order_id", outcome.OrderID),
		)
	default:
		s.logger.Info("Unhandled webhook event type", zap.String("event_type", event.Type))
	}
	return nil
}

func (s *checkoutServiceImpl) recordSession(ctx context.Context, sess *PaymentSession) (*models.CheckoutOutcome, error) {
	if sess.PaymentStatus != models.CheckoutStatusPaid {
		status := models.CheckoutStatusPending
		if sess.Status == sessionStatusExpired {
			status = models.CheckoutStatusFailed
		}
		s.logger.Info("Checkout session not paid",
			zap.String("session_id", sess.ID),
			zap.String("payment_status", sess.PaymentStatus),
			zap.String("session_status", sess.Status),
		)
		return &models.CheckoutOutcome{Status: status, PaymentStatus: sess.PaymentStatus}, nil
	}

	order, err := orderFromSession(sess)
	if err != nil {
		return nil, apperrors.Upstream("Checkout session metadata is malformed", err)
	}

	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			existing, findErr := s.orders.FindBySessionID(ctx, sess.ID)
			if findErr != nil {
				return nil, fmt.Errorf("load existing order: %w", findErr)
			}
			return &models.CheckoutOutcome{
				Status:        models.CheckoutStatusPaid,
				PaymentStatus: sess.PaymentStatus,
				OrderID:       existing.ID.Hex(),
				Duplicate:     true,
			}, nil
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.Hex()),
		zap.String("session_id", sess.ID),
		zap.Float64("total_amount", order.TotalAmount),
	)
	s.publishOrderCreated(ctx, order)

	return &models.CheckoutOutcome{
		Status:        models.CheckoutStatusPaid,
		PaymentStatus: sess.PaymentStatus,
		OrderID:       order.ID.Hex(),
	}, nil
}

func (s *checkoutServiceImpl) publishOrderCreated(ctx context.Context, order *models.Order) {
	if s.publisher == nil {
		return
	}
	event := models.OrderCreatedEvent{
		Event:           "order.created",
		OrderID:         order.ID.Hex(),
		UserID:          order.User.Hex(),
		TotalAmount:     order.TotalAmount,
		StripeSessionID: order.StripeSessionID,
		Products:        order.Products,
		Timestamp:       order.CreatedAt,
	}
	if err := s.publisher.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish order event",
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}

// orderFromSession rebuilds the order lines from the session metadata. The
// total is the provider's confirmed amount, never a local recomputation.
func orderFromSession(sess *PaymentSession) (*models.Order, error) {
	userID, err := primitive.ObjectIDFromHex(sess.Metadata[metadataUserID])
	if err != nil {
		return nil, fmt.Errorf("metadata %s: %w", metadataUserID, err)
	}

	var compact []models.SessionProduct
	if err := json.Unmarshal([]byte(sess.Metadata[metadataProducts]), &compact); err != nil {
		return nil, fmt.Errorf("metadata %s: %w", metadataProducts, err)
	}

	lines := make([]models.OrderLine, 0, len(compact))
	for _, p := range compact {
		productID, err := primitive.ObjectIDFromHex(p.ID)
		if err != nil {
			return nil, fmt.Errorf("metadata product id %q: %w", p.ID, err)
		}
		lines = append(lines, models.OrderLine{
			Product:  productID,
			Quantity: p.Quantity,
			Price:    p.Price,
		})
	}

	return &models.Order{
		User:            userID,
		Products:        lines,
		TotalAmount:     FromMinorUnits(sess.AmountTotal),
		StripeSessionID: sess.ID,
		CreatedAt:       time.Now().UTC(),
	}, nil
}
