package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/lindawangwe/mama-uncle-stores/apperrors"
	"github.com/lindawangwe/mama-uncle-stores/models"
	"github.com/lindawangwe/mama-uncle-stores/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type checkoutFixture struct {
	svc       services.CheckoutService
	gateway   *mockGateway
	orders    *mockOrderRepo
	publisher *mockPublisher
	userID    primitive.ObjectID
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		gateway:   newMockGateway(),
		orders:    &mockOrderRepo{},
		publisher: &mockPublisher{},
		userID:    primitive.NewObjectID(),
	}
	f.svc = services.NewCheckoutService(f.gateway, f.orders, f.publisher, services.CheckoutConfig{
		Currency:  "usd",
		ClientURL: "http://localhost:5173",
	}, zap.NewNop())
	return f
}

// paidSession registers a paid provider session for the given lines.
func (f *checkoutFixture) paidSession(t *testing.T, amountTotal int64, lines ...models.SessionProduct) string {
	t.Helper()
	encoded, err := json.Marshal(lines)
	require.NoError(t, err)
	id := "cs_test_" + primitive.NewObjectID().Hex()
	f.gateway.sessions[id] = &services.PaymentSession{
		ID:            id,
		Status:        "complete",
		PaymentStatus: "paid",
		AmountTotal:   amountTotal,
		Metadata: map[string]string{
			"userId":   f.userID.Hex(),
			"products": string(encoded),
		},
	}
	return id
}

func TestCreateCheckoutSession_ComputesTotalInMinorUnits(t *testing.T) {
	f := newCheckoutFixture()
	p1, p2 := primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex()

	result, err := f.svc.CreateCheckoutSession(context.Background(), f.userID, []models.CheckoutProduct{
		{ID: p1, Name: "Shirt", Price: 10.00, Quantity: 2, Image: "https://img.example.com/shirt.png"},
		{ProductID: p2, Name: "Socks", Price: 5.50, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 25.50, result.TotalAmount)
	assert.NotEmpty(t, result.SessionID)

	require.Len(t, f.gateway.created, 1)
	req := f.gateway.created[0]
	assert.Equal(t, "usd", req.Currency)
	require.Len(t, req.LineItems, 2)
	assert.Equal(t, services.SessionLineItem{Name: "Shirt", Image: "https://img.example.com/shirt.png", UnitAmount: 1000, Quantity: 2}, req.LineItems[0])
	assert.Equal(t, int64(550), req.LineItems[1].UnitAmount)
	assert.Equal(t, "http://localhost:5173/purchase-success?session_id={CHECKOUT_SESSION_ID}", req.SuccessURL)
	assert.Equal(t, "http://localhost:5173/purchase-cancel", req.CancelURL)

	assert.Equal(t, f.userID.Hex(), req.Metadata["userId"])
	var compact []models.SessionProduct
	require.NoError(t, json.Unmarshal([]byte(req.Metadata["products"]), &compact))
	assert.Equal(t, []models.SessionProduct{
		{ID: p1, Quantity: 2, Price: 10},
		{ID: p2, Quantity: 1, Price: 5.5},
	}, compact)
}

func TestCreateCheckoutSession_DoesNotMergeLines(t *testing.T) {
	f := newCheckoutFixture()
	id := primitive.NewObjectID().Hex()

	result, err := f.svc.CreateCheckoutSession(context.Background(), f.userID, []models.CheckoutProduct{
		{ID: id, Name: "Shirt", Price: 10, Quantity: 1},
		{ID: id, Name: "Shirt", Price: 10, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 20.0, result.TotalAmount)
	assert.Len(t, f.gateway.created[0].LineItems, 2)
}

func TestCreateCheckoutSession_MissingQuantityDefaultsToOne(t *testing.T) {
	f := newCheckoutFixture()

	result, err := f.svc.CreateCheckoutSession(context.Background(), f.userID, []models.CheckoutProduct{
		{ID: primitive.NewObjectID().Hex(), Name: "Mug", Price: 7.25},
	})
	require.NoError(t, err)
	assert.Equal(t, 7.25, result.TotalAmount)
	assert.Equal(t, int64(1), f.gateway.created[0].LineItems[0].Quantity)
}

func TestCreateCheckoutSession_Validation(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	_, err := f.svc.CreateCheckoutSession(ctx, f.userID, nil)
	assertKind(t, err, apperrors.KindValidation)

	_, err = f.svc.CreateCheckoutSession(ctx, f.userID, []models.CheckoutProduct{})
	assertKind(t, err, apperrors.KindValidation)

	id := primitive.NewObjectID().Hex()
	_, err = f.svc.CreateCheckoutSession(ctx, f.userID, []models.CheckoutProduct{{ID: id, Name: "x", Price: 1, Quantity: -1}})
	assertKind(t, err, apperrors.KindValidation)

	_, err = f.svc.CreateCheckoutSession(ctx, f.userID, []models.CheckoutProduct{{ID: id, Name: "x", Price: -1, Quantity: 1}})
	assertKind(t, err, apperrors.KindValidation)

	// an order could not be rebuilt from these after payment
	_, err = f.svc.CreateCheckoutSession(ctx, f.userID, []models.CheckoutProduct{{Name: "Tee", Price: 10, Quantity: 1}})
	assertKind(t, err, apperrors.KindValidation)

	_, err = f.svc.CreateCheckoutSession(ctx, f.userID, []models.CheckoutProduct{
		{ID: id, Name: "Shirt", Price: 10, Quantity: 1},
		{ProductID: "sku-123", Name: "Tee", Price: 10, Quantity: 1},
	})
	assertKind(t, err, apperrors.KindValidation)
	assert.Contains(t, err.Error(), "products[1]")

	assert.Empty(t, f.gateway.created)
}

func TestCreateCheckoutSession_ProviderFailure(t *testing.T) {
	f := newCheckoutFixture()
	f.gateway.createErr = errors.New("stripe: api key invalid")

	_, err := f.svc.CreateCheckoutSession(context.Background(), f.userID, []models.CheckoutProduct{
		{ID: primitive.NewObjectID().Hex(), Name: "Shirt", Price: 10, Quantity: 1},
	})
	assertKind(t, err, apperrors.KindUpstream)
}

func TestHandleCheckoutSuccess_PaidCreatesOrder(t *testing.T) {
	f := newCheckoutFixture()
	productID := primitive.NewObjectID()
	// the provider total wins over a local recomputation
	sessionID := f.paidSession(t, 1800, models.SessionProduct{ID: productID.Hex(), Quantity: 2, Price: 10})

	outcome, err := f.svc.HandleCheckoutSuccess(context.Background(), f.userID, sessionID)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutStatusPaid, outcome.Status)
	assert.NotEmpty(t, outcome.OrderID)
	assert.False(t, outcome.Duplicate)

	require.Len(t, f.orders.orders, 1)
	order := f.orders.orders[0]
	assert.Equal(t, outcome.OrderID, order.ID.Hex())
	assert.Equal(t, f.userID, order.User)
	assert.Equal(t, 18.0, order.TotalAmount)
	assert.Equal(t, sessionID, order.StripeSessionID)
	assert.Equal(t, []models.OrderLine{{Product: productID, Quantity: 2, Price: 10}}, order.Products)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, "order.created", f.publisher.events[0].Event)
	assert.Equal(t, outcome.OrderID, f.publisher.events[0].OrderID)
}

func TestHandleCheckoutSuccess_NotPaidCreatesNoOrder(t *testing.T) {
	cases := []struct {
		name          string
		status        string
		paymentStatus string
		want          string
	}{
		{"open and unpaid", "open", "unpaid", models.CheckoutStatusPending},
		{"expired", "expired", "unpaid", models.CheckoutStatusFailed},
		{"no payment required", "open", "no_payment_required", models.CheckoutStatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newCheckoutFixture()
			sessionID := f.paidSession(t, 1000)
			f.gateway.sessions[sessionID].Status = tc.status
			f.gateway.sessions[sessionID].PaymentStatus = tc.paymentStatus

			outcome, err := f.svc.HandleCheckoutSuccess(context.Background(), f.userID, sessionID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, outcome.Status)
			assert.Equal(t, tc.paymentStatus, outcome.PaymentStatus)
			assert.Empty(t, outcome.OrderID)
			assert.Empty(t, f.orders.orders)
			assert.Empty(t, f.publisher.events)
		})
	}
}

func TestHandleCheckoutSuccess_SecondConfirmationReturnsSameOrder(t *testing.T) {
	f := newCheckoutFixture()
	sessionID := f.paidSession(t, 1000, models.SessionProduct{ID: primitive.NewObjectID().Hex(), Quantity: 1, Price: 10})
	ctx := context.Background()

	first, err := f.svc.HandleCheckoutSuccess(ctx, f.userID, sessionID)
	require.NoError(t, err)
	second, err := f.svc.HandleCheckoutSuccess(ctx, f.userID, sessionID)
	require.NoError(t, err)

	assert.Equal(t, first.OrderID, second.OrderID)
	assert.True(t, second.Duplicate)
	assert.Len(t, f.orders.orders, 1)
	assert.Equal(t, 1, f.gateway.getCalls)
	assert.Len(t, f.publisher.events, 1)
}

func TestHandleCheckoutSuccess_Errors(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	_, err := f.svc.HandleCheckoutSuccess(ctx, f.userID, "")
	assertKind(t, err, apperrors.KindValidation)

	_, err = f.svc.HandleCheckoutSuccess(ctx, f.userID, "cs_unknown")
	assertKind(t, err, apperrors.KindUpstream)

	sessionID := f.paidSession(t, 1000)
	f.gateway.sessions[sessionID].Metadata["products"] = "not json"
	_, err = f.svc.HandleCheckoutSuccess(ctx, f.userID, sessionID)
	assertKind(t, err, apperrors.KindUpstream)
	assert.Empty(t, f.orders.orders)
}

func TestCreatedSessionConfirmsIntoOrder(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	productID := primitive.NewObjectID()

	result, err := f.svc.CreateCheckoutSession(ctx, f.userID, []models.CheckoutProduct{
		{ProductID: productID.Hex(), Name: "Tee", Price: 10, Quantity: 1},
	})
	require.NoError(t, err)
	sess := f.gateway.sessions[result.SessionID]
	require.NotNil(t, sess)
	sess.Status, sess.PaymentStatus, sess.AmountTotal = "complete", "paid", 1000

	outcome, err := f.svc.HandleCheckoutSuccess(ctx, f.userID, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutStatusPaid, outcome.Status)
	require.Len(t, f.orders.orders, 1)
	assert.Equal(t, productID, f.orders.orders[0].Products[0].Product)
}

func TestHandleCheckoutSuccess_OtherUsersSession(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()
	stranger := primitive.NewObjectID()
	sessionID := f.paidSession(t, 1000, models.SessionProduct{ID: primitive.NewObjectID().Hex(), Quantity: 1, Price: 10})

	_, err := f.svc.HandleCheckoutSuccess(ctx, stranger, sessionID)
	assertKind(t, err, apperrors.KindNotFound)
	assert.Empty(t, f.orders.orders)

	first, err := f.svc.HandleCheckoutSuccess(ctx, f.userID, sessionID)
	require.NoError(t, err)

	// the recorded order is not disclosed either
	outcome, err := f.svc.HandleCheckoutSuccess(ctx, stranger, sessionID)
	assertKind(t, err, apperrors.KindNotFound)
	assert.Nil(t, outcome)
	assert.NotEmpty(t, first.OrderID)
}

func TestHandleCheckoutSuccess_PublishFailureDoesNotFail(t *testing.T) {
	f := newCheckoutFixture()
	f.publisher.err = errors.New("kafka: leader not available")
	sessionID := f.paidSession(t, 500, models.SessionProduct{ID: primitive.NewObjectID().Hex(), Quantity: 1, Price: 5})

	outcome, err := f.svc.HandleCheckoutSuccess(context.Background(), f.userID, sessionID)
	require.NoError(t, err)
	assert.NotEmpty(t, outcome.OrderID)
}

func TestHandleWebhook_RecordsPaidSession(t *testing.T) {
	f := newCheckoutFixture()
	sessionID := f.paidSession(t, 1000, models.SessionProduct{ID: primitive.NewObjectID().Hex(), Quantity: 1, Price: 10})
	f.gateway.webhook = &services.WebhookEvent{ID: "evt_1", Type: "checkout.session.completed", Session: f.gateway.sessions[sessionID]}
	ctx := context.Background()

	require.NoError(t, f.svc.HandleWebhook(ctx, []byte(`{}`), "t=1,v1=sig"))
	require.Len(t, f.orders.orders, 1)

	// the redirect confirmation afterwards finds the same order
	outcome, err := f.svc.HandleCheckoutSuccess(ctx, f.userID, sessionID)
	require.NoError(t, err)
	assert.Equal(t, f.orders.orders[0].ID.Hex(), outcome.OrderID)
	assert.Len(t, f.orders.orders, 1)
}

func TestHandleWebhook_IgnoresOtherEvents(t *testing.T) {
	f := newCheckoutFixture()
	f.gateway.webhook = &services.WebhookEvent{ID: "evt_2", Type: "payment_intent.created"}

	require.NoError(t, f.svc.HandleWebhook(context.Background(), []byte(`{}`), "sig"))
	assert.Empty(t, f.orders.orders)
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	f := newCheckoutFixture()
	f.gateway.webhookErr = errors.New("webhook has invalid signature")

	err := f.svc.HandleWebhook(context.Background(), []byte(`{}`), "bad")
	assertKind(t, err, apperrors.KindValidation)
}
