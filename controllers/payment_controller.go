package controllers

import (
	"io"
	"net/http"

	"github.com/lindawangwe/mama-uncle-stores/apperrors"
	"github.com/lindawangwe/mama-uncle-stores/logger"
	"github.com/lindawangwe/mama-uncle-stores/models"
	"github.com/lindawangwe/mama-uncle-stores/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxWebhookBody bounds the provider callback payload.
const maxWebhookBody = int64(65536)

type PaymentController struct {
	checkout services.CheckoutService
	logger   *zap.Logger
}

func NewPaymentController(checkout services.CheckoutService, logger *zap.Logger) *PaymentController {
	if logger == nil {
		logger = zap.L()
	}
	return &PaymentController{checkout: checkout, logger: logger}
}

type createCheckoutSessionRequest struct {
	Products []models.CheckoutProduct `json:"products"`
}

type checkoutSuccessRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

func (pc *PaymentController) CreateCheckoutSession(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	var req createCheckoutSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := pc.checkout.CreateCheckoutSession(c.Request.Context(), user.ID, req.Products)
	if err != nil {
		logger.FromContext(c, pc.logger).Warn("Checkout session creation failed",
			zap.String("user_id", user.ID.Hex()),
			zap.Error(err),
		)
		apperrors.Respond(c, err)
		return
	}

	// id mirrors sessionId for clients that redirect with it directly
	c.JSON(http.StatusOK, gin.H{
		"sessionId":   result.SessionID,
		"id":          result.SessionID,
		"url":         result.URL,
		"totalAmount": result.TotalAmount,
	})
}

// CheckoutSuccess confirms one of the principal's sessions after the
// provider redirect. Paid sessions answer 200, sessions still awaiting
// payment 202 and expired sessions 402.
func (pc *PaymentController) CheckoutSuccess(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	var req checkoutSuccessRequest
	if !bindJSON(c, &req) {
		return
	}

	outcome, err := pc.checkout.HandleCheckoutSuccess(c.Request.Context(), user.ID, req.SessionID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	switch outcome.Status {
	case models.CheckoutStatusPaid:
		message := "Payment successful, order created."
		if outcome.Duplicate {
			message = "Payment already confirmed."
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": message,
			"orderId": outcome.OrderID,
		})
	case models.CheckoutStatusFailed:
		c.JSON(http.StatusPaymentRequired, gin.H{
			"success":       false,
			"status":        outcome.Status,
			"paymentStatus": outcome.PaymentStatus,
			"message":       "Checkout session expired without payment.",
		})
	default:
		c.JSON(http.StatusAccepted, gin.H{
			"success":       false,
			"status":        outcome.Status,
			"paymentStatus": outcome.PaymentStatus,
			"message":       "Payment has not been completed yet.",
		})
	}
}

// StripeWebhook needs the raw body for signature verification.
func (pc *PaymentController) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		apperrors.Respond(c, apperrors.Validation("Unable to read webhook body"))
		return
	}

	if err := pc.checkout.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
