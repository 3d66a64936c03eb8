package controllers

import (
	"net/http"

	"github.com/lindawangwe/mama-uncle-stores/apperrors"
	"github.com/lindawangwe/mama-uncle-stores/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CartController struct {
	cart   services.CartService
	logger *zap.Logger
}

func NewCartController(cart services.CartService, logger *zap.Logger) *CartController {
	if logger == nil {
		logger = zap.L()
	}
	return &CartController{cart: cart, logger: logger}
}

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Size      string `json:"size"`
	Quantity  *int   `json:"quantity"`
}

type removeFromCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Size      string `json:"size"`
}

type updateQuantityRequest struct {
	Quantity *int   `json:"quantity" binding:"required"`
	Size     string `json:"size"`
}

// GetCartProducts returns the augmented cart lines, or [] for an empty cart.
func (cc *CartController) GetCartProducts(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	lines, err := cc.cart.List(c.Request.Context(), user.ID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, lines)
}

// GetCartSummary returns the totals of the listed cart lines.
func (cc *CartController) GetCartSummary(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	lines, err := cc.cart.List(c.Request.Context(), user.ID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, services.SummarizeCart(lines))
}

func (cc *CartController) AddToCart(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	var req addToCartRequest
	if !bindJSON(c, &req) {
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	if err := cc.cart.Add(c.Request.Context(), user.ID, req.ProductID, req.Size, quantity); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Item added to cart"})
}

func (cc *CartController) RemoveFromCart(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	var req removeFromCartRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := cc.cart.Remove(c.Request.Context(), user.ID, req.ProductID, req.Size); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

// UpdateQuantity overwrites the quantity of the entry keyed by the path id
// and the body size. A quantity of zero or less removes the entry.
func (cc *CartController) UpdateQuantity(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	var req updateQuantityRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := cc.cart.UpdateQuantity(c.Request.Context(), user.ID, c.Param("id"), *req.Quantity, req.Size); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart updated successfully"})
}

func (cc *CartController) ClearCart(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	if err := cc.cart.Clear(c.Request.Context(), user.ID); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared successfully"})
}

func (cc *CartController) ValidateCartStock(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	result, err := cc.cart.ValidateStock(c.Request.Context(), user.ID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if !result.Valid {
		cc.logger.Info("Cart failed stock validation",
			zap.String("user_id", user.ID.Hex()),
			zap.Int("invalid_items", len(result.InvalidItems)),
		)
	}
	c.JSON(http.StatusOK, result)
}
