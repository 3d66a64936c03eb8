package controllers

import (
	"net/http"

	"github.com/lindawangwe/mama-uncle-stores/apperrors"
	"github.com/lindawangwe/mama-uncle-stores/models"
	"github.com/lindawangwe/mama-uncle-stores/services"

	"github.com/gin-gonic/gin"
)

type OrderController struct {
	orders services.OrderService
}

func NewOrderController(orders services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

func (oc *OrderController) ListOrders(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	orders, err := oc.orders.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (oc *OrderController) GetOrder(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	order, err := oc.orders.GetForUser(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
