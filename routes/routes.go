package routes

import (
	"net/http"

	"github.com/lindawangwe/mama-uncle-stores/controllers"
	"github.com/lindawangwe/mama-uncle-stores/middleware"

	"github.com/gin-gonic/gin"
)

// WebhookPath receives provider callbacks. They arrive in bursts from a few
// provider IPs, so it is kept out of per-IP rate limiting.
const WebhookPath = "/api/payments/webhook"

// Handlers bundles what the API routes need.
type Handlers struct {
	Auth     gin.HandlerFunc
	Cart     *controllers.CartController
	Payments *controllers.PaymentController
	Products *controllers.ProductController
	Orders   *controllers.OrderController
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	api := r.Group("/api")
	RegisterCartRoutes(api, h)
	RegisterPaymentRoutes(api, h)
	RegisterProductRoutes(api, h)
	RegisterOrderRoutes(api, h)
}

func RegisterCartRoutes(api *gin.RouterGroup, h Handlers) {
	cart := api.Group("/cart")
	cart.Use(h.Auth)
	{
		cart.GET("", h.Cart.GetCartProducts)
		cart.POST("", h.Cart.AddToCart)
		cart.DELETE("", h.Cart.RemoveFromCart)
		cart.DELETE("/clear", h.Cart.ClearCart)
		cart.GET("/validate", h.Cart.ValidateCartStock)
		cart.GET("/summary", h.Cart.GetCartSummary)
		cart.PUT("/:id", h.Cart.UpdateQuantity)
	}
}

func RegisterPaymentRoutes(api *gin.RouterGroup, h Handlers) {
	payments := api.Group("/payments")
	// provider callback, authenticated by its signature
	payments.POST("/webhook", h.Payments.StripeWebhook)

	authed := payments.Group("", h.Auth)
	{
		authed.POST("/create-checkout-session", h.Payments.CreateCheckoutSession)
		authed.POST("/checkout-success", h.Payments.CheckoutSuccess)
	}
}

func RegisterProductRoutes(api *gin.RouterGroup, h Handlers) {
	products := api.Group("/products")
	{
		products.GET("/featured", h.Products.GetFeaturedProducts)
		products.GET("/search", h.Products.SearchProducts)
		products.GET("/category/:category", h.Products.GetProductsByCategory)
		products.GET("/:id", h.Products.GetProduct)
	}

	admin := products.Group("", h.Auth, middleware.AdminOnly())
	{
		admin.GET("", h.Products.GetAllProducts)
		admin.POST("", h.Products.CreateProduct)
		admin.PATCH("/:id", h.Products.ToggleFeaturedProduct)
		admin.DELETE("/:id", h.Products.DeleteProduct)
	}
}

func RegisterOrderRoutes(api *gin.RouterGroup, h Handlers) {
	orders := api.Group("/orders", h.Auth)
	{
		orders.GET("", h.Orders.ListOrders)
		orders.GET("/:id", h.Orders.GetOrder)
	}
}
