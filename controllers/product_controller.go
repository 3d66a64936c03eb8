package controllers

import (
	"net/http"
	"strconv"

	"github.com/lindawangwe/mama-uncle-stores/apperrors"
	"github.com/lindawangwe/mama-uncle-stores/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxPerPage = 100

type ProductController struct {
	products services.ProductService
	logger   *zap.Logger
}

func NewProductController(products services.ProductService, logger *zap.Logger) *ProductController {
	if logger == nil {
		logger = zap.L()
	}
	return &ProductController{products: products, logger: logger}
}

// GetAllProducts lists the catalog, ?page=1&perPage=20.
func (pc *ProductController) GetAllProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("perPage", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > maxPerPage {
		perPage = 20
	}

	result, err := pc.products.ListProducts(c.Request.Context(), page, perPage)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products": result.Products,
		"meta": gin.H{
			"page":       result.Page,
			"perPage":    result.PerPage,
			"total":      result.Total,
			"totalPages": result.TotalPages,
		},
	})
}

func (pc *ProductController) GetFeaturedProducts(c *gin.Context) {
	products, err := pc.products.GetFeatured(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (pc *ProductController) SearchProducts(c *gin.Context) {
	products, err := pc.products.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (pc *ProductController) GetProductsByCategory(c *gin.Context) {
	products, err := pc.products.ListByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (pc *ProductController) GetProduct(c *gin.Context) {
	product, err := pc.products.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req services.ProductCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := pc.products.CreateProduct(c.Request.Context(), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (pc *ProductController) ToggleFeaturedProduct(c *gin.Context) {
	product, err := pc.products.ToggleFeatured(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (pc *ProductController) DeleteProduct(c *gin.Context) {
	if err := pc.products.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
