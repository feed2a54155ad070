package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storefront-labs/catalog-api/models"
	"github.com/storefront-labs/catalog-api/store"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	store store.Store
	log   *zap.Logger
}

func NewCategoryHandler(s store.Store, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{store: s, log: log}
}

// Register sets up the routes for category-related operations.
func (h *CategoryHandler) Register(router *gin.Engine) {
	categories := router.Group("/categories")
	{
		categories.GET("", h.List())
		categories.POST("", h.Create())
		categories.GET("/:category_id", h.Get())
		categories.DELETE("/:category_id", h.Delete())
	}
}

func (h *CategoryHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := h.store.ListCategories(c.Request.Context())
		if err != nil {
			respondStoreError(c, h.log, err)
			return
		}
		if categories == nil {
			categories = []models.Category{}
		}
		c.JSON(http.StatusOK, categories)
	}
}

func (h *CategoryHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "category_id")
		if !ok {
			return
		}
		category, err := h.store.GetCategory(c.Request.Context(), id)
		if err != nil {
			respondStoreError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

func (h *CategoryHandler) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name        string `json:"name" binding:"required,max=50"`
			Description string `json:"description"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid field name: must not be blank"})
			return
		}

		category := models.Category{Name: req.Name, Description: req.Description}
		if err := h.store.CreateCategory(c.Request.Context(), &category); err != nil {
			respondStoreError(c, h.log, err)
			return
		}
		h.log.Info("category created", zap.Uint("id", category.ID), zap.String("name", category.Name))
		c.JSON(http.StatusCreated, category)
	}
}

// Delete removes a category. It is rejected with a conflict while any item
// still references it; the reference must be cleared first.
func (h *CategoryHandler) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "category_id")
		if !ok {
			return
		}
		if err := h.store.DeleteCategory(c.Request.Context(), id); err != nil {
			respondStoreError(c, h.log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
