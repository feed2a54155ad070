package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/storefront-labs/catalog-api/models"
	"github.com/storefront-labs/catalog-api/store"
	"go.uber.org/zap"
)

type ItemHandler struct {
	store store.Store
	log   *zap.Logger
}

func NewItemHandler(s store.Store, log *zap.Logger) *ItemHandler {
	return &ItemHandler{store: s, log: log}
}

// Register sets up the routes for item-related operations
func (h *ItemHandler) Register(router *gin.Engine) {
	items := router.Group("/items")
	{
		items.GET("", h.List())
		items.POST("", h.Create())
		items.GET("/:item_id", h.Get())
		items.PUT("/:item_id", h.Update())
		items.DELETE("/:item_id", h.Delete())
	}
}

// List returns every item ordered by id.
func (h *ItemHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := h.store.ListItems(c.Request.Context())
		if err != nil {
			respondStoreError(c, h.log, err)
			return
		}
		if items == nil {
			items = []models.Item{}
		}
		c.JSON(http.StatusOK, items)
	}
}

// Get retrieves an item by ID
func (h *ItemHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "item_id")
		if !ok {
			return
		}
		item, err := h.store.GetItem(c.Request.Context(), id)
		if err != nil {
			respondStoreError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// Create handles the creation of a new item
func (h *ItemHandler) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name        string           `json:"name" binding:"required,max=100"`
			Description string           `json:"description"`
			Price       *decimal.Decimal `json:"price" binding:"required"`
			UserID      uint             `json:"user_id" binding:"required"`
			CategoryID  *uint            `json:"category_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid field name: must not be blank"})
			return
		}
		if !validPrice(*req.Price) {
			c.JSON(http.StatusBadRequest, gin.H{"error": priceRule})
			return
		}

		item := models.Item{
			Name:        req.Name,
			Description: req.Description,
			Price:       *req.Price,
			UserID:      req.UserID,
			CategoryID:  req.CategoryID,
		}
		if err := h.store.CreateItem(c.Request.Context(), &item); err != nil {
			respondStoreError(c, h.log, err)
			return
		}
		h.log.Info("item created", zap.Uint("id", item.ID), zap.Uint("user_id", item.UserID))
		c.JSON(http.StatusCreated, item)
	}
}

// Update applies a partial field set to an existing item. The owning user
// is immutable; category_id may be set to null to clear the reference. A
// body with no recognized fields is accepted and still refreshes
// updated_at.
func (h *ItemHandler) Update() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "item_id")
		if !ok {
			return
		}

		var req struct {
			Name        *string          `json:"name" binding:"omitempty,max=100"`
			Description *string          `json:"description"`
			Price       *decimal.Decimal `json:"price"`
			CategoryID  optionalID       `json:"category_id"`
			UserID      *uint            `json:"user_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		if req.UserID != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid field user_id: cannot be changed"})
			return
		}
		if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid field name: must not be blank"})
			return
		}
		if req.Price != nil && !validPrice(*req.Price) {
			c.JSON(http.StatusBadRequest, gin.H{"error": priceRule})
			return
		}

		upd := store.ItemUpdate{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
		}
		if req.CategoryID.Set {
			upd.SetCategory = true
			if req.CategoryID.Valid {
				categoryID := req.CategoryID.ID
				upd.CategoryID = &categoryID
			}
		}

		item, err := h.store.UpdateItem(c.Request.Context(), id, upd)
		if err != nil {
			respondStoreError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// Delete handles the deletion of an item
func (h *ItemHandler) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "item_id")
		if !ok {
			return
		}
		if err := h.store.DeleteItem(c.Request.Context(), id); err != nil {
			respondStoreError(c, h.log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
