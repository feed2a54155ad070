package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storefront-labs/catalog-api/models"
	"github.com/storefront-labs/catalog-api/store"
	"go.uber.org/zap"
)

type UserHandler struct {
	store store.Store
	log   *zap.Logger
}

func NewUserHandler(s store.Store, log *zap.Logger) *UserHandler {
	return &UserHandler{store: s, log: log}
}

// Register sets up the routes for user-related operations. Users are
// immutable once created, so there is no update route.
func (h *UserHandler) Register(router *gin.Engine) {
	users := router.Group("/users")
	{
		users.GET("", h.List())
		users.POST("", h.Create())
		users.GET("/:user_id", h.Get())
		users.DELETE("/:user_id", h.Delete())
	}
}

func (h *UserHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := h.store.ListUsers(c.Request.Context())
		if err != nil {
			respondStoreError(c, h.log, err)
			return
		}
		if users == nil {
			users = []models.User{}
		}
		c.JSON(http.StatusOK, users)
	}
}

func (h *UserHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "user_id")
		if !ok {
			return
		}
		user, err := h.store.GetUser(c.Request.Context(), id)
		if err != nil {
			respondStoreError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func (h *UserHandler) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required,max=50"`
			Email    string `json:"email" binding:"required,email,max=100"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
			return
		}
		if strings.TrimSpace(req.Username) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid field username: must not be blank"})
			return
		}

		user := models.User{Username: req.Username, Email: req.Email}
		if err := h.store.CreateUser(c.Request.Context(), &user); err != nil {
			respondStoreError(c, h.log, err)
			return
		}
		h.log.Info("user created", zap.Uint("id", user.ID), zap.String("username", user.Username))
		c.JSON(http.StatusCreated, user)
	}
}

// Delete removes a user; items owned by the user go with it.
func (h *UserHandler) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "user_id")
		if !ok {
			return
		}
		if err := h.store.DeleteUser(c.Request.Context(), id); err != nil {
			respondStoreError(c, h.log, err)
			return
		}
		h.log.Info("user deleted", zap.Uint("id", id))
		c.Status(http.StatusNoContent)
	}
}
